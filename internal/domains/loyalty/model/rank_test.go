package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testThresholds = []int64{100, 500, 2000, 5000, 12000, 30000}

func TestRankFromExp(t *testing.T) {
	cases := []struct {
		exp  int64
		want Rank
	}{
		{0, RankPotential},
		{99, RankPotential},
		{100, RankBronze},
		{499, RankBronze},
		{500, RankSilver},
		{2000, RankGold},
		{5000, RankPlatinum},
		{12000, RankDiamond},
		{30000, RankEmerald},
		{1000000, RankEmerald},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, RankFromExp(tc.exp, testThresholds), "exp=%d", tc.exp)
	}
}

func TestRankFromExp_EmptyThresholds(t *testing.T) {
	assert.Equal(t, RankPotential, RankFromExp(99999, nil))
}

func TestMaxRank(t *testing.T) {
	assert.Equal(t, RankGold, MaxRank(RankGold, RankSilver))
	assert.Equal(t, RankGold, MaxRank(RankSilver, RankGold))
	assert.Equal(t, RankBronze, MaxRank(RankBronze, RankBronze))
}

func TestAtLeast(t *testing.T) {
	assert.True(t, RankGold.AtLeast(RankGold))
	assert.True(t, RankEmerald.AtLeast(RankBronze))
	assert.False(t, RankSilver.AtLeast(RankGold))
}

func TestParseRank(t *testing.T) {
	t.Run("case-insensitive với whitespace", func(t *testing.T) {
		rank, err := ParseRank("  Gold ")
		require.NoError(t, err)
		assert.Equal(t, RankGold, rank)
	})

	t.Run("tên không tồn tại", func(t *testing.T) {
		_, err := ParseRank("wood")
		assert.Error(t, err)
	})

	t.Run("round-trip với String", func(t *testing.T) {
		for r := RankPotential; r <= RankEmerald; r++ {
			parsed, err := ParseRank(r.String())
			require.NoError(t, err)
			assert.Equal(t, r, parsed)
		}
	})
}
