package model

import (
	"fmt"
	"strings"
)

// Rank là hạng khách hàng, so sánh theo ordinal (Potential thấp nhất).
// Thứ tự: Potential < Bronze < Silver < Gold < Platinum < Diamond < Emerald.
type Rank int

const (
	RankPotential Rank = iota
	RankBronze
	RankSilver
	RankGold
	RankPlatinum
	RankDiamond
	RankEmerald
)

var rankNames = [...]string{
	"potential",
	"bronze",
	"silver",
	"gold",
	"platinum",
	"diamond",
	"emerald",
}

func (r Rank) String() string {
	if r < RankPotential || int(r) >= len(rankNames) {
		return fmt.Sprintf("rank(%d)", int(r))
	}
	return rankNames[r]
}

func (r Rank) IsValid() bool {
	return r >= RankPotential && int(r) < len(rankNames)
}

// AtLeast so sánh ordinal, dùng cho rank gate của voucher/reward
func (r Rank) AtLeast(min Rank) bool {
	return r >= min
}

// ParseRank parse tên rank (case-insensitive)
func ParseRank(s string) (Rank, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range rankNames {
		if name == s {
			return Rank(i), nil
		}
	}
	return RankPotential, fmt.Errorf("unknown rank: %q", s)
}

// RankFromExp tìm rank cao nhất có threshold <= exp.
// thresholds là ngưỡng cho Bronze trở lên (tăng dần); Potential không có ngưỡng.
func RankFromExp(exp int64, thresholds []int64) Rank {
	rank := RankPotential
	for i, threshold := range thresholds {
		if exp < threshold {
			break
		}
		rank = Rank(i + 1)
	}
	if rank > RankEmerald {
		rank = RankEmerald
	}
	return rank
}

// MaxRank trả về rank cao hơn trong hai rank.
// Accrual không bao giờ hạ rank: rank mới = MaxRank(rank cũ, rank theo exp).
func MaxRank(a, b Rank) Rank {
	if a >= b {
		return a
	}
	return b
}
