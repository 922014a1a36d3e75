package model

// AccrualResult là kết quả cộng điểm cho một đơn hoàn tất.
// AlreadyApplied = true khi đơn đã được cộng trước đó (no-op, earned = 0).
type AccrualResult struct {
	PointsEarned   int64 `json:"points_earned"`
	ExpEarned      int64 `json:"exp_earned"`
	NewRank        Rank  `json:"new_rank"`
	AlreadyApplied bool  `json:"already_applied"`
}
