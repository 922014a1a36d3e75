package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	loyalty "restaurant-backend/internal/domains/loyalty/model"
)

// User là tài khoản hệ thống kèm các trường loyalty.
// Point là điểm tiêu được, TotalPoint là tích lũy trọn đời (không giảm khi
// redeem), Exp quyết định Rank, Booster là hệ số nhân tích điểm >= 1.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`

	Point                  int64           `json:"point" db:"point"`
	TotalPoint             int64           `json:"total_point" db:"total_point"`
	Exp                    int64           `json:"exp" db:"exp"`
	Rank                   loyalty.Rank    `json:"rank" db:"rank"`
	Booster                decimal.Decimal `json:"booster" db:"booster"`
	ExcludeFromLeaderboard bool            `json:"exclude_from_leaderboard" db:"exclude_from_leaderboard"`

	Version   int        `json:"version" db:"version"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Roles
const (
	RoleAdmin    = "admin"
	RoleStaff    = "staff"
	RoleCustomer = "customer"
)

// LeaderboardEntry là một dòng trong bảng xếp hạng điểm tích lũy
type LeaderboardEntry struct {
	UserID     uuid.UUID    `json:"user_id" db:"user_id"`
	FullName   string       `json:"full_name" db:"full_name"`
	TotalPoint int64        `json:"total_point" db:"total_point"`
	Rank       loyalty.Rank `json:"rank" db:"rank"`
}
