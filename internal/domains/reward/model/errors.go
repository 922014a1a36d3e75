package model

import "errors"

var (
	ErrRewardNotFound     = errors.New("reward not found")
	ErrRedemptionNotFound = errors.New("redemption not found")
	ErrCodeCollision      = errors.New("redemption code collision")
	ErrVersionConflict    = errors.New("reward was modified concurrently")
)

type ErrorCode string

const (
	ErrCodeRewardNotFound     ErrorCode = "REWARD_NOT_FOUND"
	ErrCodeInsufficientPoints ErrorCode = "REWARD_INSUFFICIENT_POINTS"
	ErrCodeRewardExhausted    ErrorCode = "REWARD_EXHAUSTED"
	ErrCodeRankTooLow         ErrorCode = "REWARD_RANK_TOO_LOW"
	ErrCodeRedemptionNotFound ErrorCode = "REDEMPTION_NOT_FOUND"
	ErrCodeAlreadyUsed        ErrorCode = "REDEMPTION_ALREADY_USED"
	ErrCodeRedemptionExpired  ErrorCode = "REDEMPTION_EXPIRED"

	ErrCodeValidationFailed    ErrorCode = "VAL_INVALID_INPUT"
	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"
)

type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrAppRewardNotFound = &AppError{
		Code:       ErrCodeRewardNotFound,
		Message:    "Phần thưởng không tồn tại hoặc đã ngừng",
		HTTPStatus: 404,
	}

	ErrAppRewardExhausted = &AppError{
		Code:       ErrCodeRewardExhausted,
		Message:    "Phần thưởng đã hết lượt đổi",
		HTTPStatus: 400,
	}

	ErrAppRedemptionNotFound = &AppError{
		Code:       ErrCodeRedemptionNotFound,
		Message:    "Mã đổi thưởng không tồn tại",
		HTTPStatus: 404,
	}

	ErrAppAlreadyUsed = &AppError{
		Code:       ErrCodeAlreadyUsed,
		Message:    "Mã đổi thưởng đã được sử dụng",
		HTTPStatus: 400,
	}

	ErrAppRedemptionExpired = &AppError{
		Code:       ErrCodeRedemptionExpired,
		Message:    "Mã đổi thưởng đã hết hạn",
		HTTPStatus: 400,
	}

	ErrAppConcurrencyConflict = &AppError{
		Code:       ErrCodeConcurrencyConflict,
		Message:    "Hệ thống đang bận, vui lòng thử lại",
		HTTPStatus: 409,
	}
)
