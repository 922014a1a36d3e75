package model

import "errors"

var (
	ErrVoucherNotFound = errors.New("voucher not found")
	ErrDuplicateCode   = errors.New("voucher code already exists")
	ErrVersionConflict = errors.New("voucher was modified concurrently")
)

type ErrorCode string

const (
	// Eligibility denials (400) — business outcomes, không phải fatal errors
	ErrCodeVoucherExpired      ErrorCode = "VOUCHER_EXPIRED"
	ErrCodeVoucherNotStarted   ErrorCode = "VOUCHER_NOT_STARTED"
	ErrCodeVoucherExhausted    ErrorCode = "VOUCHER_EXHAUSTED"
	ErrCodeVoucherNotOwned     ErrorCode = "VOUCHER_NOT_OWNED"
	ErrCodeVoucherNewUsersOnly ErrorCode = "VOUCHER_NEW_USERS_ONLY"
	ErrCodeVoucherRankTooLow   ErrorCode = "VOUCHER_RANK_TOO_LOW"
	ErrCodeVoucherMinSpend     ErrorCode = "VOUCHER_MIN_SPEND_NOT_MET"
	ErrCodeCombinationLimit    ErrorCode = "VOUCHER_COMBINATION_LIMIT"

	// Admin / system
	ErrCodeVoucherNotFound     ErrorCode = "VOUCHER_NOT_FOUND"         // 404
	ErrCodeDuplicateCode       ErrorCode = "VAL_DUPLICATE_CODE"        // 400
	ErrCodeValidationFailed    ErrorCode = "VAL_INVALID_INPUT"         // 400
	ErrCodeConcurrencyConflict ErrorCode = "CONCURRENCY_CONFLICT"      // 409
	ErrCodeOrderNotPending     ErrorCode = "BIZ_ORDER_NOT_MODIFIABLE"  // 400
	ErrCodeInternalError       ErrorCode = "SYS_INTERNAL_ERROR"        // 500
)

// AppError là structured error trả về cho presentation layer.
// Core chỉ trả reason code + đủ context cho một message hữu ích;
// localize message là việc của caller.
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Denial là lý do một voucher không áp dụng được — recoverable outcome,
// trả về như value chứ không throw.
type Denial struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ToAppError chuyển denial thành AppError khi caller muốn fail request
func (d *Denial) ToAppError() *AppError {
	return &AppError{
		Code:       d.Code,
		Message:    d.Message,
		Details:    d.Details,
		HTTPStatus: 400,
	}
}

// Predefined errors
var (
	ErrAppVoucherNotFound = &AppError{
		Code:       ErrCodeVoucherNotFound,
		Message:    "Mã giảm giá không tồn tại hoặc đã bị vô hiệu hóa",
		HTTPStatus: 404,
	}

	ErrAppConcurrencyConflict = &AppError{
		Code:       ErrCodeConcurrencyConflict,
		Message:    "Hệ thống đang bận, vui lòng thử lại",
		HTTPStatus: 409,
	}

	ErrAppVouchersApplied = &AppError{
		Code:       ErrCodeOrderNotPending,
		Message:    "Đơn hàng đã áp dụng mã giảm giá",
		HTTPStatus: 400,
	}
)
