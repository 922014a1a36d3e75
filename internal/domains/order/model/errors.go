package model

import "errors"

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrVersionConflict = errors.New("order was modified concurrently")
)

type ErrorCode string

const (
	ErrCodeOrderNotFound     ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeOrderNotPending   ErrorCode = "BIZ_ORDER_NOT_MODIFIABLE"
	ErrCodeInvalidTransition ErrorCode = "BIZ_INVALID_STATUS_TRANSITION"
	ErrCodeEmptyCart         ErrorCode = "BIZ_EMPTY_CART"
	ErrCodeValidationFailed  ErrorCode = "VAL_INVALID_INPUT"
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
	ErrAppOrderNotFound = &AppError{
		Code:       ErrCodeOrderNotFound,
		Message:    "Đơn hàng không tồn tại",
		HTTPStatus: 404,
	}

	ErrAppOrderNotPending = &AppError{
		Code:       ErrCodeOrderNotPending,
		Message:    "Đơn hàng đã được xử lý, không thể thay đổi",
		HTTPStatus: 400,
	}

	ErrAppEmptyCart = &AppError{
		Code:       ErrCodeEmptyCart,
		Message:    "Giỏ hàng trống, không thể đặt đơn",
		HTTPStatus: 400,
	}
)
