package model

import "errors"

var (
	ErrMaterialNotFound  = errors.New("material not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrVersionConflict   = errors.New("material was modified concurrently")
)

type ErrorCode string

const (
	ErrCodeMaterialNotFound  ErrorCode = "MATERIAL_NOT_FOUND"
	ErrCodeInsufficientStock ErrorCode = "INVENTORY_INSUFFICIENT_STOCK"

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
	ErrAppMaterialNotFound = &AppError{
		Code:       ErrCodeMaterialNotFound,
		Message:    "Nguyên liệu không tồn tại",
		HTTPStatus: 404,
	}

	ErrAppInsufficientStock = &AppError{
		Code:       ErrCodeInsufficientStock,
		Message:    "Tồn kho không đủ để xuất",
		HTTPStatus: 400,
	}

	ErrAppConcurrencyConflict = &AppError{
		Code:       ErrCodeConcurrencyConflict,
		Message:    "Hệ thống đang bận, vui lòng thử lại",
		HTTPStatus: 409,
	}
)
