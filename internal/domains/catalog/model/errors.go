package model

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrComboNotFound       = errors.New("combo not found")
	ErrProductTypeNotFound = errors.New("product type not found")
	ErrExtraNotFound       = errors.New("extra not found")
	ErrVersionConflict     = errors.New("catalog item was modified concurrently")
)

type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "CATALOG_NOT_FOUND"
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
	ErrAppNotFound = &AppError{
		Code:       ErrCodeNotFound,
		Message:    "Sản phẩm không tồn tại hoặc đã ngừng bán",
		HTTPStatus: 404,
	}

	ErrAppConcurrencyConflict = &AppError{
		Code:       ErrCodeConcurrencyConflict,
		Message:    "Hệ thống đang bận, vui lòng thử lại",
		HTTPStatus: 409,
	}
)
