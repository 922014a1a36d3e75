package model

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrVersionConflict    = errors.New("user was modified concurrently")
)

type ErrorCode string

const (
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeDuplicateEmail     ErrorCode = "VAL_DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials ErrorCode = "AUTH_INVALID_CREDENTIALS"
	ErrCodeValidationFailed   ErrorCode = "VAL_INVALID_INPUT"
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
	ErrAppUserNotFound = &AppError{
		Code:       ErrCodeUserNotFound,
		Message:    "Tài khoản không tồn tại",
		HTTPStatus: 404,
	}

	ErrAppInvalidCredentials = &AppError{
		Code:       ErrCodeInvalidCredentials,
		Message:    "Email hoặc mật khẩu không đúng",
		HTTPStatus: 401,
	}

	ErrAppDuplicateEmail = &AppError{
		Code:       ErrCodeDuplicateEmail,
		Message:    "Email đã được đăng ký",
		HTTPStatus: 400,
	}
)
