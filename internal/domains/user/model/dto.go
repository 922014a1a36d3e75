package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// RegisterRequest - đăng ký tài khoản customer
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Email không được để trống"),
			is.Email.Error("Email không hợp lệ"),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Mật khẩu không được để trống"),
			validation.Length(8, 72).Error("Mật khẩu phải từ 8-72 ký tự"),
		),
		validation.Field(&r.FullName,
			validation.Required.Error("Họ tên không được để trống"),
			validation.Length(1, 100),
		),
	)
}

// LoginRequest - đăng nhập
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// TokenPair trả về sau đăng nhập thành công
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
