package models

import "strings"

type LoginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type SignupForm struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

type ForgotPasswordForm struct {
	Email string `json:"email" form:"email"`
}

type ResetPasswordForm struct {
	Email           string `json:"email" form:"email"`
	OTP             string `json:"otp" form:"otp"`
	NewPassword     string `json:"newPassword" form:"newPassword"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func (form LoginForm) Normalized() LoginForm {
	form.Email = NormalizeEmail(form.Email)
	return form
}

func (form SignupForm) Normalized() SignupForm {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = NormalizeEmail(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	return form
}

func (form ForgotPasswordForm) Normalized() ForgotPasswordForm {
	form.Email = NormalizeEmail(form.Email)
	return form
}

func (form ResetPasswordForm) Normalized() ResetPasswordForm {
	form.Email = NormalizeEmail(form.Email)
	form.OTP = strings.TrimSpace(form.OTP)
	return form
}
