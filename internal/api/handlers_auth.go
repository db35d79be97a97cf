package api

import (
	"errors"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/services"
	"github.com/dougwhitewolff/vasop-client/internal/validation"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (handler *Handler) ShowLoginPage(c *fiber.Ctx) error {
	flash := handler.popFlashCookie(c)
	return handler.renderAuthPage(c, "login", fiber.StatusOK, fiber.Map{
		"Form":    models.LoginForm{Email: flash.Email},
		"Notices": flash.Notices,
		"Next":    sanitizeRedirectPath(c.Query("next"), ""),
	})
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	form := models.LoginForm{Email: c.FormValue("email"), Password: c.FormValue("password")}
	credential, err := handler.auth.Login(c.UserContext(), form)
	if err != nil {
		return handler.renderAuthFailure(c, "login", models.LoginForm{Email: form.Email}, err, fiber.Map{
			"Next": sanitizeRedirectPath(c.FormValue("next"), ""),
		})
	}
	if err := handler.setCredentialCookie(c, credential); err != nil {
		return err
	}
	return redirectOrJSON(c, sanitizeRedirectPath(c.FormValue("next"), "/onboarding"))
}

func (handler *Handler) ShowSignupPage(c *fiber.Ctx) error {
	return handler.renderAuthPage(c, "signup", fiber.StatusOK, fiber.Map{
		"Form":    models.SignupForm{},
		"Notices": handler.popFlashCookie(c).Notices,
	})
}

func (handler *Handler) Signup(c *fiber.Ctx) error {
	form := models.SignupForm{
		Name:            c.FormValue("name"),
		Email:           c.FormValue("email"),
		Phone:           c.FormValue("phone"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirmPassword"),
	}
	credential, err := handler.auth.Signup(c.UserContext(), form)
	if err != nil {
		echo := models.SignupForm{Name: form.Name, Email: form.Email, Phone: form.Phone}
		return handler.renderAuthFailure(c, "signup", echo, err, nil)
	}
	if err := handler.setCredentialCookie(c, credential); err != nil {
		return err
	}
	return redirectOrJSON(c, "/onboarding")
}

func (handler *Handler) ShowForgotPasswordPage(c *fiber.Ctx) error {
	flash := handler.popFlashCookie(c)
	return handler.renderAuthPage(c, "forgot_password", fiber.StatusOK, fiber.Map{
		"Form":    models.ForgotPasswordForm{Email: flash.Email},
		"Notices": flash.Notices,
	})
}

func (handler *Handler) ForgotPassword(c *fiber.Ctx) error {
	form := models.ForgotPasswordForm{Email: c.FormValue("email")}
	if _, err := handler.auth.ForgotPassword(c.UserContext(), form); err != nil {
		return handler.renderAuthFailure(c, "forgot_password", form, err, nil)
	}

	flash := flashNotice(wizard.NotifySuccess, "auth.notice.code_sent")
	flash.Email = form.Email
	handler.setFlashCookie(c, flash)
	return redirectOrJSON(c, "/reset-password")
}

func (handler *Handler) ShowResetPasswordPage(c *fiber.Ctx) error {
	flash := handler.popFlashCookie(c)
	email := flash.Email
	if email == "" {
		email = models.NormalizeEmail(c.Query("email"))
	}
	return handler.renderAuthPage(c, "reset_password", fiber.StatusOK, fiber.Map{
		"Form":    models.ResetPasswordForm{Email: email},
		"Notices": flash.Notices,
	})
}

func (handler *Handler) ResetPassword(c *fiber.Ctx) error {
	form := models.ResetPasswordForm{
		Email:           c.FormValue("email"),
		OTP:             c.FormValue("otp"),
		NewPassword:     c.FormValue("newPassword"),
		ConfirmPassword: c.FormValue("confirmPassword"),
	}
	if _, err := handler.auth.ResetPassword(c.UserContext(), form); err != nil {
		echo := models.ResetPasswordForm{Email: form.Email, OTP: form.OTP}
		return handler.renderAuthFailure(c, "reset_password", echo, err, nil)
	}

	flash := flashNotice(wizard.NotifySuccess, "auth.notice.password_reset")
	flash.Email = form.Email
	handler.setFlashCookie(c, flash)
	return redirectOrJSON(c, "/login")
}

// Logout forgets the credential and the cached wizard state.
func (handler *Handler) Logout(c *fiber.Ctx) error {
	session := currentSession(c)
	if session.Status != services.SessionAnonymous {
		handler.onboarding.Discard(c.UserContext(), session)
	}
	handler.clearCredentialCookie(c)
	return redirectOrJSON(c, "/login")
}

func (handler *Handler) renderAuthPage(c *fiber.Ctx, page string, status int, data fiber.Map) error {
	data["Title"] = localizedPageTitle(currentMessages(c), "meta.title."+page, "4Trades")
	c.Status(status)
	return handler.render(c, page, data)
}

func (handler *Handler) renderAuthFailure(c *fiber.Ctx, page string, form any, err error, extra fiber.Map) error {
	data := fiber.Map{"Form": form}
	for key, value := range extra {
		data[key] = value
	}

	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		data["Errors"] = fieldErrs
		return handler.renderAuthPage(c, page, fiber.StatusUnprocessableEntity, data)
	case errors.Is(err, services.ErrInvalidCredentials):
		data["FormError"] = "auth.error.invalid_credentials"
		return handler.renderAuthPage(c, page, fiber.StatusUnauthorized, data)
	case errors.Is(err, services.ErrEmailTaken):
		data["FormError"] = "auth.error.email_taken"
		return handler.renderAuthPage(c, page, fiber.StatusConflict, data)
	case errors.Is(err, services.ErrResetCodeInvalid):
		data["FormError"] = "auth.error.invalid_code"
		return handler.renderAuthPage(c, page, fiber.StatusBadRequest, data)
	case errors.Is(err, services.ErrTooManyRequests):
		data["FormError"] = "auth.error.too_many_requests"
		return handler.renderAuthPage(c, page, fiber.StatusTooManyRequests, data)
	default:
		handler.logger.Warn("auth request failed", zap.String("page", page), zap.Error(err))
		data["FormError"] = "auth.error.unavailable"
		return handler.renderAuthPage(c, page, fiber.StatusBadGateway, data)
	}
}
