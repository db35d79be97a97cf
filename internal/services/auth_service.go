package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/validation"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrResetCodeInvalid   = errors.New("invalid or expired reset code")
	ErrTooManyRequests    = errors.New("too many requests")
)

type AuthClient interface {
	Signup(ctx context.Context, request remote.SignupRequest) (remote.AuthResponse, error)
	Login(ctx context.Context, request remote.LoginRequest) (remote.AuthResponse, error)
	ForgotPassword(ctx context.Context, request remote.ForgotPasswordRequest) (remote.MessageResponse, error)
	ResetPassword(ctx context.Context, request remote.ResetPasswordRequest) (remote.MessageResponse, error)
}

// AuthService validates auth forms locally before anything reaches the backend.
// Field problems come back as validation.FieldErrors.
type AuthService struct {
	client AuthClient
	engine *validation.Engine
	logger *zap.Logger
}

func NewAuthService(client AuthClient, engine *validation.Engine, logger *zap.Logger) *AuthService {
	if engine == nil {
		engine = validation.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{client: client, engine: engine, logger: logger.Named("auth")}
}

func (service *AuthService) Login(ctx context.Context, form models.LoginForm) (Credential, error) {
	form = form.Normalized()
	if errs := service.engine.Validate(form); len(errs) > 0 {
		return Credential{}, errs
	}

	response, err := service.client.Login(ctx, remote.LoginRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		return Credential{}, service.classify("login", err, map[int]error{
			http.StatusUnauthorized: ErrInvalidCredentials,
			http.StatusBadRequest:   ErrInvalidCredentials,
		})
	}
	return Credential{Token: response.Token, User: response.User}, nil
}

func (service *AuthService) Signup(ctx context.Context, form models.SignupForm) (Credential, error) {
	form = form.Normalized()
	if errs := service.engine.Validate(form); len(errs) > 0 {
		return Credential{}, errs
	}

	response, err := service.client.Signup(ctx, remote.SignupRequest{
		Name:     form.Name,
		Email:    form.Email,
		Phone:    form.Phone,
		Password: form.Password,
	})
	if err != nil {
		return Credential{}, service.classify("signup", err, map[int]error{
			http.StatusConflict: ErrEmailTaken,
		})
	}
	return Credential{Token: response.Token, User: response.User}, nil
}

// ForgotPassword asks the backend to mail a reset code. The answer does not
// reveal whether the address has an account.
func (service *AuthService) ForgotPassword(ctx context.Context, form models.ForgotPasswordForm) (string, error) {
	form = form.Normalized()
	if errs := service.engine.Validate(form); len(errs) > 0 {
		return "", errs
	}

	response, err := service.client.ForgotPassword(ctx, remote.ForgotPasswordRequest{Email: form.Email})
	if err != nil {
		return "", service.classify("forgot_password", err, nil)
	}
	return response.Message, nil
}

func (service *AuthService) ResetPassword(ctx context.Context, form models.ResetPasswordForm) (string, error) {
	form = form.Normalized()
	if errs := service.engine.Validate(form); len(errs) > 0 {
		return "", errs
	}

	response, err := service.client.ResetPassword(ctx, remote.ResetPasswordRequest{
		Email:       form.Email,
		OTP:         form.OTP,
		NewPassword: form.NewPassword,
	})
	if err != nil {
		return "", service.classify("reset_password", err, map[int]error{
			http.StatusBadRequest: ErrResetCodeInvalid,
			http.StatusNotFound:   ErrResetCodeInvalid,
		})
	}
	return response.Message, nil
}

func (service *AuthService) classify(op string, err error, byStatus map[int]error) error {
	status := remote.StatusOf(err)
	if status == http.StatusTooManyRequests {
		return ErrTooManyRequests
	}
	if mapped, ok := byStatus[status]; ok {
		return mapped
	}
	service.logger.Warn("auth request failed", zap.String("operation", op), zap.Error(err))
	return err
}
