package backend

import (
	"errors"
	"strings"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/security"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func (server *Server) Signup(c *fiber.Ctx) error {
	var request remote.SignupRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	form := models.SignupForm{
		Name:            request.Name,
		Email:           request.Email,
		Phone:           request.Phone,
		Password:        request.Password,
		ConfirmPassword: request.Password,
	}.Normalized()
	if errs := server.engine.Validate(form); len(errs) > 0 {
		return validationError(c, "Invalid signup details", errs)
	}

	exists, err := server.repos.Accounts.ExistsByNormalizedEmail(form.Email)
	if err != nil {
		return err
	}
	if exists {
		return apiError(c, fiber.StatusConflict, "User already exists")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	account := models.Account{
		PublicID:     uuid.NewString(),
		Name:         form.Name,
		Email:        form.Email,
		Phone:        form.Phone,
		PasswordHash: string(passwordHash),
		CreatedAt:    server.now().UTC(),
	}
	if err := server.repos.Accounts.Create(&account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return apiError(c, fiber.StatusConflict, "User already exists")
		}
		return err
	}

	server.logger.Info("account created", zap.String("account_id", account.PublicID))
	return server.respondWithToken(c, fiber.StatusCreated, account)
}

func (server *Server) Login(c *fiber.Ctx) error {
	var request remote.LoginRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	form := models.LoginForm{Email: request.Email, Password: request.Password}.Normalized()
	if errs := server.engine.Validate(form); len(errs) > 0 {
		return validationError(c, "Invalid credentials", errs)
	}

	now := server.now()
	if server.loginLimiter.TooManyRecent(form.Email, now) {
		return apiError(c, fiber.StatusTooManyRequests, "Too many login attempts, try again later")
	}

	account, err := server.repos.Accounts.FindByNormalizedEmail(form.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err != nil || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(form.Password)) != nil {
		server.loginLimiter.Record(form.Email, now)
		return apiError(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	server.loginLimiter.Reset(form.Email)
	return server.respondWithToken(c, fiber.StatusOK, account)
}

func (server *Server) Me(c *fiber.Ctx) error {
	account := currentAccount(c)
	return c.JSON(remote.MeResponse{User: account.Identity()})
}

// ForgotPassword answers the same way whether or not the email has an account.
func (server *Server) ForgotPassword(c *fiber.Ctx) error {
	var request remote.ForgotPasswordRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	form := models.ForgotPasswordForm{Email: request.Email}.Normalized()
	if errs := server.engine.Validate(form); len(errs) > 0 {
		return validationError(c, "Invalid email address", errs)
	}
	if !server.forgotLimiter.Allow(form.Email, server.now()) {
		return apiError(c, fiber.StatusTooManyRequests, "Too many reset requests, try again later")
	}

	account, err := server.repos.Accounts.FindByNormalizedEmail(form.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(remote.MessageResponse{Success: true, Message: genericForgotPasswordOK})
	}
	if err != nil {
		return err
	}

	code, err := security.NumericCode(6)
	if err != nil {
		return err
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := server.now().UTC()
	reset := models.PasswordReset{
		AccountID: account.ID,
		CodeHash:  string(codeHash),
		ExpiresAt: now.Add(server.options.OTPTTL),
		CreatedAt: now,
	}
	if err := server.repos.PasswordResets.Replace(&reset); err != nil {
		return err
	}
	if err := server.mailer.SendResetCode(c.UserContext(), account.Email, code, server.options.OTPTTL); err != nil {
		server.logger.Error("reset code delivery failed", zap.String("account_id", account.PublicID), zap.Error(err))
		return apiError(c, fiber.StatusBadGateway, "Failed to send reset email")
	}

	return c.JSON(remote.MessageResponse{Success: true, Message: genericForgotPasswordOK})
}

func (server *Server) ResetPassword(c *fiber.Ctx) error {
	var request remote.ResetPasswordRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	form := models.ResetPasswordForm{
		Email:           request.Email,
		OTP:             request.OTP,
		NewPassword:     request.NewPassword,
		ConfirmPassword: request.NewPassword,
	}.Normalized()
	if errs := server.engine.Validate(form); len(errs) > 0 {
		return validationError(c, "Invalid reset details", errs)
	}

	account, err := server.repos.Accounts.FindByNormalizedEmail(form.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apiError(c, fiber.StatusBadRequest, "Invalid or expired OTP")
	}
	if err != nil {
		return err
	}

	now := server.now().UTC()
	reset, err := server.repos.PasswordResets.FindActive(account.ID, now)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apiError(c, fiber.StatusBadRequest, "Invalid or expired OTP")
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(reset.CodeHash), []byte(form.OTP)) != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid or expired OTP")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(form.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := server.repos.PasswordResets.ConsumeAndSetPassword(reset.ID, account.ID, string(passwordHash), now); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError(c, fiber.StatusBadRequest, "Invalid or expired OTP")
		}
		return err
	}

	server.logger.Info("password reset", zap.String("account_id", account.PublicID))
	return c.JSON(remote.MessageResponse{Success: true, Message: "Password reset successfully"})
}

func (server *Server) respondWithToken(c *fiber.Ctx, status int, account models.Account) error {
	token, err := BuildAccessToken(server.options.SecretKey, account.PublicID, account.PasswordHash, server.options.TokenTTL, server.now())
	if err != nil {
		return err
	}
	return c.Status(status).JSON(remote.AuthResponse{Token: token, User: account.Identity()})
}

// requireAccount resolves the bearer token to an account. A token issued
// before the latest password change is refused.
func (server *Server) requireAccount(c *fiber.Ctx) error {
	claims, err := ParseAccessToken(server.options.SecretKey, bearerToken(c), server.now())
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	account, err := server.repos.Accounts.FindByPublicID(claims.Subject)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apiError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if err != nil {
		return err
	}
	if !passwordStateMatches(claims.PasswordState, account.PasswordHash) {
		return apiError(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	c.Locals(accountLocalsKey, account)
	return c.Next()
}

func currentAccount(c *fiber.Ctx) models.Account {
	account, _ := c.Locals(accountLocalsKey).(models.Account)
	return account
}
