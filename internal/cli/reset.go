package cli

import (
	"errors"
	"fmt"
	"io"
	"net/mail"

	"github.com/dougwhitewolff/vasop-client/internal/db"
	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/security"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const temporaryPasswordLength = 12

// RunResetPasswordCommand replaces an embedded-backend account password with a
// generated one and prints it. Every bearer token issued before the reset
// stops working because the password state changes.
func RunResetPasswordCommand(out io.Writer, dbPath string, email string) error {
	normalizedEmail := models.NormalizeEmail(email)
	if normalizedEmail == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(normalizedEmail); err != nil {
		return fmt.Errorf("invalid email address: %w", err)
	}

	database, err := db.OpenSQLite(dbPath, nil)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	temporaryPassword, err := resetAccountPassword(db.NewAccountRepository(database), normalizedEmail)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "Temporary password: %s\n", temporaryPassword)
	fmt.Fprintln(out, "Share it with the account owner and ask them to reset it from the login page.")
	return nil
}

type accountStore interface {
	FindByNormalizedEmail(email string) (models.Account, error)
	UpdatePassword(accountID uint, passwordHash string) error
}

func resetAccountPassword(accounts accountStore, email string) (string, error) {
	account, err := accounts.FindByNormalizedEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("account %s not found", email)
		}
		return "", fmt.Errorf("load account: %w", err)
	}

	temporaryPassword, err := generateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return "", fmt.Errorf("generate temporary password: %w", err)
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(temporaryPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash temporary password: %w", err)
	}
	if err := accounts.UpdatePassword(account.ID, string(passwordHash)); err != nil {
		return "", fmt.Errorf("update account password: %w", err)
	}
	return temporaryPassword, nil
}

func generateTemporaryPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}

	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	return security.RandomString(length, alphabet)
}
