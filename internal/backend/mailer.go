package backend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer delivers password reset codes.
type Mailer interface {
	SendResetCode(ctx context.Context, to string, code string, expiresIn time.Duration) error
}

type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPMailer struct {
	settings SMTPSettings
	dialer   *gomail.Dialer
}

func NewSMTPMailer(settings SMTPSettings) *SMTPMailer {
	return &SMTPMailer{
		settings: settings,
		dialer:   gomail.NewDialer(settings.Host, settings.Port, settings.Username, settings.Password),
	}
}

func (mailer *SMTPMailer) SendResetCode(ctx context.Context, to string, code string, expiresIn time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	message := buildResetMessage(mailer.settings.From, to, code, expiresIn)
	if err := mailer.dialer.DialAndSend(message); err != nil {
		return fmt.Errorf("send reset code: %w", err)
	}
	return nil
}

func buildResetMessage(from string, to string, code string, expiresIn time.Duration) *gomail.Message {
	message := gomail.NewMessage()
	message.SetHeader("From", from)
	message.SetHeader("To", to)
	message.SetHeader("Subject", "Your 4Trades password reset code")
	message.SetBody("text/plain", fmt.Sprintf(
		"Your password reset code is %s.\n\nThe code expires in %d minutes. If you did not ask for a reset you can ignore this message.\n",
		code, int(expiresIn.Minutes()),
	))
	return message
}

// LogMailer writes reset codes to the log. It is used when no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger.Named("mailer")}
}

func (mailer *LogMailer) SendResetCode(_ context.Context, to string, code string, expiresIn time.Duration) error {
	mailer.logger.Info("password reset code issued",
		zap.String("to", to),
		zap.String("code", code),
		zap.Duration("expires_in", expiresIn),
	)
	return nil
}
