package api

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/services"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"github.com/gofiber/fiber/v2"
)

type FlashNotice struct {
	Level wizard.NotifyLevel `json:"level"`
	Key   string             `json:"key"`
}

// FlashPayload survives exactly one redirect.
type FlashPayload struct {
	Notices []FlashNotice `json:"notices,omitempty"`
	Email   string        `json:"email,omitempty"`
}

func (payload FlashPayload) empty() bool {
	return len(payload.Notices) == 0 && payload.Email == ""
}

func flashFromNotifications(notifications []services.Notification) FlashPayload {
	payload := FlashPayload{}
	for _, notification := range notifications {
		payload.Notices = append(payload.Notices, FlashNotice{Level: notification.Level, Key: notification.Key})
	}
	return payload
}

func flashNotice(level wizard.NotifyLevel, key string) FlashPayload {
	return FlashPayload{Notices: []FlashNotice{{Level: level, Key: key}}}
}

func (handler *Handler) setFlashCookie(c *fiber.Ctx, payload FlashPayload) {
	payload.Email = models.NormalizeEmail(payload.Email)
	if payload.empty() {
		return
	}

	serialized, err := json.Marshal(payload)
	if err != nil {
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     FlashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(serialized),
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().Add(5 * time.Minute),
	})
}

func (handler *Handler) popFlashCookie(c *fiber.Ctx) FlashPayload {
	raw := strings.TrimSpace(c.Cookies(FlashCookieName))
	if raw == "" {
		return FlashPayload{}
	}
	handler.clearFlashCookie(c)

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return FlashPayload{}
	}

	payload := FlashPayload{}
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return FlashPayload{}
	}
	payload.Email = models.NormalizeEmail(payload.Email)
	return payload
}

func (handler *Handler) clearFlashCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     FlashCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
