package api

import (
	"strings"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/services"
	"github.com/gofiber/fiber/v2"
)

const authCookieTTL = 7 * 24 * time.Hour

// setCredentialCookie stores the bearer token and user snapshot sealed, so the
// browser can neither read nor alter them.
func (handler *Handler) setCredentialCookie(c *fiber.Ctx, credential services.Credential) error {
	sealed, err := handler.cookies.sealJSON(authCookiePurpose, credential)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    sealed,
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().Add(authCookieTTL),
	})
	return nil
}

func (handler *Handler) readCredentialCookie(c *fiber.Ctx) *services.Credential {
	raw := strings.TrimSpace(c.Cookies(authCookieName))
	if raw == "" {
		return nil
	}

	credential := &services.Credential{}
	if err := handler.cookies.openJSON(authCookiePurpose, raw, credential); err != nil {
		return nil
	}
	return credential
}

func (handler *Handler) clearCredentialCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Lax",
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
