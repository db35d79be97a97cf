package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

func translateMessage(messages map[string]string, key string) string {
	if key == "" {
		return ""
	}
	if messages != nil {
		if value, ok := messages[key]; ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return key
}

func currentMessages(c *fiber.Ctx) map[string]string {
	messages, ok := c.Locals(contextMessagesKey).(map[string]string)
	if !ok || messages == nil {
		return map[string]string{}
	}
	return messages
}

func currentLanguage(c *fiber.Ctx) string {
	language, _ := c.Locals(contextLanguageKey).(string)
	return language
}

func localizedPageTitle(messages map[string]string, key string, fallback string) string {
	if title := translateMessage(messages, key); title != key {
		return title
	}
	return fallback
}

// LanguageMiddleware resolves the UI language once per request. An explicit
// cookie wins over Accept-Language, and the cookie is rewritten whenever it
// is missing or names an unsupported language.
func (handler *Handler) LanguageMiddleware(c *fiber.Ctx) error {
	language := handler.requestLanguage(c)
	c.Locals(contextLanguageKey, language)
	c.Locals(contextMessagesKey, handler.i18n.Messages(language))
	return c.Next()
}

func (handler *Handler) requestLanguage(c *fiber.Ctx) string {
	stored := c.Cookies(languageCookieName)
	if stored == "" {
		language := handler.i18n.DetectFromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
		handler.writeLanguageCookie(c, language)
		return language
	}

	language := handler.i18n.NormalizeLanguage(stored)
	if language != stored {
		handler.writeLanguageCookie(c, language)
	}
	return language
}

// SetLanguage stores the chosen language and returns to the page the switcher
// was clicked on.
func (handler *Handler) SetLanguage(c *fiber.Ctx) error {
	handler.writeLanguageCookie(c, handler.i18n.NormalizeLanguage(c.Params("lang")))
	return c.Redirect(sanitizeRedirectPath(c.Query("next"), "/"), fiber.StatusSeeOther)
}

func (handler *Handler) writeLanguageCookie(c *fiber.Ctx, language string) {
	c.Cookie(&fiber.Cookie{
		Name:     languageCookieName,
		Value:    language,
		Path:     "/",
		Secure:   handler.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().AddDate(1, 0, 0),
	})
}
