package api

import (
	"github.com/dougwhitewolff/vasop-client/internal/services"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"github.com/gofiber/fiber/v2"
)

// SessionMiddleware resolves the credential cookie once per request. Only an
// authentication failure drops the cookie.
func (handler *Handler) SessionMiddleware(c *fiber.Ctx) error {
	credential := handler.readCredentialCookie(c)
	if credential == nil && c.Cookies(authCookieName) != "" {
		handler.clearCredentialCookie(c)
	}

	session, clear := handler.sessions.Resolve(c.UserContext(), credential)
	if clear {
		handler.clearCredentialCookie(c)
	}
	c.Locals(contextSessionKey, session)
	return c.Next()
}

func currentSession(c *fiber.Ctx) services.Session {
	session, ok := c.Locals(contextSessionKey).(services.Session)
	if !ok {
		return services.Session{Status: services.SessionAnonymous}
	}
	return session
}

type protectedHandler func(c *fiber.Ctx, session services.Session) error

// protected hands the resolved session to next, or sends the visitor to the
// login page.
func (handler *Handler) protected(next protectedHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := currentSession(c)
		switch session.Status {
		case services.SessionAuthenticated:
			return next(c, session)
		case services.SessionLoading:
			c.Status(fiber.StatusServiceUnavailable)
			return handler.render(c, "unavailable", fiber.Map{
				"Title": localizedPageTitle(currentMessages(c), "meta.title.unavailable", "4Trades | Please wait"),
			})
		default:
			if acceptsJSON(c) {
				return apiError(c, fiber.StatusUnauthorized, "auth.error.unauthorized")
			}
			return redirectOrJSON(c, "/login")
		}
	}
}

// guestOnly keeps signed-in users away from the auth pages.
func (handler *Handler) guestOnly(c *fiber.Ctx) error {
	if currentSession(c).Authenticated() {
		return redirectOrJSON(c, "/onboarding")
	}
	return c.Next()
}

// endSession drops every piece of client-side state after the backend
// rejected the credential.
func (handler *Handler) endSession(c *fiber.Ctx, session services.Session) error {
	handler.onboarding.Discard(c.UserContext(), session)
	handler.clearCredentialCookie(c)
	handler.setFlashCookie(c, flashNotice(wizard.NotifyInfo, "auth.notice.session_expired"))
	return redirectOrJSON(c, "/login")
}
