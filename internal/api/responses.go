package api

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// redirectOrJSON sends the client to path in whatever form it understands:
// an HX-Redirect header, a JSON body or a 303.
func redirectOrJSON(c *fiber.Ctx, path string) error {
	switch {
	case isHTMX(c):
		c.Set("HX-Redirect", path)
		return c.SendStatus(fiber.StatusOK)
	case acceptsJSON(c):
		return c.JSON(fiber.Map{"ok": true, "redirect": path})
	default:
		return c.Redirect(path, fiber.StatusSeeOther)
	}
}

func apiError(c *fiber.Ctx, status int, key string) error {
	message := translateMessage(currentMessages(c), key)
	if isHTMX(c) {
		return sendStatusFragment(c, status, message)
	}
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func sendStatusFragment(c *fiber.Ctx, status int, message string) error {
	c.Type("html", "utf-8")
	return c.Status(status).SendString(fmt.Sprintf(`<div class="status-error">%s</div>`, template.HTMLEscapeString(message)))
}

func acceptsJSON(c *fiber.Ctx) bool {
	return strings.Contains(strings.ToLower(c.Get(fiber.HeaderAccept)), fiber.MIMEApplicationJSON)
}

func isHTMX(c *fiber.Ctx) bool {
	return strings.EqualFold(c.Get("HX-Request"), "true")
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals("csrf").(string)
	return token
}

// sanitizeRedirectPath keeps next= targets on this site: a rooted path with no
// scheme, no host and no backslash tricks.
func sanitizeRedirectPath(raw string, fallback string) string {
	candidate := strings.TrimSpace(raw)
	if !strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "//") || strings.Contains(candidate, `\`) {
		return fallback
	}
	parsed, err := url.Parse(candidate)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return fallback
	}
	return candidate
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// NotFound runs without a session lookup, so it only checks whether a
// credential cookie opens to pick the link it offers.
func (handler *Handler) NotFound(c *fiber.Ctx) error {
	if acceptsJSON(c) {
		return apiError(c, fiber.StatusNotFound, "not_found.title")
	}
	if isHTMX(c) {
		return sendStatusFragment(c, fiber.StatusNotFound, localizedPageTitle(currentMessages(c), "not_found.title", "Page not found"))
	}

	primaryPath, primaryLabelKey := "/login", "not_found.action_login"
	if handler.readCredentialCookie(c) != nil {
		primaryPath, primaryLabelKey = "/onboarding", "not_found.action_onboarding"
	}

	c.Status(fiber.StatusNotFound)
	return handler.render(c, "not_found", fiber.Map{
		"Title":           localizedPageTitle(currentMessages(c), "meta.title.not_found", "4Trades | Page Not Found"),
		"PrimaryPath":     primaryPath,
		"PrimaryLabelKey": primaryLabelKey,
	})
}
