package api

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// render executes a full page through the shared "base" layout.
func (handler *Handler) render(c *fiber.Ctx, page string, data fiber.Map) error {
	return handler.execute(c, handler.templates[page], page, "base", data)
}

// renderPartial executes a fragment for HTMX swaps; the entry point is the
// template named after the partial itself.
func (handler *Handler) renderPartial(c *fiber.Ctx, name string, data fiber.Map) error {
	return handler.execute(c, handler.partials[name], name, name, data)
}

func (handler *Handler) execute(c *fiber.Ctx, set *template.Template, name string, entry string, data fiber.Map) error {
	if set == nil {
		handler.logger.Error("unknown template", zap.String("template", name))
		return c.Status(fiber.StatusInternalServerError).SendString("template not found")
	}

	var output bytes.Buffer
	if err := set.ExecuteTemplate(&output, entry, handler.withTemplateDefaults(c, data)); err != nil {
		handler.logger.Error("render template", zap.String("template", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).SendString("failed to render template")
	}
	c.Type("html", "utf-8")
	return c.Send(output.Bytes())
}

// withTemplateDefaults fills the keys every layout reads unless the handler
// already set them.
func (handler *Handler) withTemplateDefaults(c *fiber.Ctx, data fiber.Map) fiber.Map {
	if data == nil {
		data = fiber.Map{}
	}
	messages := currentMessages(c)

	language := currentLanguage(c)
	if language == "" {
		language = handler.i18n.DefaultLanguage()
	}

	defaults := fiber.Map{
		"Messages":    messages,
		"Lang":        language,
		"Languages":   handler.i18n.SupportedLanguages(),
		"CurrentPath": currentPathWithQuery(c),
		"CSRFToken":   csrfToken(c),
		"Session":     currentSession(c),
		"Title":       localizedPageTitle(messages, "meta.title.default", "4Trades Voice Agent Setup"),
	}
	for key, value := range defaults {
		if _, set := data[key]; !set {
			data[key] = value
		}
	}
	return data
}

func currentPathWithQuery(c *fiber.Ctx) string {
	if uri := string(c.Request().URI().RequestURI()); uri != "" {
		return uri
	}
	return c.Path()
}
