package api

import (
	"strings"
	"unicode/utf8"

	"github.com/dougwhitewolff/vasop-client/internal/metrics"
	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/services"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const maxVoicePreviewText = 500

// PreviewSummaryEmail re-renders the email preview from the collection form
// as the user toggles fields.
func (handler *Handler) PreviewSummaryEmail(c *fiber.Ctx, _ services.Session) error {
	fields := decodeCollectionFields(c).Normalized()
	return handler.renderPartial(c, "summary_email_preview", fiber.Map{
		"SummaryPreview": wizard.SummaryEmailPreview(fields),
	})
}

func (handler *Handler) PreviewVoice(c *fiber.Ctx, session services.Session) error {
	if handler.voice == nil {
		return apiError(c, fiber.StatusServiceUnavailable, "voice.error.unavailable")
	}
	if handler.voiceLimiter != nil && !handler.voiceLimiter.Allow(session.CacheKey()) {
		metrics.VoicePreviewsThrottled.Inc()
		c.Set("Retry-After", "1")
		return apiError(c, fiber.StatusTooManyRequests, "voice.error.too_many_requests")
	}

	request := remote.PreviewVoiceRequest{
		Text:  strings.TrimSpace(c.FormValue("text")),
		Voice: strings.TrimSpace(c.FormValue("voice")),
	}
	if request.Text == "" {
		request.Text = wizard.GenerateGreeting(c.FormValue("agentPersonality"), "", c.FormValue("agentName"))
	}
	if utf8.RuneCountInString(request.Text) > maxVoicePreviewText {
		return apiError(c, fiber.StatusBadRequest, "voice.error.text_too_long")
	}
	if !models.IsKnownVoice(request.Voice) {
		return apiError(c, fiber.StatusBadRequest, "voice.error.unknown_voice")
	}

	audio, contentType, err := handler.voice.PreviewVoice(c.UserContext(), session.Token, request)
	if err != nil {
		if remote.IsUnauthorized(err) {
			handler.onboarding.Discard(c.UserContext(), session)
			handler.clearCredentialCookie(c)
			return apiError(c, fiber.StatusUnauthorized, "auth.error.unauthorized")
		}
		handler.logger.Warn("voice preview failed", zap.String("voice", request.Voice), zap.Error(err))
		return apiError(c, fiber.StatusBadGateway, "voice.error.unavailable")
	}

	if contentType == "" {
		contentType = "audio/mpeg"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(audio)
}
