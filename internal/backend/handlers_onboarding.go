package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dougwhitewolff/vasop-client/internal/db"
	"github.com/dougwhitewolff/vasop-client/internal/metrics"
	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/security"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxPreviewTextLength = 500

func (server *Server) SaveDraft(c *fiber.Ctx) error {
	var payload remote.DraftPayload
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if payload.CollectionFields != nil && len(payload.CollectionFields.CustomFields) > models.MaxCustomFields {
		return apiError(c, fiber.StatusBadRequest, fmt.Sprintf("At most %d custom questions are allowed", models.MaxCustomFields))
	}

	account := currentAccount(c)
	record, err := server.repos.Submissions.SaveDraft(account.ID, payload.Draft(), server.now().UTC())
	if errors.Is(err, db.ErrSubmissionLocked) {
		return apiError(c, fiber.StatusConflict, "Onboarding already submitted")
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Progress saved",
		"currentStep": record.CurrentStep,
		"lastSavedAt": record.LastSavedAt,
	})
}

func (server *Server) MySubmission(c *fiber.Ctx) error {
	account := currentAccount(c)
	record, err := server.repos.Submissions.FindByAccountID(account.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(remote.MySubmissionResponse{})
	}
	if err != nil {
		return err
	}

	draft := db.DraftFromSubmission(record)
	return c.JSON(remote.MySubmissionResponse{Submission: &remote.SubmissionRecord{
		DraftPayload: remote.PayloadFromDraft(draft),
		IsSubmitted:  draft.IsSubmitted,
		SubmissionID: draft.SubmissionID,
		SubmittedAt:  draft.SubmittedAt,
		LastSavedAt:  draft.LastSavedAt,
	}})
}

// Submit accepts the final application once. Later submits return the
// original receipt.
func (server *Server) Submit(c *fiber.Ctx) error {
	violations, err := validateSubmissionBody(c.Body())
	if err != nil {
		metrics.SubmissionsReceived.WithLabelValues("invalid").Inc()
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if len(violations) > 0 {
		metrics.SubmissionsReceived.WithLabelValues("invalid").Inc()
		return validationError(c, describeViolations(violations), violations)
	}

	var payload remote.DraftPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	draft := payload.Draft()
	if fieldErrs := server.validateDraft(draft); len(fieldErrs) > 0 {
		metrics.SubmissionsReceived.WithLabelValues("invalid").Inc()
		return validationError(c, "Invalid submission", fieldErrs)
	}

	now := server.now().UTC()
	submissionID, err := security.NewSubmissionID(now)
	if err != nil {
		return err
	}

	account := currentAccount(c)
	record, created, err := server.repos.Submissions.Submit(account.ID, draft, submissionID, now)
	if err != nil {
		return err
	}

	message := "Onboarding submitted successfully"
	if created {
		metrics.SubmissionsReceived.WithLabelValues("created").Inc()
		server.logger.Info("onboarding submitted",
			zap.String("account_id", account.PublicID),
			zap.String("submission_id", record.SubmissionID),
		)
	} else {
		metrics.SubmissionsReceived.WithLabelValues("duplicate").Inc()
		message = "Onboarding already submitted"
	}

	submittedAt := now
	if record.SubmittedAt != nil {
		submittedAt = *record.SubmittedAt
	}
	return c.JSON(remote.SubmitResponse{
		Success:      true,
		Message:      message,
		SubmissionID: record.SubmissionID,
		SubmittedAt:  submittedAt,
	})
}

// validateDraft runs the wizard rule tables over every submitted slice,
// prefixing field paths with the slice name.
func (server *Server) validateDraft(draft models.OnboardingDraft) map[string]string {
	fieldErrs := make(map[string]string)
	collect := func(prefix string, value any) {
		for path, message := range server.engine.Validate(value) {
			fieldErrs[prefix+"."+path] = message
		}
	}

	if draft.BusinessProfile != nil {
		collect("businessProfile", draft.BusinessProfile.Normalized())
	}
	if draft.VoiceAgent != nil {
		collect("voiceAgentConfig", draft.VoiceAgent.Normalized())
	}
	if draft.CollectionFields != nil {
		collect("collectionFields", draft.CollectionFields.Normalized())
	}
	if draft.EmergencyHandling != nil {
		collect("emergencyHandling", draft.EmergencyHandling.Normalized())
	}
	if emailConfig := draft.EmailConfig(); emailConfig != nil {
		collect("emailConfig", emailConfig.Normalized())
	}
	return fieldErrs
}

// PreviewVoice forwards the text to the configured text-to-speech upstream
// and streams the audio back.
func (server *Server) PreviewVoice(c *fiber.Ctx) error {
	var request remote.PreviewVoiceRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	request.Text = strings.TrimSpace(request.Text)
	if request.Text == "" || len(request.Text) > maxPreviewTextLength {
		return apiError(c, fiber.StatusBadRequest, "Preview text is required and must be at most 500 characters")
	}
	if !models.IsKnownVoice(request.Voice) {
		return apiError(c, fiber.StatusBadRequest, "Unknown voice")
	}

	audio, contentType, err := server.synthesize(c, request)
	if errors.Is(err, errPreviewUnavailable) {
		return apiError(c, fiber.StatusServiceUnavailable, "Voice preview is not available")
	}
	if err != nil {
		server.logger.Warn("voice preview upstream failed", zap.Error(err))
		return apiError(c, fiber.StatusBadGateway, "Voice preview failed")
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(audio)
}

func (server *Server) synthesize(c *fiber.Ctx, request remote.PreviewVoiceRequest) ([]byte, string, error) {
	upstream := strings.TrimSpace(server.options.TTSUpstreamURL)
	if upstream == "" {
		return nil, "", errPreviewUnavailable
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, "", err
	}
	upstreamRequest, err := http.NewRequestWithContext(c.UserContext(), http.MethodPost, upstream, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	upstreamRequest.Header.Set("Content-Type", "application/json")

	response, err := server.httpClient.Do(upstreamRequest)
	if err != nil {
		return nil, "", err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("tts upstream status %d", response.StatusCode)
	}
	audio, err := io.ReadAll(io.LimitReader(response.Body, 10<<20))
	if err != nil {
		return nil, "", err
	}
	contentType := response.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return audio, contentType, nil
}
