package api

import (
	"errors"

	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (handler *Handler) Root(c *fiber.Ctx) error {
	if currentSession(c).Status == services.SessionAnonymous {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return c.Redirect("/onboarding", fiber.StatusSeeOther)
}

// ShowProgress summarizes the saved record after Save & Exit.
func (handler *Handler) ShowProgress(c *fiber.Ctx, session services.Session) error {
	view, err := handler.onboarding.Progress(c.UserContext(), session)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNoDraft):
		return c.Redirect("/onboarding", fiber.StatusSeeOther)
	case errors.Is(err, services.ErrDraftComplete):
		return c.Redirect("/status", fiber.StatusSeeOther)
	default:
		return handler.remotePageFailure(c, session, "progress", err)
	}

	return handler.render(c, "progress", fiber.Map{
		"Title":        localizedPageTitle(currentMessages(c), "meta.title.progress", "4Trades | Your Progress"),
		"Summary":      view.Summary,
		"BusinessName": view.BusinessName,
		"LastSavedAt":  view.LastSavedAt,
		"Notices":      handler.popFlashCookie(c).Notices,
	})
}

func (handler *Handler) ShowStatus(c *fiber.Ctx, session services.Session) error {
	view, err := handler.onboarding.Status(c.UserContext(), session)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrDraftPending):
		return c.Redirect("/onboarding", fiber.StatusSeeOther)
	default:
		return handler.remotePageFailure(c, session, "status", err)
	}

	return handler.render(c, "status", fiber.Map{
		"Title":        localizedPageTitle(currentMessages(c), "meta.title.status", "4Trades | Submission Status"),
		"SubmissionID": view.SubmissionID,
		"SubmittedAt":  view.SubmittedAt,
		"BusinessName": view.BusinessName,
		"Draft":        view.Draft,
		"Notices":      handler.popFlashCookie(c).Notices,
	})
}

func (handler *Handler) remotePageFailure(c *fiber.Ctx, session services.Session, page string, err error) error {
	if remote.IsUnauthorized(err) {
		return handler.endSession(c, session)
	}
	handler.logger.Warn("page data unavailable", zap.String("page", page), zap.Error(err))
	c.Status(fiber.StatusBadGateway)
	return handler.render(c, "unavailable", fiber.Map{
		"Title": localizedPageTitle(currentMessages(c), "meta.title.unavailable", "4Trades | Please wait"),
	})
}
