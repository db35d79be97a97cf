package api

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the public endpoints without a session lookup; only
// page and wizard routes resolve the credential against the remote.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", health)
	app.Get("/favicon.ico", sendNoContent)
	app.Get("/lang/:lang", handler.SetLanguage)

	registerPageRoutes(app, handler)
	registerWizardRoutes(app, handler)
}

func registerPageRoutes(app *fiber.App, handler *Handler) {
	withSession := handler.SessionMiddleware

	app.Get("/", withSession, handler.Root)
	app.Get("/login", withSession, handler.guestOnly, handler.ShowLoginPage)
	app.Post("/login", withSession, handler.guestOnly, handler.Login)
	app.Get("/signup", withSession, handler.guestOnly, handler.ShowSignupPage)
	app.Post("/signup", withSession, handler.guestOnly, handler.Signup)
	app.Get("/forgot-password", withSession, handler.guestOnly, handler.ShowForgotPasswordPage)
	app.Post("/forgot-password", withSession, handler.guestOnly, handler.ForgotPassword)
	app.Get("/reset-password", withSession, handler.guestOnly, handler.ShowResetPasswordPage)
	app.Post("/reset-password", withSession, handler.guestOnly, handler.ResetPassword)
	app.Post("/logout", withSession, handler.Logout)

	app.Get("/progress", withSession, handler.protected(handler.ShowProgress))
	app.Get("/status", withSession, handler.protected(handler.ShowStatus))
}

func registerWizardRoutes(app *fiber.App, handler *Handler) {
	onboarding := app.Group("/onboarding", handler.SessionMiddleware)
	onboarding.Get("", handler.protected(handler.ShowOnboarding))
	onboarding.Post("/step/:step", handler.protected(handler.SubmitStep))
	onboarding.Post("/back", handler.protected(handler.GoBack))
	onboarding.Post("/jump/:step", handler.protected(handler.JumpToStep))
	onboarding.Post("/submit", handler.protected(handler.SubmitOnboarding))
	onboarding.Post("/preview/summary-email", handler.protected(handler.PreviewSummaryEmail))
	onboarding.Post("/preview-voice", handler.protected(handler.PreviewVoice))
}
