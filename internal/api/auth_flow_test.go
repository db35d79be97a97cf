package api

import (
	"net/http"
	"net/url"
	"testing"
)

func TestSignupValidationRerendersForm(t *testing.T) {
	client := newWebTestClient(t)

	response := client.postForm("/signup", url.Values{
		"name":            {"Dana Owner"},
		"email":           {"owner@acme.example"},
		"phone":           {"5551234567"},
		"password":        {"correct-horse"},
		"confirmPassword": {"different-horse"},
	})
	assertStatus(t, response, http.StatusUnprocessableEntity)
	assertBodyContains(t, response, "Passwords don&#39;t match", `value="Dana Owner"`)
	if client.cookies[authCookieName] != "" {
		t.Fatal("expected no auth cookie after failed signup")
	}
}

func TestSignupRejectsTakenEmail(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	assertRedirect(t, client.postForm("/logout", url.Values{}), "/login")

	response := client.postForm("/signup", url.Values{
		"name":            {"Dana Owner"},
		"email":           {"OWNER@acme.example"},
		"phone":           {"5551234567"},
		"password":        {"correct-horse"},
		"confirmPassword": {"correct-horse"},
	})
	assertStatus(t, response, http.StatusConflict)
	assertBodyContains(t, response, "An account with this email already exists.")
}

func TestLoginAndLogout(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")

	assertRedirect(t, client.postForm("/logout", url.Values{}), "/login")
	if client.cookies[authCookieName] != "" {
		t.Fatal("expected auth cookie to be cleared on logout")
	}
	assertRedirect(t, client.get("/onboarding"), "/login")

	failed := client.postForm("/login", url.Values{"email": {"owner@acme.example"}, "password": {"wrong-horse"}})
	assertStatus(t, failed, http.StatusUnauthorized)
	assertBodyContains(t, failed, "Invalid email or password.", `value="owner@acme.example"`)

	loggedIn := client.postForm("/login", url.Values{
		"email":    {"owner@acme.example"},
		"password": {"correct-horse"},
		"next":     {"/progress"},
	})
	assertRedirect(t, loggedIn, "/progress")
}

func TestLoginIgnoresForeignRedirect(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	client.postForm("/logout", url.Values{})

	response := client.postForm("/login", url.Values{
		"email":    {"owner@acme.example"},
		"password": {"correct-horse"},
		"next":     {"https://evil.example"},
	})
	assertRedirect(t, response, "/onboarding")
}

func TestForgotAndResetPassword(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	client.postForm("/logout", url.Values{})

	forgot := client.postForm("/forgot-password", url.Values{"email": {"Owner@Acme.example"}})
	assertRedirect(t, forgot, "/reset-password")

	page := client.get("/reset-password")
	assertStatus(t, page, http.StatusOK)
	assertBodyContains(t, page, `value="owner@acme.example"`, "a 6-digit code is on its way")

	code := client.mailer.codeFor("owner@acme.example")
	if len(code) != 6 {
		t.Fatalf("expected a 6-digit reset code, got %q", code)
	}

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rejected := client.postForm("/reset-password", url.Values{
		"email":           {"owner@acme.example"},
		"otp":             {wrong},
		"newPassword":     {"new-horse-battery"},
		"confirmPassword": {"new-horse-battery"},
	})
	assertStatus(t, rejected, http.StatusBadRequest)
	assertBodyContains(t, rejected, "The code is invalid or has expired.")

	reset := client.postForm("/reset-password", url.Values{
		"email":           {"owner@acme.example"},
		"otp":             {code},
		"newPassword":     {"new-horse-battery"},
		"confirmPassword": {"new-horse-battery"},
	})
	assertRedirect(t, reset, "/login")
	assertBodyContains(t, client.get("/login"), "Your password was reset.")

	assertStatus(t, client.postForm("/login", url.Values{
		"email":    {"owner@acme.example"},
		"password": {"correct-horse"},
	}), http.StatusUnauthorized)
	assertRedirect(t, client.postForm("/login", url.Values{
		"email":    {"owner@acme.example"},
		"password": {"new-horse-battery"},
	}), "/onboarding")
}

func TestForgotPasswordForUnknownEmailLooksTheSame(t *testing.T) {
	client := newWebTestClient(t)

	response := client.postForm("/forgot-password", url.Values{"email": {"nobody@acme.example"}})
	assertRedirect(t, response, "/reset-password")
	if code := client.mailer.codeFor("nobody@acme.example"); code != "" {
		t.Fatalf("expected no mail for unknown email, got code %q", code)
	}
}

func TestTamperedAuthCookieIsDropped(t *testing.T) {
	client := newWebTestClient(t)
	client.cookies[authCookieName] = "v1.not-a-real-cookie"

	assertRedirect(t, client.get("/onboarding"), "/login")
	if client.cookies[authCookieName] != "" {
		t.Fatal("expected tampered auth cookie to be cleared")
	}
}

func TestLanguageSwitchTranslatesPages(t *testing.T) {
	client := newWebTestClient(t)

	switched := client.get("/lang/es?next=/login")
	assertRedirect(t, switched, "/login")

	page := client.get("/login")
	assertStatus(t, page, http.StatusOK)
	assertBodyContains(t, page, `lang="es"`, "Iniciar sesión")
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	client := newWebTestClient(t)

	response := client.get("/does-not-exist")
	assertStatus(t, response, http.StatusNotFound)
	assertBodyContains(t, response, "Page not found", `href="/login"`)
}

func TestHealth(t *testing.T) {
	client := newWebTestClient(t)
	response := client.get("/healthz")
	assertStatus(t, response, http.StatusOK)
	assertBodyContains(t, response, `"status":"ok"`)
}

func TestPublicRoutesSkipSessionLookup(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("public-routes@example.com")

	before := client.meCalls.Load()
	assertStatus(t, client.get("/healthz"), http.StatusOK)
	assertStatus(t, client.get("/favicon.ico"), http.StatusNoContent)
	assertRedirect(t, client.get("/lang/es?next=/progress"), "/progress")

	missing := client.get("/does-not-exist")
	assertStatus(t, missing, http.StatusNotFound)
	assertBodyContains(t, missing, `href="/onboarding"`)

	if got := client.meCalls.Load(); got != before {
		t.Fatalf("expected no session lookups on public routes, got %d new", got-before)
	}

	assertStatus(t, client.get("/onboarding"), http.StatusOK)
	if client.meCalls.Load() == before {
		t.Fatal("expected page routes to resolve the session")
	}
}
