package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/backend"
	"github.com/dougwhitewolff/vasop-client/internal/cache"
	"github.com/dougwhitewolff/vasop-client/internal/db"
	"github.com/dougwhitewolff/vasop-client/internal/i18n"
	"github.com/dougwhitewolff/vasop-client/internal/ratelimit"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
	"github.com/dougwhitewolff/vasop-client/internal/services"
	"github.com/dougwhitewolff/vasop-client/internal/templates"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type recordingMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (mailer *recordingMailer) SendResetCode(_ context.Context, to string, code string, _ time.Duration) error {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	if mailer.codes == nil {
		mailer.codes = map[string]string{}
	}
	mailer.codes[to] = code
	return nil
}

func (mailer *recordingMailer) codeFor(email string) string {
	mailer.mu.Lock()
	defer mailer.mu.Unlock()
	return mailer.codes[email]
}

type webTestOptions struct {
	policy       wizard.Policy
	voiceLimiter *ratelimit.KeyedLimiter
}

// webTestClient drives the web app like a browser: it keeps cookies between
// requests and never follows redirects.
type webTestClient struct {
	t       *testing.T
	app     *fiber.App
	mailer  *recordingMailer
	cookies map[string]string
	meCalls *atomic.Int32
}

func newWebTestClient(t *testing.T) *webTestClient {
	t.Helper()
	return newWebTestClientWithOptions(t, webTestOptions{policy: wizard.DefaultPolicy()})
}

func newWebTestClientWithOptions(t *testing.T, options webTestOptions) *webTestClient {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "vasop-web-test.db"), nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	mailer := &recordingMailer{}
	reference := backend.NewServer(db.NewRepositories(database), mailer, backend.Options{
		SecretKey: []byte("web-test-backend-secret-0123456789abcdef"),
	}, nil)
	backendApp := adaptor.FiberApp(reference.App())
	var meCalls atomic.Int32
	backendServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == remote.MePath {
			meCalls.Add(1)
		}
		backendApp(w, r)
	}))
	t.Cleanup(backendServer.Close)

	client := remote.NewClient(backendServer.URL, 5*time.Second, nil)
	i18nManager, err := i18n.NewManager(i18n.LangEN, i18n.EmbeddedLocales())
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	handler, err := NewHandler(Dependencies{
		Sessions: services.NewSessionService(client, nil),
		Auth:     services.NewAuthService(client, nil, nil),
		Onboarding: services.NewOnboardingService(
			wizard.NewMachine(options.policy, nil),
			client,
			cache.NewMemoryDraftCache(time.Hour),
			nil,
		),
		Voice:        client,
		VoiceLimiter: options.voiceLimiter,
		I18n:         i18nManager,
		Templates:    templates.Files,
		SecretKey:    []byte("web-test-cookie-secret-0123456789abcdef"),
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	app.Use(handler.LanguageMiddleware)
	RegisterRoutes(app, handler)
	app.Use(handler.NotFound)

	return &webTestClient{t: t, app: app, mailer: mailer, cookies: map[string]string{}, meCalls: &meCalls}
}

type webResponse struct {
	status   int
	location string
	header   http.Header
	body     string
}

func (client *webTestClient) get(path string) webResponse {
	client.t.Helper()
	return client.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (client *webTestClient) postForm(path string, form url.Values) webResponse {
	client.t.Helper()
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return client.do(request)
}

func (client *webTestClient) do(request *http.Request) webResponse {
	client.t.Helper()

	for name, value := range client.cookies {
		request.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	response, err := client.app.Test(request, -1)
	if err != nil {
		client.t.Fatalf("%s %s failed: %v", request.Method, request.URL.Path, err)
	}
	defer response.Body.Close()

	for _, cookie := range response.Cookies() {
		expired := !cookie.Expires.IsZero() && cookie.Expires.Before(time.Now())
		if cookie.Value == "" || expired || cookie.MaxAge < 0 {
			delete(client.cookies, cookie.Name)
			continue
		}
		client.cookies[cookie.Name] = cookie.Value
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		client.t.Fatalf("read response body: %v", err)
	}
	return webResponse{
		status:   response.StatusCode,
		location: response.Header.Get("Location"),
		header:   response.Header,
		body:     string(body),
	}
}

func (client *webTestClient) signup(email string) {
	client.t.Helper()

	response := client.postForm("/signup", url.Values{
		"name":            {"Dana Owner"},
		"email":           {email},
		"phone":           {"5551234567"},
		"password":        {"correct-horse"},
		"confirmPassword": {"correct-horse"},
	})
	assertRedirect(client.t, response, "/onboarding")
	if client.cookies[authCookieName] == "" {
		client.t.Fatal("auth cookie is missing after signup")
	}
}

func validStepForms() []url.Values {
	return []url.Values{
		{
			"businessName":       {"Acme Plumbing"},
			"industry":           {"Plumbing"},
			"phone":              {"555-123-4567"},
			"email":              {"office@acme.example"},
			"address.street":     {"1 Pipe Rd"},
			"address.city":       {"Austin"},
			"address.state":      {"TX"},
			"address.zip":        {"73301"},
			"hours.mondayFriday": {"8-5"},
			"hours.saturday":     {"9-12"},
			"hours.sunday":       {"Closed"},
		},
		{
			"agentName":        {"Riley"},
			"agentPersonality": {"friendly"},
			"greeting":         {"Hi there! Thanks for calling Acme Plumbing. How can I help?"},
			"voice":            {"nova"},
		},
		{
			"urgency":                 {"on"},
			"customFields.0.question": {"What brand is the unit?"},
		},
		{
			"enabled":         {"on"},
			"forwardToNumber": {"5559876543"},
			"triggerMethod":   {"pound_key"},
		},
		{
			"recipientEmail": {"owner@acme.example"},
		},
	}
}

func (client *webTestClient) advanceThrough(lastStep int) {
	client.t.Helper()

	forms := validStepForms()
	for step := 1; step <= lastStep; step++ {
		form := forms[step-1]
		form.Set("action", "next")
		response := client.postForm("/onboarding/step/"+strconv.Itoa(step), form)
		assertRedirect(client.t, response, "/onboarding"+scrollTopAnchor)
	}
}

func assertRedirect(t *testing.T, response webResponse, want string) {
	t.Helper()
	if response.status != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d: %s", response.status, response.body)
	}
	if response.location != want {
		t.Fatalf("expected redirect to %q, got %q", want, response.location)
	}
}

func assertStatus(t *testing.T, response webResponse, want int) {
	t.Helper()
	if response.status != want {
		t.Fatalf("expected status %d, got %d: %s", want, response.status, response.body)
	}
}

func assertBodyContains(t *testing.T, response webResponse, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(response.body, fragment) {
			t.Fatalf("expected body to contain %q, got %s", fragment, response.body)
		}
	}
}
