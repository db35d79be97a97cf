package api

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/ratelimit"
	"github.com/dougwhitewolff/vasop-client/internal/wizard"
	"golang.org/x/time/rate"
)

func TestOnboardingRequiresLogin(t *testing.T) {
	client := newWebTestClient(t)

	assertRedirect(t, client.get("/onboarding"), "/login")
	assertRedirect(t, client.get("/"), "/login")

	request := client.postForm("/onboarding/step/1", validStepForms()[0])
	assertRedirect(t, request, "/login")
}

func TestSignupOpensFirstStep(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")

	response := client.get("/onboarding")
	assertStatus(t, response, http.StatusOK)
	assertBodyContains(t, response, `action="/onboarding/step/1"`, `name="businessName"`, `aria-current="step"`)

	assertRedirect(t, client.get("/login"), "/onboarding")
	assertRedirect(t, client.get("/"), "/onboarding")
}

func TestAdvanceWithInvalidInputRendersFieldErrors(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")

	form := validStepForms()[0]
	form.Set("businessName", "A")
	form.Set("address.zip", "123")
	form.Set("action", "next")

	response := client.postForm("/onboarding/step/1", form)
	assertStatus(t, response, http.StatusUnprocessableEntity)
	assertBodyContains(t, response,
		"Business name must be at least 2 characters",
		"ZIP code must be 5 digits",
		`value="1 Pipe Rd"`,
	)

	page := client.get("/onboarding")
	assertBodyContains(t, page, `action="/onboarding/step/1"`)
}

func TestAdvancePersistsAndMovesForward(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	client.advanceThrough(1)

	response := client.get("/onboarding")
	assertStatus(t, response, http.StatusOK)
	assertBodyContains(t, response, `action="/onboarding/step/2"`, "Progress saved.", `action="/onboarding/jump/1"`)

	back := client.postForm("/onboarding/back", url.Values{})
	assertRedirect(t, back, "/onboarding")
	assertBodyContains(t, client.get("/onboarding"), `value="Acme Plumbing"`)
}

func TestStaleStepIsRejected(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")

	form := validStepForms()[1]
	form.Set("action", "next")
	response := client.postForm("/onboarding/step/2", form)
	assertRedirect(t, response, "/onboarding")
	assertBodyContains(t, client.get("/onboarding"), "That action is not available right now.", `action="/onboarding/step/1"`)
}

func TestSaveAndExitShowsProgress(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	client.advanceThrough(1)

	response := client.postForm("/onboarding/step/2", url.Values{
		"agentName": {"R"},
		"action":    {"save"},
	})
	assertRedirect(t, response, "/progress")

	progress := client.get("/progress")
	assertStatus(t, progress, http.StatusOK)
	assertBodyContains(t, progress, "1 / 6", "Acme Plumbing", "Progress saved.")

	resumed := client.get("/onboarding")
	assertBodyContains(t, resumed, `action="/onboarding/step/2"`, `value="R"`)
}

func TestStrictSaveRejectsInvalidInput(t *testing.T) {
	policy := wizard.DefaultPolicy()
	policy.SaveValidation = wizard.SaveStrict
	client := newWebTestClientWithOptions(t, webTestOptions{policy: policy})
	client.signup("owner@acme.example")

	response := client.postForm("/onboarding/step/1", url.Values{
		"businessName": {"A"},
		"action":       {"save"},
	})
	assertStatus(t, response, http.StatusUnprocessableEntity)
	assertBodyContains(t, response, "Business name must be at least 2 characters")
}

func TestProgressWithoutDraftRedirectsToWizard(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")

	assertRedirect(t, client.get("/progress"), "/onboarding")
	assertRedirect(t, client.get("/status"), "/onboarding")
}

func TestGenerateGreetingFillsTemplate(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	client.advanceThrough(1)

	response := client.postForm("/onboarding/step/2", url.Values{
		"agentName":        {"Riley"},
		"agentPersonality": {"formal"},
		"voice":            {"nova"},
		"action":           {"generate_greeting"},
	})
	assertStatus(t, response, http.StatusOK)
	assertBodyContains(t, response, "Good day. You&#39;ve reached Acme Plumbing. This is Riley, your virtual assistant.")
}

func TestCustomQuestionEditing(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	client.advanceThrough(2)

	added := client.postForm("/onboarding/step/3", url.Values{
		"customFields.0.question": {"What brand is the unit?"},
		"action":                  {"add_question"},
	})
	assertStatus(t, added, http.StatusOK)
	assertBodyContains(t, added, `name="customFields.0.question"`, `name="customFields.1.question"`)

	removed := client.postForm("/onboarding/step/3", url.Values{
		"customFields.0.question": {"What brand is the unit?"},
		"customFields.1.question": {"How old is it?"},
		"action":                  {"remove_question:0"},
	})
	assertStatus(t, removed, http.StatusOK)
	assertBodyContains(t, removed, `value="How old is it?"`)
	if strings.Contains(removed.body, "What brand is the unit?") {
		t.Fatal("expected removed question to disappear from the form")
	}

	full := url.Values{"action": {"add_question"}}
	for index := 0; index < 5; index++ {
		full.Set(customFieldKey(index, "question"), "Question number "+string(rune('A'+index)))
	}
	capped := client.postForm("/onboarding/step/3", full)
	assertBodyContains(t, capped, "You have reached the question limit")
	if strings.Contains(capped.body, `name="customFields.5.question"`) {
		t.Fatal("expected no sixth question row")
	}
}

func TestSummaryEmailPreviewPartial(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")

	response := client.postForm("/onboarding/preview/summary-email", url.Values{
		"urgency":                 {"on"},
		"customFields.0.question": {"What brand is the unit?"},
	})
	assertStatus(t, response, http.StatusOK)
	assertBodyContains(t, response, "Urgency level", "What brand is the unit?", "Timestamp of call")
	if strings.Contains(response.body, "Property address") {
		t.Fatal("expected property address to stay out of the preview")
	}
	if strings.Contains(response.body, "<html") {
		t.Fatal("expected a fragment, not a full page")
	}
}

func TestEmergencyStepFollowsTriggerPolicy(t *testing.T) {
	policy := wizard.DefaultPolicy()
	policy.TriggerMethod = wizard.TriggerFixedPoundKey
	client := newWebTestClientWithOptions(t, webTestOptions{policy: policy})
	client.signup("owner@acme.example")
	client.advanceThrough(3)

	page := client.get("/onboarding")
	assertBodyContains(t, page, `type="hidden" name="triggerMethod" value="pound_key"`)
	if strings.Contains(page.body, `type="radio" name="triggerMethod"`) {
		t.Fatal("expected no trigger method choice under the fixed policy")
	}

	response := client.postForm("/onboarding/step/4", url.Values{
		"enabled":         {"on"},
		"forwardToNumber": {"5559876543"},
		"triggerMethod":   {"keyword"},
		"action":          {"next"},
	})
	assertRedirect(t, response, "/onboarding"+scrollTopAnchor)

	client.advanceBackTo(t, 4)
	assertBodyContains(t, client.get("/onboarding"), "press the pound key now")
}

func TestSubmitShowsConfirmationThenStatus(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	client.advanceThrough(5)

	review := client.get("/onboarding")
	assertBodyContains(t, review, `formaction="/onboarding/submit"`, "owner@acme.example", "5559876543")

	submitted := client.postForm("/onboarding/submit", url.Values{})
	assertStatus(t, submitted, http.StatusOK)
	if refresh := submitted.header.Get("Refresh"); refresh != "2; url=/status" {
		t.Fatalf("expected refresh header to /status, got %q", refresh)
	}
	assertBodyContains(t, submitted, "4T-", `http-equiv="refresh"`, "Your onboarding was submitted.")

	status := client.get("/status")
	assertStatus(t, status, http.StatusOK)
	assertBodyContains(t, status, "4T-", "Pending review", "Acme Plumbing")

	assertRedirect(t, client.get("/onboarding"), "/status")
	assertRedirect(t, client.get("/progress"), "/status")
}

func TestSubmitBeforeReviewIsNotAllowed(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	client.advanceThrough(2)

	assertRedirect(t, client.postForm("/onboarding/submit", url.Values{}), "/onboarding")
	assertBodyContains(t, client.get("/onboarding"), "That action is not available right now.", `action="/onboarding/step/3"`)
}

func TestJumpOnlyReachesCompletedSteps(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")
	client.advanceThrough(2)

	assertRedirect(t, client.postForm("/onboarding/jump/5", url.Values{}), "/onboarding")
	assertBodyContains(t, client.get("/onboarding"), `action="/onboarding/step/3"`)

	assertRedirect(t, client.postForm("/onboarding/jump/1", url.Values{}), "/onboarding")
	assertBodyContains(t, client.get("/onboarding"), `action="/onboarding/step/1"`)

	assertStatus(t, client.postForm("/onboarding/jump/9", url.Values{}), http.StatusNotFound)
}

func TestVoicePreviewProxiesAndThrottles(t *testing.T) {
	client := newWebTestClientWithOptions(t, webTestOptions{
		policy:       wizard.DefaultPolicy(),
		voiceLimiter: ratelimit.NewKeyedLimiter(rate.Every(time.Hour), 1),
	})
	client.signup("owner@acme.example")

	form := url.Values{"text": {"Hello from Riley"}, "voice": {"nova"}}

	first := client.postForm("/onboarding/preview-voice", form)
	assertStatus(t, first, http.StatusBadGateway)

	second := client.postForm("/onboarding/preview-voice", form)
	assertStatus(t, second, http.StatusTooManyRequests)
}

func TestVoicePreviewRejectsUnknownVoice(t *testing.T) {
	client := newWebTestClient(t)
	client.signup("owner@acme.example")

	response := client.postForm("/onboarding/preview-voice", url.Values{"text": {"Hello"}, "voice": {"robot"}})
	assertStatus(t, response, http.StatusBadRequest)
	assertBodyContains(t, response, "Choose one of the listed voices.")
}

// advanceBackTo walks back with GoBack until the wizard shows step.
func (client *webTestClient) advanceBackTo(t *testing.T, step int) {
	t.Helper()
	for attempts := 0; attempts < 6; attempts++ {
		page := client.get("/onboarding")
		if strings.Contains(page.body, `action="/onboarding/step/`+string(rune('0'+step))+`"`) {
			return
		}
		client.postForm("/onboarding/back", url.Values{})
	}
	t.Fatalf("could not return to step %d", step)
}
