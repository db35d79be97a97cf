package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dougwhitewolff/vasop-client/internal/metrics"
	"github.com/dougwhitewolff/vasop-client/internal/models"
	"go.uber.org/zap"
)

const maxErrorBodyBytes = 64 << 10

// Client talks to the auth and onboarding backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("remote"),
	}
}

func (client *Client) Signup(ctx context.Context, request SignupRequest) (AuthResponse, error) {
	var response AuthResponse
	if err := client.doJSON(ctx, "signup", http.MethodPost, SignupPath, "", request, &response); err != nil {
		return AuthResponse{}, err
	}
	return response, nil
}

func (client *Client) Login(ctx context.Context, request LoginRequest) (AuthResponse, error) {
	var response AuthResponse
	if err := client.doJSON(ctx, "login", http.MethodPost, LoginPath, "", request, &response); err != nil {
		return AuthResponse{}, err
	}
	return response, nil
}

func (client *Client) Me(ctx context.Context, token string) (models.User, error) {
	var response MeResponse
	if err := client.doJSON(ctx, "me", http.MethodGet, MePath, token, nil, &response); err != nil {
		return models.User{}, err
	}
	return response.User, nil
}

func (client *Client) ForgotPassword(ctx context.Context, request ForgotPasswordRequest) (MessageResponse, error) {
	var response MessageResponse
	if err := client.doJSON(ctx, "forgot_password", http.MethodPost, ForgotPasswordPath, "", request, &response); err != nil {
		return MessageResponse{}, err
	}
	return response, nil
}

func (client *Client) ResetPassword(ctx context.Context, request ResetPasswordRequest) (MessageResponse, error) {
	var response MessageResponse
	if err := client.doJSON(ctx, "reset_password", http.MethodPost, ResetPasswordPath, "", request, &response); err != nil {
		return MessageResponse{}, err
	}
	return response, nil
}

func (client *Client) SaveDraft(ctx context.Context, token string, draft models.OnboardingDraft) error {
	return client.doJSON(ctx, "save_draft", http.MethodPost, SaveDraftPath, token, PayloadFromDraft(draft), nil)
}

// FetchDraft returns nil when the backend has no record for the user.
func (client *Client) FetchDraft(ctx context.Context, token string) (*models.OnboardingDraft, error) {
	var response MySubmissionResponse
	if err := client.doJSON(ctx, "my_submission", http.MethodGet, MySubmissionPath, token, nil, &response); err != nil {
		if StatusOf(err) == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	if response.Submission == nil {
		return nil, nil
	}
	draft := response.Submission.Draft()
	return &draft, nil
}

func (client *Client) SubmitDraft(ctx context.Context, token string, draft models.OnboardingDraft) (models.SubmissionReceipt, error) {
	payload := PayloadFromDraft(draft)
	payload.CurrentStep = 0

	var response SubmitResponse
	if err := client.doJSON(ctx, "submit", http.MethodPost, SubmitPath, token, payload, &response); err != nil {
		return models.SubmissionReceipt{}, err
	}
	return models.SubmissionReceipt{
		SubmissionID: response.SubmissionID,
		SubmittedAt:  response.SubmittedAt,
		Message:      response.Message,
	}, nil
}

// PreviewVoice returns the synthesized audio and its content type.
func (client *Client) PreviewVoice(ctx context.Context, token string, request PreviewVoiceRequest) ([]byte, string, error) {
	const op = "preview_voice"
	started := time.Now()

	response, err := client.send(ctx, op, http.MethodPost, PreviewVoicePath, token, request)
	if err != nil {
		client.observe(op, err, started)
		return nil, "", err
	}
	defer response.Body.Close()

	if err := checkStatus(response); err != nil {
		client.observe(op, err, started)
		return nil, "", err
	}
	audio, err := io.ReadAll(response.Body)
	if err != nil {
		err = &NetworkError{Op: op, Err: err}
		client.observe(op, err, started)
		return nil, "", err
	}
	client.observe(op, nil, started)

	contentType := response.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return audio, contentType, nil
}

func (client *Client) doJSON(ctx context.Context, op string, method string, path string, token string, body any, out any) error {
	started := time.Now()

	response, err := client.send(ctx, op, method, path, token, body)
	if err != nil {
		client.observe(op, err, started)
		return err
	}
	defer response.Body.Close()

	if err := checkStatus(response); err != nil {
		client.observe(op, err, started)
		return err
	}

	if out != nil {
		if err := json.NewDecoder(response.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			err = fmt.Errorf("remote: decode %s response: %w", op, err)
			client.observe(op, err, started)
			return err
		}
	}
	client.observe(op, nil, started)
	return nil
}

func (client *Client) send(ctx context.Context, op string, method string, path string, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("remote: encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, client.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("remote: build %s request: %w", op, err)
	}
	request.Header.Set("Accept", "application/json")
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	return response, nil
}

func checkStatus(response *http.Response) error {
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
	payload := ErrorResponse{}
	_ = json.Unmarshal(raw, &payload)

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		message = fmt.Sprintf("HTTP error! status: %d", response.StatusCode)
	}
	return &HTTPError{Status: response.StatusCode, Message: message}
}

func (client *Client) observe(op string, err error, started time.Time) {
	result := "ok"
	switch {
	case err == nil:
	case IsUnauthorized(err):
		result = "unauthorized"
	case IsNetwork(err):
		result = "network_error"
	case StatusOf(err) > 0:
		result = "http_error"
	default:
		result = "error"
	}
	metrics.ObserveRemoteCall(op, result, started)

	if err != nil {
		client.logger.Warn("remote call failed",
			zap.String("operation", op),
			zap.String("result", result),
			zap.Int("status", StatusOf(err)),
			zap.Error(err),
		)
	}
}
