package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dougwhitewolff/vasop-client/internal/models"
	"github.com/dougwhitewolff/vasop-client/internal/remote"
)

type stubIdentityClient struct {
	user  models.User
	err   error
	calls int
}

func (stub *stubIdentityClient) Me(context.Context, string) (models.User, error) {
	stub.calls++
	return stub.user, stub.err
}

func TestSessionResolveWithoutCredentialIsAnonymous(t *testing.T) {
	identity := &stubIdentityClient{}
	service := NewSessionService(identity, nil)

	session, clear := service.Resolve(context.Background(), nil)
	if session.Status != SessionAnonymous || clear {
		t.Fatalf("expected anonymous session without clearing, got %+v clear=%v", session, clear)
	}
	if identity.calls != 0 {
		t.Fatalf("expected no identity call, got %d", identity.calls)
	}
}

func TestSessionResolveUsesFreshIdentity(t *testing.T) {
	identity := &stubIdentityClient{user: models.User{ID: "u-1", Email: "fresh@example.com"}}
	service := NewSessionService(identity, nil)

	session, clear := service.Resolve(context.Background(), &Credential{
		Token: "token",
		User:  models.User{ID: "u-1", Email: "stale@example.com"},
	})
	if clear || !session.Authenticated() {
		t.Fatalf("expected authenticated session, got %+v", session)
	}
	if session.User.Email != "fresh@example.com" {
		t.Fatalf("expected fresh profile, got %q", session.User.Email)
	}
}

func TestSessionResolveClearsOnUnauthorized(t *testing.T) {
	identity := &stubIdentityClient{err: &remote.HTTPError{Status: http.StatusUnauthorized, Message: "expired"}}
	service := NewSessionService(identity, nil)

	session, clear := service.Resolve(context.Background(), &Credential{Token: "token", User: models.User{ID: "u-1"}})
	if !clear {
		t.Fatal("expected credential to be cleared")
	}
	if session.Status != SessionAnonymous {
		t.Fatalf("expected anonymous session, got %s", session.Status)
	}
}

func TestSessionResolveKeepsStoredProfileOnNetworkError(t *testing.T) {
	identity := &stubIdentityClient{err: &remote.NetworkError{Op: "me", Err: errors.New("connection refused")}}
	service := NewSessionService(identity, nil)

	session, clear := service.Resolve(context.Background(), &Credential{Token: "token", User: models.User{ID: "u-1", Email: "owner@example.com"}})
	if clear {
		t.Fatal("did not expect credential to be cleared on network error")
	}
	if !session.Authenticated() || session.User.ID != "u-1" {
		t.Fatalf("expected stored profile to be used, got %+v", session)
	}

	session, _ = service.Resolve(context.Background(), &Credential{Token: "token"})
	if session.Status != SessionLoading {
		t.Fatalf("expected loading session without stored profile, got %s", session.Status)
	}
}

func TestSessionCacheKey(t *testing.T) {
	if key := (Session{User: models.User{ID: "42"}}).CacheKey(); key != "user:42" {
		t.Fatalf("unexpected key %q", key)
	}
	if key := (Session{User: models.User{Email: " Owner@Example.com "}}).CacheKey(); key != "email:owner@example.com" {
		t.Fatalf("unexpected key %q", key)
	}
}
