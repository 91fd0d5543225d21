package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keygate-labs/keygate/internal/application"
	"github.com/keygate-labs/keygate/internal/domain"
)

func decodeOAuthError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode oauth error body: %v", err)
	}
	return body
}

func TestWriteOAuthMappedError(t *testing.T) {
	t.Parallel()

	t.Run("protocol error passes through", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		writeOAuthMappedError(rec, &application.OAuthError{Code: application.OAuthInvalidGrant, Description: "pkce verification failed"})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		body := decodeOAuthError(t, rec)
		if body["error"] != application.OAuthInvalidGrant {
			t.Fatalf("expected invalid_grant, got %q", body["error"])
		}
	})

	t.Run("rate limited maps to 429", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		writeOAuthMappedError(rec, domain.ErrRateLimited)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 for throttled caller, got %d", rec.Code)
		}
		body := decodeOAuthError(t, rec)
		if body["error"] != application.OAuthTemporarilyUnavailable {
			t.Fatalf("expected temporarily_unavailable, got %q", body["error"])
		}
	})

	t.Run("wrapped rate limit maps to 429", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		writeOAuthMappedError(rec, fmt.Errorf("authorize: %w", domain.ErrRateLimited))
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429 for wrapped sentinel, got %d", rec.Code)
		}
	})

	t.Run("unknown error is server_error", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		writeOAuthMappedError(rec, fmt.Errorf("boom"))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		body := decodeOAuthError(t, rec)
		if body["error"] != application.OAuthServerError {
			t.Fatalf("expected server_error, got %q", body["error"])
		}
	})
}
