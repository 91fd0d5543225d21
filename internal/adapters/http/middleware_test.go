package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keygate-labs/keygate/internal/application"
	"github.com/keygate-labs/keygate/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"mismatch", &domain.IdentityMismatchError{Components: []string{"cpu"}}, http.StatusForbidden, "HWID_MISMATCH"},
		{"quota", &domain.QuotaExceededError{Used: 3, Limit: 3}, http.StatusForbidden, "HWID_RESET_QUOTA"},
		{"invalid input", fmt.Errorf("%w: bad field", domain.ErrInvalidInput), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"session expired", domain.ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED"},
		{"session revoked", domain.ErrSessionRevoked, http.StatusUnauthorized, "SESSION_REVOKED"},
		{"session unbound", domain.ErrSessionUnbound, http.StatusForbidden, "SESSION_UNBOUND"},
		{"license expired", domain.ErrLicenseExpired, http.StatusForbidden, "LICENSE_EXPIRED"},
		{"license paused", domain.ErrLicensePaused, http.StatusForbidden, "LICENSE_PAUSED"},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"already linked", domain.ErrAlreadyLinked, http.StatusConflict, "ALREADY_LINKED"},
		{"conflict", domain.ErrConflict, http.StatusConflict, "CONFLICT"},
		{"not found", domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"transient", fmt.Errorf("%w: redis down", domain.ErrTransient), http.StatusServiceUnavailable, "TRANSIENT"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			status, code, _ := mapDomainError(tc.err)
			if status != tc.wantStatus || code != tc.wantCode {
				t.Fatalf("got %d %s, want %d %s", status, code, tc.wantStatus, tc.wantCode)
			}
		})
	}
}

func TestOAuthStatusCode(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		application.OAuthInvalidClient:          http.StatusUnauthorized,
		application.OAuthTemporarilyUnavailable: http.StatusServiceUnavailable,
		application.OAuthServerError:            http.StatusInternalServerError,
		application.OAuthInvalidRequest:         http.StatusBadRequest,
		application.OAuthInvalidGrant:           http.StatusBadRequest,
	}
	for code, want := range cases {
		if got := oauthStatusCode(code); got != want {
			t.Fatalf("oauthStatusCode(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestBearerTokenFromHeader(t *testing.T) {
	t.Parallel()

	token, err := bearerTokenFromHeader("Bearer abc.def.ghi")
	if err != nil || token != "abc.def.ghi" {
		t.Fatalf("expected token, got %q (err %v)", token, err)
	}
	if _, err := bearerTokenFromHeader(""); err == nil {
		t.Fatalf("expected error for missing header")
	}
	if _, err := bearerTokenFromHeader("Basic dXNlcg=="); err == nil {
		t.Fatalf("expected error for non-bearer scheme")
	}
}

func TestReadIPPrefersForwardedFor(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:51234"
	if got := readIP(r); got != "192.0.2.10" {
		t.Fatalf("expected remote addr host, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 192.0.2.1")
	if got := readIP(r); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}
