package http

import (
	"errors"
	"net/http"

	"github.com/keygate-labs/keygate/internal/application"
	"github.com/keygate-labs/keygate/internal/domain"
)

func oauthStatusCode(code string) int {
	switch code {
	case application.OAuthInvalidClient:
		return http.StatusUnauthorized
	case application.OAuthTemporarilyUnavailable:
		return http.StatusServiceUnavailable
	case application.OAuthServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeOAuthMappedError(w http.ResponseWriter, err error) {
	var oerr *application.OAuthError
	if errors.As(err, &oerr) {
		writeOAuthError(w, oauthStatusCode(oerr.Code), oerr.Code, oerr.Description)
		return
	}
	// Throttling reaches this path as a domain sentinel; a 500 here would
	// invite retries from the very clients the limiter is holding back.
	if errors.Is(err, domain.ErrRateLimited) {
		writeOAuthError(w, http.StatusTooManyRequests, application.OAuthTemporarilyUnavailable, "too many requests")
		return
	}
	writeOAuthError(w, http.StatusInternalServerError, application.OAuthServerError, "internal server error")
}

func (h *Handler) oauthAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := application.AuthorizeRequest{
		ClientID:            q.Get("client_id"),
		ResponseType:        q.Get("response_type"),
		State:               q.Get("state"),
		Scope:               q.Get("scope"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		IPAddress:           readIP(r),
	}

	res, err := h.service.Authorize(r.Context(), req)
	if err != nil {
		writeOAuthMappedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) oauthToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, http.StatusBadRequest, application.OAuthInvalidRequest, "malformed form body")
		return
	}

	req := application.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		Code:         r.PostFormValue("code"),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		CodeVerifier: r.PostFormValue("code_verifier"),
	}
	// Basic auth is the other standard way to present client credentials.
	if id, secret, ok := r.BasicAuth(); ok {
		if req.ClientID == "" {
			req.ClientID = id
		}
		if req.ClientSecret == "" {
			req.ClientSecret = secret
		}
	}

	res, err := h.service.Token(r.Context(), req)
	if err != nil {
		writeOAuthMappedError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, res)
}
