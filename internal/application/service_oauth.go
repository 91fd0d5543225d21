package application

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/keygate-labs/keygate/internal/domain"
	"github.com/keygate-labs/keygate/internal/ports"
)

// OAuth wire error codes. The vocabulary is fixed by the protocol contract;
// clients dispatch on these strings.
const (
	OAuthInvalidRequest          = "invalid_request"
	OAuthInvalidClient           = "invalid_client"
	OAuthInvalidGrant            = "invalid_grant"
	OAuthUnauthorizedClient      = "unauthorized_client"
	OAuthUnsupportedGrantType    = "unsupported_grant_type"
	OAuthUnsupportedResponseType = "unsupported_response_type"
	OAuthTemporarilyUnavailable  = "temporarily_unavailable"
	OAuthServerError             = "server_error"
)

// OAuthError is the structured protocol rejection. The HTTP adapter renders
// it verbatim as {error, error_description}; it never carries internal detail.
type OAuthError struct {
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

func oauthErr(code, description string) *OAuthError {
	return &OAuthError{Code: code, Description: description}
}

// authCodeEnvelope is the payload behind a single-use authorization code.
type authCodeEnvelope struct {
	ClientID            string    `json:"client_id"`
	Scope               string    `json:"scope,omitempty"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	IssuedAt            time.Time `json:"issued_at"`
}

// accessTokenEnvelope is the payload behind an opaque access token.
type accessTokenEnvelope struct {
	ClientID string    `json:"client_id"`
	Scope    string    `json:"scope,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

// Authorize implements the authorize half of the protocol: it validates the
// client and request shape, then mints a short-lived single-use code. The
// layer holds no state of its own.
func (s *Service) Authorize(ctx context.Context, req AuthorizeRequest) (AuthorizeResponse, error) {
	if ip := strings.TrimSpace(req.IPAddress); ip != "" {
		if err := s.enforceRateLimit(ctx, "authorize:ip:"+ip, s.cfg.AuthorizeRateLimitThreshold, s.cfg.AuthorizeRateLimitWindow); err != nil {
			return AuthorizeResponse{}, err
		}
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return AuthorizeResponse{}, oauthErr(OAuthInvalidRequest, "client_id is required")
	}
	if req.ResponseType != "code" {
		return AuthorizeResponse{}, oauthErr(OAuthUnsupportedResponseType, "response_type must be code")
	}
	state := strings.TrimSpace(req.State)
	if state == "" {
		return AuthorizeResponse{}, oauthErr(OAuthInvalidRequest, "state is required")
	}

	challenge := strings.TrimSpace(req.CodeChallenge)
	method := strings.TrimSpace(req.CodeChallengeMethod)
	if challenge != "" {
		if method == "" {
			method = "plain"
		}
		if method != "S256" && method != "plain" {
			return AuthorizeResponse{}, oauthErr(OAuthInvalidRequest, "unsupported code_challenge_method")
		}
	} else if method != "" {
		return AuthorizeResponse{}, oauthErr(OAuthInvalidRequest, "code_challenge_method without code_challenge")
	}

	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return AuthorizeResponse{}, oauthErr(OAuthUnauthorizedClient, "unknown client")
		}
		return AuthorizeResponse{}, s.oauthBackendErr(err)
	}

	payload, _ := json.Marshal(authCodeEnvelope{
		ClientID:            clientID,
		Scope:               strings.TrimSpace(req.Scope),
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		IssuedAt:            s.nowFn(),
	})
	code, err := s.issueCode(ctx, ports.CodeKindAuthorization, payload, s.cfg.AuthCodeTTL)
	if err != nil {
		return AuthorizeResponse{}, s.oauthBackendErr(err)
	}

	return AuthorizeResponse{Code: code, State: state}, nil
}

// Token implements the token half: single-use code redemption, client
// authentication, PKCE verification and access-token minting.
func (s *Service) Token(ctx context.Context, req TokenRequest) (TokenResponse, error) {
	grantType := strings.TrimSpace(req.GrantType)
	if grantType == "" {
		return TokenResponse{}, oauthErr(OAuthInvalidRequest, "grant_type is required")
	}
	if grantType != "authorization_code" {
		return TokenResponse{}, oauthErr(OAuthUnsupportedGrantType, "grant_type must be authorization_code")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return TokenResponse{}, oauthErr(OAuthInvalidRequest, "code is required")
	}
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return TokenResponse{}, oauthErr(OAuthInvalidRequest, "client_id is required")
	}

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenResponse{}, oauthErr(OAuthInvalidClient, "client authentication failed")
		}
		return TokenResponse{}, s.oauthBackendErr(err)
	}
	if err := s.secrets.Compare(client.SecretHash, req.ClientSecret); err != nil {
		return TokenResponse{}, oauthErr(OAuthInvalidClient, "client authentication failed")
	}

	// Single-use enforcement happens here: the store deletes the code
	// atomically, so a concurrent exchange of the same code loses.
	payload, err := s.redeemCode(ctx, ports.CodeKindAuthorization, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TokenResponse{}, oauthErr(OAuthInvalidGrant, "authorization code is invalid or expired")
		}
		return TokenResponse{}, s.oauthBackendErr(err)
	}
	var envelope authCodeEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return TokenResponse{}, oauthErr(OAuthServerError, "malformed code payload")
	}
	if envelope.ClientID != clientID {
		return TokenResponse{}, oauthErr(OAuthInvalidGrant, "authorization code was issued to another client")
	}

	if envelope.CodeChallenge != "" {
		verifier := strings.TrimSpace(req.CodeVerifier)
		if verifier == "" {
			return TokenResponse{}, oauthErr(OAuthInvalidRequest, "code_verifier is required")
		}
		expected := verifier
		if envelope.CodeChallengeMethod == "S256" {
			expected = pkceS256(verifier)
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(envelope.CodeChallenge)) != 1 {
			return TokenResponse{}, oauthErr(OAuthInvalidGrant, "pkce verification failed")
		}
	}

	tokenPayload, _ := json.Marshal(accessTokenEnvelope{
		ClientID: clientID,
		Scope:    envelope.Scope,
		IssuedAt: s.nowFn(),
	})
	accessToken, err := s.issueCode(ctx, ports.CodeKindAccessToken, tokenPayload, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenResponse{}, s.oauthBackendErr(err)
	}

	return TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.cfg.AccessTokenTTL.Seconds()),
		Scope:       envelope.Scope,
	}, nil
}

// oauthBackendErr folds infrastructure failures into the wire vocabulary
// without leaking internals. Transient outages are distinguishable so clients
// know a retry is safe.
func (s *Service) oauthBackendErr(err error) *OAuthError {
	if errors.Is(err, domain.ErrTransient) {
		return oauthErr(OAuthTemporarilyUnavailable, "backend temporarily unavailable")
	}
	return oauthErr(OAuthServerError, "unexpected server condition")
}
