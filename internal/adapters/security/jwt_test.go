package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/keygate-labs/keygate/internal/ports"
)

func testClaims() ports.SessionClaims {
	now := time.Now().UTC().Truncate(time.Second)
	return ports.SessionClaims{
		SessionID:     uuid.New(),
		LicenseID:     uuid.New(),
		FingerprintID: uuid.New(),
		AuthToken:     "opaque-auth-token",
		IssuedAt:      now,
		ExpiresAt:     now.Add(time.Hour),
	}
}

func TestSignAndParseRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("test-key-1")
	require.NoError(t, err)

	claims := testClaims()
	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := signer.ParseAndValidate(token)
	require.NoError(t, err)
	require.Equal(t, claims.SessionID, parsed.SessionID)
	require.Equal(t, claims.LicenseID, parsed.LicenseID)
	require.Equal(t, claims.FingerprintID, parsed.FingerprintID)
	require.Equal(t, claims.AuthToken, parsed.AuthToken)
	require.Equal(t, "test-key-1", parsed.KeyID)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("test-key-1")
	require.NoError(t, err)

	token, err := signer.Sign(testClaims())
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	_, err = signer.ParseAndValidate(tampered)
	require.Error(t, err)
}

func TestParseRejectsForeignKey(t *testing.T) {
	t.Parallel()

	signerA, err := NewEphemeralJWTSigner("key-a")
	require.NoError(t, err)
	signerB, err := NewEphemeralJWTSigner("key-b")
	require.NoError(t, err)

	token, err := signerA.Sign(testClaims())
	require.NoError(t, err)

	_, err = signerB.ParseAndValidate(token)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("test-key-1")
	require.NoError(t, err)

	claims := testClaims()
	claims.IssuedAt = time.Now().UTC().Add(-2 * time.Hour)
	claims.ExpiresAt = time.Now().UTC().Add(-time.Hour)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = signer.ParseAndValidate(token)
	require.Error(t, err)
}

func TestParseRejectsTokenWithoutTimestamps(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("test-key-1")
	require.NoError(t, err)

	// A correctly signed token that omits exp/iat must fail validation,
	// not panic on the missing registered claims.
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"session_id":     uuid.NewString(),
		"license_id":     uuid.NewString(),
		"fingerprint_id": uuid.NewString(),
		"auth_token":     "opaque-auth-token",
	})
	token.Header["kid"] = "test-key-1"
	raw, err := token.SignedString(signer.privateKey)
	require.NoError(t, err)

	_, err = signer.ParseAndValidate(raw)
	require.Error(t, err)
}

func TestPublicJWKsExposeSigningKey(t *testing.T) {
	t.Parallel()

	signer, err := NewEphemeralJWTSigner("test-key-1")
	require.NoError(t, err)

	jwks, err := signer.PublicJWKs()
	require.NoError(t, err)
	require.Len(t, jwks, 1)
	require.Equal(t, "test-key-1", jwks[0]["kid"])
	require.Equal(t, "RSA", jwks[0]["kty"])
	require.Equal(t, "RS256", jwks[0]["alg"])
	require.NotEmpty(t, jwks[0]["n"])
	require.NotEmpty(t, jwks[0]["e"])
}
