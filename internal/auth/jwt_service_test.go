package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, cfg JWTConfig) *JWTService {
	t.Helper()
	if cfg.Secret == "" {
		cfg.Secret = "test-secret"
	}
	svc, err := NewJWTService(cfg)
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	svc := newTestService(t, JWTConfig{Issuer: "crewlink"})

	token, err := svc.GenerateAccessToken(AccessTokenInput{
		SubjectID: "user-1",
		Email:     "maria@example.com",
		Role:      RoleCandidate,
	})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.SubjectID)
	require.Equal(t, "maria@example.com", claims.Email)
	require.Equal(t, RoleCandidate, claims.Role)
	require.Equal(t, "crewlink", claims.Issuer)
}

func TestGenerateAccessTokenRejectsUnknownRole(t *testing.T) {
	svc := newTestService(t, JWTConfig{})

	_, err := svc.GenerateAccessToken(AccessTokenInput{SubjectID: "user-1", Role: "superuser"})
	require.Error(t, err)

	_, err = svc.GenerateAccessToken(AccessTokenInput{Role: RoleAdmin})
	require.Error(t, err)
}

func TestValidateAccessTokenRejectsWrongSecret(t *testing.T) {
	issuing := newTestService(t, JWTConfig{Secret: "first-secret"})
	validating := newTestService(t, JWTConfig{Secret: "second-secret"})

	token, err := issuing.GenerateAccessToken(AccessTokenInput{SubjectID: "user-1", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = validating.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestValidateAccessTokenRejectsWrongIssuer(t *testing.T) {
	issuing := newTestService(t, JWTConfig{Issuer: "somewhere-else"})
	validating := newTestService(t, JWTConfig{Issuer: "crewlink"})

	token, err := issuing.GenerateAccessToken(AccessTokenInput{SubjectID: "user-1", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = validating.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestValidateAccessTokenExpiry(t *testing.T) {
	current := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, JWTConfig{
		AccessTokenTTL: 10 * time.Minute,
		Clock:          func() time.Time { return current },
	})

	token, err := svc.GenerateAccessToken(AccessTokenInput{SubjectID: "user-1", Role: RoleCandidate})
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	require.NoError(t, err)

	current = current.Add(11 * time.Minute)
	_, err = svc.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestValidateAccessTokenRejectsEmpty(t *testing.T) {
	svc := newTestService(t, JWTConfig{})

	_, err := svc.ValidateAccessToken("")
	require.Error(t, err)

	_, err = svc.ValidateAccessToken("not-a-token")
	require.Error(t, err)
}
