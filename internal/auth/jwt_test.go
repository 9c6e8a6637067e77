package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"notifyhub/internal/config"
)

type memoryBlacklist struct {
	revoked map[string]bool
}

func (m *memoryBlacklist) Add(ctx context.Context, jti string, _ time.Time) error {
	if m.revoked == nil {
		m.revoked = make(map[string]bool)
	}
	m.revoked[jti] = true
	return nil
}

func (m *memoryBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return m.revoked[jti], nil
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: time.Hour}
}

func TestGenerateAndValidateToken(t *testing.T) {
	cfg := testAuthConfig()

	token, err := GenerateToken(42, "ada", cfg)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, nil)
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, "ada", claims.Username)
	require.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	token, err := GenerateToken(42, "ada", testAuthConfig())
	require.NoError(t, err)

	_, err = ValidateToken(context.Background(), token, "other-secret", nil)
	require.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	cfg := config.AuthConfig{JWTSecretKey: "test-secret", JWTExpiry: -time.Minute}
	token, err := GenerateToken(42, "ada", cfg)
	require.NoError(t, err)

	_, err = ValidateToken(context.Background(), token, cfg.JWTSecretKey, nil)
	require.Error(t, err)
}

func TestValidateTokenChecksBlacklist(t *testing.T) {
	cfg := testAuthConfig()
	blacklist := &memoryBlacklist{}

	token, err := GenerateToken(42, "ada", cfg)
	require.NoError(t, err)

	claims, err := ValidateToken(context.Background(), token, cfg.JWTSecretKey, blacklist)
	require.NoError(t, err)

	require.NoError(t, blacklist.Add(context.Background(), claims.ID, claims.ExpiresAt.Time))
	_, err = ValidateToken(context.Background(), token, cfg.JWTSecretKey, blacklist)
	require.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-password")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret-password", hash)

	require.True(t, CheckPasswordHash("s3cret-password", hash))
	require.False(t, CheckPasswordHash("wrong-password", hash))
}
