package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestGenerateAndVerifyAccessToken(t *testing.T) {
	key := newKey(t)
	gen := NewGenerator(key, "squadhub-identity", "squadhub-api", "k1", time.Hour)
	ver := NewVerifier(&key.PublicKey, "squadhub-identity", "squadhub-api")

	token, jti, err := gen.GenerateAccessToken("coach-1", []string{"admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, jti)

	claims, err := ver.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "coach-1", claims.UserID())
	assert.Equal(t, jti, claims.ID)
	assert.True(t, claims.IsAdmin())
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	key := newKey(t)
	ver := NewVerifier(&key.PublicKey, "squadhub-identity", "squadhub-api")

	wrongAudience, _, err := NewGenerator(key, "squadhub-identity", "other-api", "", time.Hour).GenerateAccessToken("u", nil)
	require.NoError(t, err)
	_, err = ver.VerifyAccessToken(wrongAudience)
	assert.Error(t, err)

	wrongIssuer, _, err := NewGenerator(key, "someone-else", "squadhub-api", "", time.Hour).GenerateAccessToken("u", nil)
	require.NoError(t, err)
	_, err = ver.VerifyAccessToken(wrongIssuer)
	assert.Error(t, err)

	otherKey := newKey(t)
	forged, _, err := NewGenerator(otherKey, "squadhub-identity", "squadhub-api", "", time.Hour).GenerateAccessToken("u", nil)
	require.NoError(t, err)
	_, err = ver.VerifyAccessToken(forged)
	assert.Error(t, err)

	expired, _, err := NewGenerator(key, "squadhub-identity", "squadhub-api", "", -time.Minute).GenerateAccessToken("u", nil)
	require.NoError(t, err)
	_, err = ver.VerifyAccessToken(expired)
	assert.Error(t, err)

	_, _, err = NewGenerator(key, "i", "a", "", time.Hour).GenerateAccessToken("", nil)
	assert.Error(t, err)
}

func TestLoadAndBuild(t *testing.T) {
	key := newKey(t)
	dir := t.TempDir()

	privPath := filepath.Join(dir, "jwt_private.pem")
	pubPath := filepath.Join(dir, "jwt_public.pem")
	require.NoError(t, os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600))
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o600))

	cfg := Config{PubPath: pubPath, Issuer: "iss", Audience: "aud", TTL: time.Hour}
	m, err := LoadAndBuild(cfg)
	require.NoError(t, err)
	assert.Nil(t, m.Generator)
	assert.NotNil(t, m.Verifier)

	cfg.PrivPath = privPath
	m, err = LoadAndBuild(cfg)
	require.NoError(t, err)
	require.NotNil(t, m.Generator)

	token, _, err := m.Generator.GenerateAccessToken("coach-9", nil)
	require.NoError(t, err)
	claims, err := m.Verifier.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "coach-9", claims.UserID())

	_, err = LoadAndBuild(Config{PubPath: filepath.Join(dir, "missing.pem")})
	assert.Error(t, err)

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	_, err = LoadRSAPublicKeyFromPEM(garbage)
	assert.Error(t, err)
}
