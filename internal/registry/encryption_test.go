package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"satbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptorPassthroughWithoutKey(t *testing.T) {
	t.Setenv("SATBRIDGE_SUBS_KEY", "")

	e, err := newEncryptor()
	require.NoError(t, err)

	out, err := e.encrypt("secret-token")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", out)

	back, err := e.decrypt(out)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", back)
}

func TestEncryptorRoundTrip(t *testing.T) {
	t.Setenv("SATBRIDGE_SUBS_KEY", "a-long-enough-test-key")

	e, err := newEncryptor()
	require.NoError(t, err)

	out, err := e.encrypt("secret-token")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "enc:"))
	assert.NotContains(t, out, "secret-token")

	back, err := e.decrypt(out)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", back)
}

func TestEncryptorRejectsShortKey(t *testing.T) {
	t.Setenv("SATBRIDGE_SUBS_KEY", "short")

	_, err := newEncryptor()
	assert.Error(t, err)
}

func TestEncryptorReadsPlaintextLegacyValue(t *testing.T) {
	t.Setenv("SATBRIDGE_SUBS_KEY", "a-long-enough-test-key")

	e, err := newEncryptor()
	require.NoError(t, err)

	// Values written before encryption was enabled pass through unchanged.
	back, err := e.decrypt("legacy-plaintext-token")
	require.NoError(t, err)
	assert.Equal(t, "legacy-plaintext-token", back)
}

func TestRegistryStoresEncryptedToken(t *testing.T) {
	t.Setenv("SATBRIDGE_SUBS_KEY", "a-long-enough-test-key")

	dir := t.TempDir()
	path := filepath.Join(dir, "subs.json")
	r, err := New(path)
	require.NoError(t, err)

	_, err = r.Upsert("+47111", "alice", models.SubscriptionPending, "1", "https://example.com", "super-secret")
	require.NoError(t, err)

	subs, err := r.Get("+47111")
	require.NoError(t, err)
	assert.Equal(t, "super-secret", subs["alice"].BearerToken, "Get returns the decrypted token")

	raw := readFile(t, path)
	assert.NotContains(t, raw, "super-secret", "token is not stored in plaintext")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
