package registry

import (
	"os"
	"path/filepath"
	"testing"

	"satbridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	dir := t.TempDir()
	r, err := New(filepath.Join(dir, "subs.json"))
	require.NoError(t, err)
	return r
}

func TestUpsertCreateAndUpdate(t *testing.T) {
	r := newTestRegistry(t)

	existed, err := r.Upsert("+4712345678", "Alice", models.SubscriptionPending, "1234", "https://example.com/hook", "tok-1")
	require.NoError(t, err)
	assert.False(t, existed)

	subs, err := r.Get("+4712345678")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	sub := subs["alice"]
	assert.Equal(t, "Alice", sub.Name)
	assert.Equal(t, models.SubscriptionPending, sub.Status)
	assert.Equal(t, "tok-1", sub.BearerToken)

	// Re-provisioning the same pair (any casing) updates in place.
	existed, err = r.Upsert("+4712345678", "ALICE", models.SubscriptionPending, "9999", "https://example.com/hook2", "tok-2")
	require.NoError(t, err)
	assert.True(t, existed)

	subs, err = r.Get("+4712345678")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	updated := subs["alice"]
	assert.Equal(t, "Alice", updated.Name, "display name preserved on update")
	assert.Equal(t, "9999", updated.VerifyCode)
	assert.Equal(t, "tok-2", updated.BearerToken)
	assert.Equal(t, sub.CreatedAt, updated.CreatedAt, "identity preserved on update")
}

func TestActivate(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Upsert("+4712345678", "Alice", models.SubscriptionPending, "1234", "https://example.com/hook", "tok")
	require.NoError(t, err)

	tests := []struct {
		name   string
		msisdn string
		sub    string
		code   string
		want   bool
	}{
		{"correct code", "+4712345678", "alice", "1234", true},
		{"case-insensitive name", "+4712345678", "ALICE", "1234", true},
		{"wrong code", "+4712345678", "alice", "0000", false},
		{"unknown name", "+4712345678", "bob", "1234", false},
		{"unknown sender", "+4700000000", "alice", "1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := r.Activate(tt.msisdn, tt.sub, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	// Activate never creates entries.
	subs, err := r.Get("+4700000000")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestDeactivateOneAndAll(t *testing.T) {
	r := newTestRegistry(t)

	for _, name := range []string{"alice", "bob"} {
		_, err := r.Upsert("+47111", name, models.SubscriptionPending, "1", "https://example.com/"+name, "t")
		require.NoError(t, err)
		ok, err := r.Activate("+47111", name, "1")
		require.NoError(t, err)
		require.True(t, ok)
	}

	require.NoError(t, r.Deactivate("+47111", "Alice"))

	targets, err := r.ActiveTargets("+47111")
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "bob", targets[0].Name)

	require.NoError(t, r.DeactivateAll("+47111"))

	targets, err = r.ActiveTargets("+47111")
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestDeactivateUnknownIsNoOp(t *testing.T) {
	r := newTestRegistry(t)
	assert.NoError(t, r.Deactivate("+47111", "ghost"))
	assert.NoError(t, r.DeactivateAll("+47111"))
}

func TestPersistenceAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subs.json")

	r1, err := New(path)
	require.NoError(t, err)
	_, err = r1.Upsert("+47111", "Alice", models.SubscriptionPending, "1234", "https://example.com/hook", "tok")
	require.NoError(t, err)

	r2, err := New(path)
	require.NoError(t, err)
	subs, err := r2.Get("+47111")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Alice", subs["alice"].Name)
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subs.json")

	r, err := New(path)
	require.NoError(t, err)
	_, err = r.Upsert("+47111", "alice", models.SubscriptionPending, "1", "https://example.com", "t")
	require.NoError(t, err)

	// No temp file left behind after a successful save.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(path)
	assert.NoError(t, err)
}
