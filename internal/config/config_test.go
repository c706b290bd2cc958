package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satbridge/internal/constants"
	"satbridge/internal/models"
)

// fixture creates a datastore file and media dir so validation passes, and
// returns a config file pointing at them.
func fixture(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "messages.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite"), 0600))
	mediaDir := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(mediaDir, 0750))

	content := `{
		"datastore": {"path": "` + dbPath + `"},
		"media": {"root_dir": "` + mediaDir + `"},
		"state": {"dir": "` + filepath.Join(dir, "state") + `"}` + extra + `
	}`
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0600))
	return cfgPath
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(fixture(t, ""))
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultPollIntervalSec, cfg.Poll.IntervalSec)
	assert.Equal(t, constants.DefaultTailLimit, cfg.Poll.TailLimit)
	assert.Equal(t, constants.DefaultBootReplay, cfg.Poll.BootReplay)
	assert.Equal(t, constants.DefaultPendingMaxAgeHours, cfg.Poll.PendingMaxAgeHours)
	assert.Equal(t, models.ForwardModeBase64, cfg.Forward.Mode)
	require.NotNil(t, cfg.Forward.CaptionTargeting)
	assert.True(t, *cfg.Forward.CaptionTargeting)
	require.NotNil(t, cfg.Forward.DeleteOnSuccess)
	assert.True(t, *cfg.Forward.DeleteOnSuccess)
	assert.Equal(t, constants.DefaultProvisionBind, cfg.Provision.Bind)
	assert.Equal(t, constants.DefaultProvisionPort, cfg.Provision.Port)
	assert.Equal(t, constants.DefaultDeliveryBackoffSec, cfg.Delivery.BackoffSec)
	assert.Equal(t, constants.DefaultSMTPPort, cfg.Email.Port)
	assert.Equal(t, "satbridge", cfg.Tracing.ServiceName)
	assert.Equal(t, filepath.Join(cfg.State.Dir, "subs.json"), cfg.State.SubsFile)
	assert.Equal(t, filepath.Join(cfg.State.Dir, "seen.txt"), cfg.State.SeenFile)
}

func TestLoadCreatesStateDir(t *testing.T) {
	cfg, err := Load(fixture(t, ""))
	require.NoError(t, err)

	info, err := os.Stat(cfg.State.Dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	cfg, err := Load(fixture(t, `,
		"poll": {"interval_sec": 5, "tail_limit": 50},
		"forward": {"mode": "file_url", "caption_targeting": false}`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Poll.IntervalSec)
	assert.Equal(t, 50, cfg.Poll.TailLimit)
	assert.Equal(t, models.ForwardModeFileURL, cfg.Forward.Mode)
	require.NotNil(t, cfg.Forward.CaptionTargeting)
	assert.False(t, *cfg.Forward.CaptionTargeting)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PROVISION_SECRET", "env-secret-0123456789")
	t.Setenv("PROVISION_PORT", "9000")
	t.Setenv("SMTP_HOST", "mail.example.org")

	cfg, err := Load(fixture(t, `,
		"provision": {"secret": "file-secret", "port": 8788}`))
	require.NoError(t, err)

	assert.Equal(t, "env-secret-0123456789", cfg.Provision.Secret)
	assert.Equal(t, 9000, cfg.Provision.Port)
	assert.Equal(t, "mail.example.org", cfg.Email.Host)
	assert.True(t, cfg.Email.Enabled())
}

func TestLoadMissingDatastore(t *testing.T) {
	dir := t.TempDir()
	mediaDir := filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(mediaDir, 0750))
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"media": {"root_dir": "`+mediaDir+`"}}`), 0600))

	_, err := Load(cfgPath)
	assert.ErrorIs(t, err, ErrMissingDatastore)
}

func TestLoadDatastoreNotAFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "media"), 0750))
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{
		"datastore": {"path": "`+dir+`"},
		"media": {"root_dir": "`+filepath.Join(dir, "media")+`"}
	}`), 0600))

	_, err := Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "datastore not found")
}

func TestLoadMissingMediaRoot(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "messages.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite"), 0600))
	cfgPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"datastore": {"path": "`+dbPath+`"}}`), 0600))

	_, err := Load(cfgPath)
	assert.ErrorIs(t, err, ErrMissingMediaRoot)
}

func TestLoadInvalidJSON(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte("{not json"), 0600))

	_, err := Load(cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadUnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestWeakSecret(t *testing.T) {
	assert.True(t, WeakSecret(&models.Config{}))
	assert.True(t, WeakSecret(&models.Config{Provision: models.ProvisionConfig{Secret: "short"}}))
	assert.False(t, WeakSecret(&models.Config{Provision: models.ProvisionConfig{Secret: "0123456789abcdef"}}))
}
