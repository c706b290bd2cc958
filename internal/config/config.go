package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"satbridge/internal/constants"
	"satbridge/internal/models"
)

var (
	ErrMissingDatastore = models.ConfigError{Message: "missing datastore path"}
	ErrMissingMediaRoot = models.ConfigError{Message: "missing media root directory"}
)

// Load reads the JSON config file, applies environment overrides, fills in
// defaults and validates. The datastore and media root must exist on disk at
// startup; everything else degrades to a warning or a default.
func Load(path string) (*models.Config, error) {
	var config models.Config

	if path != "" {
		file, err := os.ReadFile(path) // #nosec G304 - operator-supplied config path
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := json.Unmarshal(file, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvironmentOverrides(&config)
	applyDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Datastore.Path = v
	}
	if v := os.Getenv("MEDIA_ROOT"); v != "" {
		c.Media.RootDir = v
	}
	if v := os.Getenv("STATE_DIR"); v != "" {
		c.State.Dir = v
	}
	// SECURITY: the provisioning secret should come from the environment.
	if v := os.Getenv("PROVISION_SECRET"); v != "" {
		c.Provision.Secret = v
	}
	if v := os.Getenv("PROVISION_BIND"); v != "" {
		c.Provision.Bind = v
	}
	if v := os.Getenv("PROVISION_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Provision.Port = port
		}
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.Email.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Email.Port = port
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		c.Email.User = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		c.Email.From = v
	}
}

func applyDefaults(c *models.Config) {
	if c.State.Dir == "" {
		c.State.Dir = "/var/lib/satbridge"
	}
	if c.State.SubsFile == "" {
		c.State.SubsFile = filepath.Join(c.State.Dir, "subs.json")
	}
	if c.State.SeenFile == "" {
		c.State.SeenFile = filepath.Join(c.State.Dir, "seen.txt")
	}
	if c.Poll.IntervalSec <= 0 {
		c.Poll.IntervalSec = constants.DefaultPollIntervalSec
	}
	if c.Poll.TailLimit <= 0 {
		c.Poll.TailLimit = constants.DefaultTailLimit
	}
	if c.Poll.BootReplay < 0 {
		c.Poll.BootReplay = 0
	} else if c.Poll.BootReplay == 0 {
		c.Poll.BootReplay = constants.DefaultBootReplay
	}
	if c.Poll.PendingMaxAgeHours == 0 {
		c.Poll.PendingMaxAgeHours = constants.DefaultPendingMaxAgeHours
	}
	if c.Forward.Mode == "" {
		c.Forward.Mode = models.ForwardModeBase64
	}
	if c.Forward.CaptionTargeting == nil {
		c.Forward.CaptionTargeting = boolPtr(true)
	}
	if c.Forward.TargetWordStrip == nil {
		c.Forward.TargetWordStrip = boolPtr(true)
	}
	if c.Forward.DeleteOnSuccess == nil {
		c.Forward.DeleteOnSuccess = boolPtr(true)
	}
	if c.Forward.DeleteDelaySec <= 0 {
		c.Forward.DeleteDelaySec = constants.DefaultDeleteDelaySec
	}
	if len(c.Media.Extensions) == 0 {
		c.Media.Extensions = constants.DefaultMediaExtensions
	}
	if c.Provision.Bind == "" {
		c.Provision.Bind = constants.DefaultProvisionBind
	}
	if c.Provision.Port <= 0 {
		c.Provision.Port = constants.DefaultProvisionPort
	}
	if c.Delivery.HTTPTimeoutSec <= 0 {
		c.Delivery.HTTPTimeoutSec = constants.DefaultHTTPTimeoutSec
	}
	if len(c.Delivery.BackoffSec) == 0 {
		c.Delivery.BackoffSec = constants.DefaultDeliveryBackoffSec
	}
	if c.Email.Port <= 0 {
		c.Email.Port = constants.DefaultSMTPPort
	}
	if c.Email.UseTLS == nil {
		c.Email.UseTLS = boolPtr(true)
	}
	if c.Email.MaxAttachMB <= 0 {
		c.Email.MaxAttachMB = constants.DefaultMaxAttachMB
	}
	if c.Email.MapZoom <= 0 {
		c.Email.MapZoom = constants.DefaultMapZoom
	}
	if c.Email.MapLayer == "" {
		c.Email.MapLayer = constants.DefaultMapLayer
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "satbridge"
	}
	if c.Tracing.SampleRate <= 0 {
		c.Tracing.SampleRate = 0.1
	}
}

func validate(c *models.Config) error {
	if c.Datastore.Path == "" {
		return ErrMissingDatastore
	}
	if info, err := os.Stat(c.Datastore.Path); err != nil || info.IsDir() {
		return models.ConfigError{Message: fmt.Sprintf("datastore not found: %s", c.Datastore.Path)}
	}
	if c.Media.RootDir == "" {
		return ErrMissingMediaRoot
	}
	if info, err := os.Stat(c.Media.RootDir); err != nil || !info.IsDir() {
		return models.ConfigError{Message: fmt.Sprintf("media root not found: %s", c.Media.RootDir)}
	}
	if err := os.MkdirAll(c.State.Dir, 0750); err != nil {
		return models.ConfigError{Message: fmt.Sprintf("cannot create state dir %s: %v", c.State.Dir, err)}
	}
	return nil
}

// WeakSecret reports whether the provisioning secret is missing or too short
// to be trusted. A weak secret is a warning at startup, not an abort: the
// endpoint rejects every request until a secret is configured.
func WeakSecret(c *models.Config) bool {
	return len(c.Provision.Secret) < constants.MinProvisionSecretLen
}

func boolPtr(b bool) *bool {
	return &b
}
