package models

// Config holds the application configuration
type Config struct {
	Datastore DatastoreConfig `json:"datastore"`
	Media     MediaConfig     `json:"media"`
	State     StateConfig     `json:"state"`
	Poll      PollConfig      `json:"poll"`
	Forward   ForwardConfig   `json:"forward"`
	Provision ProvisionConfig `json:"provision"`
	Email     EmailConfig     `json:"email"`
	Delivery  DeliveryConfig  `json:"delivery"`
	Tracing   TracingConfig   `json:"tracing"`
	LogLevel  string          `json:"log_level"`
}

// DatastoreConfig points at the device app's sqlite database. The bridge
// opens it read-only.
type DatastoreConfig struct {
	Path string `json:"path"`
}

// MediaConfig describes where attachment files materialize and how they are
// matched.
type MediaConfig struct {
	RootDir    string   `json:"root_dir"`
	Extensions []string `json:"extensions"`
}

// StateConfig holds the bridge's own durable state files.
type StateConfig struct {
	Dir      string `json:"dir"`
	SubsFile string `json:"subs_file"`
	SeenFile string `json:"seen_file"`
}

// PollConfig controls the change tailer.
type PollConfig struct {
	IntervalSec        int `json:"interval_sec"`
	TailLimit          int `json:"tail_limit"`
	BootReplay         int `json:"boot_replay"`
	PendingMaxAgeHours int `json:"pending_max_age_hours"`
}

// ForwardConfig controls webhook payload shape and caption routing.
type ForwardConfig struct {
	Mode             ForwardMode `json:"mode"`
	CaptionTargeting *bool       `json:"caption_targeting"`
	TargetWordStrip  *bool       `json:"target_word_strip"`
	DeleteOnSuccess  *bool       `json:"delete_on_success"`
	DeleteDelaySec   int         `json:"delete_delay_sec"`
}

// ProvisionConfig configures the inbound provisioning HTTP endpoint.
type ProvisionConfig struct {
	Bind   string `json:"bind"`
	Port   int    `json:"port"`
	Secret string `json:"secret"`
}

// EmailConfig configures the parallel email forward path. Disabled unless
// Host is set.
type EmailConfig struct {
	Host               string   `json:"host"`
	Port               int      `json:"port"`
	User               string   `json:"user"`
	Password           string   `json:"password"`
	From               string   `json:"from"`
	UseTLS             *bool    `json:"use_tls"`
	UseFixedRecipients bool     `json:"use_fixed_recipients"`
	FixedRecipients    []string `json:"fixed_recipients"`
	MaxAttachMB        int      `json:"max_attach_mb"`
	MapZoom            int      `json:"map_zoom"`
	MapLayer           string   `json:"map_layer"`
}

// DeliveryConfig controls the webhook delivery engine.
type DeliveryConfig struct {
	HTTPTimeoutSec int   `json:"http_timeout_sec"`
	BackoffSec     []int `json:"backoff_sec"`
}

// TracingConfig contains OpenTelemetry configuration.
type TracingConfig struct {
	Enabled        bool    `json:"enabled"`
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	UseStdout      bool    `json:"use_stdout"`
}

// Enabled reports whether the email path is configured at all.
func (e EmailConfig) Enabled() bool {
	return e.Host != ""
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
