package constants

// Default polling configuration values
const (
	DefaultPollIntervalSec    = 1
	DefaultTailLimit          = 200
	DefaultBootReplay         = 5
	DefaultPendingMaxAgeHours = 24
)

// Default delivery configuration values
const (
	DefaultHTTPTimeoutSec = 15
	DefaultDeleteDelaySec = 2
)

// Default provisioning endpoint values
const (
	DefaultProvisionBind   = "127.0.0.1"
	DefaultProvisionPort   = 8788
	MinProvisionSecretLen  = 16
	DefaultServerReadSec   = 15
	DefaultServerWriteSec  = 15
	DefaultServerIdleSec   = 60
	GracefulShutdownSec    = 10
	ServerErrorChannelSize = 1
)

// Log field lengths for masking
const (
	TokenMaskPrefixLen = 6
	PhoneMaskDigits    = 4
)

// Dedup ledger bounds: the seen file is trimmed back to SeenTrimKeep lines
// once it grows past SeenTrimBytes.
const (
	SeenTrimBytes = 1024 * 1024
	SeenTrimKeep  = 5000
)

// Default email forward values
const (
	DefaultSMTPPort    = 587
	DefaultMaxAttachMB = 5
	DefaultMapZoom     = 14
	DefaultMapLayer    = "P"
)

// Datastore open retry values
const (
	DatastoreRetryAttempts  = 3
	DatastoreInitialDelayMs = 500
	DatastoreMaxDelayMs     = 5000
	DatastoreBusyTimeoutMs  = 2500
)

// DefaultDeliveryBackoffSec is the fixed retry schedule applied after the
// immediate first attempt of a webhook delivery.
var DefaultDeliveryBackoffSec = []int{1, 4, 10}

// DefaultMediaExtensions is the extension probe order for attachment files.
var DefaultMediaExtensions = []string{"avif", "jpg", "jpeg", "png", "ogg", "oga", "mp4", "m4a"}

// MediaSubdirs is the directory probe order under the media root. The empty
// entry means the root itself. High resolution wins over previews.
var MediaSubdirs = []string{"high", "preview", "low", "audio", ""}
