package service

import (
	"context"

	"satbridge/internal/models"
)

// MessageStore is the read-only view of the device datastore the tailer
// needs.
type MessageStore interface {
	MaxMessageID(ctx context.Context) (int64, error)
	MessagesAfter(ctx context.Context, cursor int64, limit int) ([]models.Message, error)
	RecentMessages(ctx context.Context, n int) ([]models.Message, error)
	ThreadAddress(ctx context.Context, threadID int64) (string, error)
	AttachmentFile(ctx context.Context, attachmentID string) (models.AttachmentFile, error)
}

// SubscriptionRegistry is the mutable subscription state shared with the
// provisioning endpoint.
type SubscriptionRegistry interface {
	Get(msisdn string) (map[string]models.Subscription, error)
	ActiveTargets(msisdn string) ([]models.Subscription, error)
	Upsert(msisdn, name string, status models.SubscriptionStatus, code, url, token string) (bool, error)
	Activate(msisdn, name, code string) (bool, error)
	Deactivate(msisdn, name string) error
	DeactivateAll(msisdn string) error
}

// SeenLedger is the dedup record of processed message keys.
type SeenLedger interface {
	Seen(key string) bool
	MarkSeen(key string)
}

// MediaResolver locates an attachment file on disk, returning "" while the
// file has not materialized.
type MediaResolver interface {
	Resolve(fileID, attachmentID string) string
}

// MediaForwarder is one outbound path for a resolved media message. The
// returned flag feeds the AND across paths that gates source-file deletion:
// true means the path has no further claim on the file (delivered to all of
// its targets, or the message was out of the path's scope), false means the
// file must be kept. A sender with no active webhook subscriptions is a
// false, never a deletable success.
type MediaForwarder interface {
	ForwardMedia(ctx context.Context, msg models.Message, msisdn, attachmentID, path string) (bool, error)
}
