package models

import "time"

// Message is one row of the device app's message log. The bridge only ever
// reads these; the companion app owns the table.
type Message struct {
	ID                int64    `db:"id"`
	ThreadID          int64    `db:"message_thread_id"`
	SentTime          int64    `db:"sent_time"`
	Text              string   `db:"text"`
	MediaAttachmentID *string  `db:"media_attachment_id"`
	Latitude          *float64 `db:"latitude"`
	Longitude         *float64 `db:"longitude"`
	Altitude          *float64 `db:"altitude"`
}

// HasMedia reports whether the row references a media attachment.
func (m Message) HasMedia() bool {
	return m.MediaAttachmentID != nil && *m.MediaAttachmentID != ""
}

// AttachmentID returns the attachment id or "" for text rows.
func (m Message) AttachmentID() string {
	if m.MediaAttachmentID == nil {
		return ""
	}
	return *m.MediaAttachmentID
}

// SentLocal converts the row's sent_time to local wall-clock time. The app
// writes either epoch seconds or milliseconds depending on version.
func (m Message) SentLocal() time.Time {
	s := m.SentTime
	if s > 1_000_000_000_000 {
		s /= 1000
	}
	return time.Unix(s, 0)
}

// AttachmentFile is the result of the attachment lookup: the declared media
// type and, once the file record has been populated, a file id that is more
// specific than the attachment id.
type AttachmentFile struct {
	MediaType string
	FileID    string
}

// PendingAttachment tracks a media message whose backing file has not yet
// appeared on disk. Held in memory by the tailer only.
type PendingAttachment struct {
	Msisdn      string
	MessageID   int64
	FileID      string
	Message     Message
	FirstSeenAt time.Time
	GiveUpAfter time.Time
}
