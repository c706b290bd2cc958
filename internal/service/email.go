package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"satbridge/internal/models"
	"satbridge/internal/privacy"
	"satbridge/pkg/mailer"

	"github.com/sirupsen/logrus"
)

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	// One or more addresses at the start of the caption, separated by comma
	// or semicolon, optional mailto: prefix, then the rest of the caption.
	leadingRecipientsRe = regexp.MustCompile(
		`^(?:mailto:)?\s*((?:[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\s*[;,]\s*)*` +
			`(?:[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}))\s*([\s\S]*)$`)
	recipientSplitRe = regexp.MustCompile(`[;,]`)
)

// EmailForwarder is the parallel email delivery path: recipients come from
// the leading address list of the caption (or a fixed configured list), the
// attachment rides along subject to a size cap, and threading headers keep
// one device thread in one mail thread.
type EmailForwarder struct {
	sender mailer.Sender
	cfg    models.EmailConfig
	domain string
	logger *logrus.Logger
}

func NewEmailForwarder(sender mailer.Sender, cfg models.EmailConfig, logger *logrus.Logger) *EmailForwarder {
	domain := "local"
	if i := strings.LastIndex(cfg.From, "@"); i >= 0 && i < len(cfg.From)-1 {
		domain = cfg.From[i+1:]
	}
	return &EmailForwarder{sender: sender, cfg: cfg, domain: domain, logger: logger}
}

// ForwardMedia composes and sends one email for a resolved media message.
// Returns true when the message was either sent or deliberately skipped
// (no recipients, oversized attachment); only transport failures count
// against the all-paths success flag.
func (ef *EmailForwarder) ForwardMedia(ctx context.Context, msg models.Message, msisdn, attachmentID, path string) (bool, error) {
	var recipients []string
	var bodyCaption string

	if ef.cfg.UseFixedRecipients {
		recipients = append(recipients, ef.cfg.FixedRecipients...)
		bodyCaption = strings.TrimSpace(msg.Text)
	} else {
		recipients, bodyCaption = ParseRecipients(msg.Text)
		if len(recipients) == 0 {
			ef.logger.WithField("id", msg.ID).Info("Email skip: caption does not start with recipient address(es)")
			return true, nil
		}
	}
	if len(recipients) == 0 {
		ef.logger.WithField("id", msg.ID).Info("Email skip: no recipients configured")
		return true, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat attachment: %w", err)
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)
	if ef.cfg.MaxAttachMB > 0 && sizeMB > float64(ef.cfg.MaxAttachMB) {
		ef.logger.WithFields(logrus.Fields{
			"id":      msg.ID,
			"file":    filepath.Base(path),
			"size_mb": fmt.Sprintf("%.2f", sizeMB),
			"max_mb":  ef.cfg.MaxAttachMB,
		}).Info("Email skip: attachment too large")
		return true, nil
	}

	filename := filepath.Base(path)
	sentLocal := msg.SentLocal().Format("2006-01-02 15:04:05")
	subject := fmt.Sprintf("[satbridge] %s • %s • %s", msisdn, sentLocal, filename)

	body := ef.composeBody(msg, msisdn, bodyCaption, filename, sentLocal)
	headers := map[string]string{
		"Message-ID":  fmt.Sprintf("<satbridge-%d-%s@%s>", msg.ID, attachmentID, ef.domain),
		"In-Reply-To": fmt.Sprintf("<satbridge-thread-%d@%s>", msg.ThreadID, ef.domain),
		"References":  fmt.Sprintf("<satbridge-thread-%d@%s>", msg.ThreadID, ef.domain),
	}

	if err := ef.sender.Send(ctx, recipients, subject, body, []string{path}, headers); err != nil {
		ef.logger.WithError(err).WithField("id", msg.ID).Warn("Email send failed")
		return false, nil
	}

	ef.logger.WithFields(logrus.Fields{
		"id":         msg.ID,
		"recipients": len(recipients),
		"file":       filename,
		"msisdn":     privacy.MaskMsisdn(msisdn),
	}).Info("Email sent")
	return true, nil
}

func (ef *EmailForwarder) composeBody(msg models.Message, msisdn, caption, filename, sentLocal string) string {
	from := msisdn
	if from == "" {
		from = "(unknown)"
	}
	if caption == "" {
		caption = "(empty)"
	}

	lines := []string{
		"From: " + from,
		"Caption: " + caption,
	}
	if msg.Latitude != nil && msg.Longitude != nil {
		lines = append(lines,
			fmt.Sprintf("Location: %.6f, %.6f", *msg.Latitude, *msg.Longitude),
			"Map: "+ef.mapURL(*msg.Latitude, *msg.Longitude),
		)
	}
	if msg.Altitude != nil {
		lines = append(lines, fmt.Sprintf("Altitude: %.1f m", *msg.Altitude))
	}
	lines = append(lines,
		"Sent: "+sentLocal,
		fmt.Sprintf("Message ID: %d", msg.ID),
		"Attachment: "+filename,
		"Note: the messenger app may delay secondary attachments. Send one file per message for best results.",
	)
	return strings.Join(lines, "\n")
}

func (ef *EmailForwarder) mapURL(lat, lon float64) string {
	return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.6f&mlon=%.6f#map=%d/%.6f/%.6f&layers=%s",
		lat, lon, ef.cfg.MapZoom, lat, lon, ef.cfg.MapLayer)
}

// ParseRecipients extracts one or more leading email addresses from a
// caption (comma/semicolon separated, optional mailto: prefix) and returns
// them with the remaining caption text. When the caption does not start
// with a valid address list it returns (nil, caption) unchanged.
func ParseRecipients(caption string) ([]string, string) {
	s := strings.TrimSpace(caption)
	if s == "" {
		return nil, ""
	}

	m := leadingRecipientsRe.FindStringSubmatch(s)
	if m == nil {
		return nil, s
	}

	var recipients []string
	for _, part := range recipientSplitRe.Split(m[1], -1) {
		addr := strings.Trim(strings.TrimSpace(part), ",;:")
		if addr == "" {
			continue
		}
		if !emailRe.MatchString(addr) {
			return nil, s
		}
		recipients = append(recipients, addr)
	}
	if len(recipients) == 0 {
		return nil, s
	}
	return recipients, strings.TrimSpace(m[2])
}
