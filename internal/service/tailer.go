package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"satbridge/internal/models"
	"satbridge/internal/privacy"

	"github.com/sirupsen/logrus"
)

// TailerConfig controls the polling loop.
type TailerConfig struct {
	Interval      time.Duration
	TailLimit     int
	BootReplay    int
	PendingMaxAge time.Duration // 0 = retry unresolved attachments forever

	DeleteOnSuccess bool
	DeleteDelay     time.Duration
}

// Tailer polls the device datastore for new message rows and drives the
// whole pipeline: text rows go to the command interpreter, media rows are
// resolved on disk (parking in the pending set until the file appears) and
// handed to every configured forward path. The tailer is the only writer of
// the cursor and the pending map.
type Tailer struct {
	store      MessageStore
	resolver   MediaResolver
	ledger     SeenLedger
	commands   *CommandInterpreter
	forwarders []MediaForwarder
	config     TailerConfig
	logger     *logrus.Logger

	cursor  int64
	pending map[string]models.PendingAttachment

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

func NewTailer(store MessageStore, resolver MediaResolver, ledger SeenLedger, commands *CommandInterpreter, forwarders []MediaForwarder, config TailerConfig, logger *logrus.Logger) *Tailer {
	return &Tailer{
		store:      store,
		resolver:   resolver,
		ledger:     ledger,
		commands:   commands,
		forwarders: forwarders,
		config:     config,
		logger:     logger,
		pending:    make(map[string]models.PendingAttachment),
	}
}

// Start initializes the cursor, replays recent rows for visibility and
// launches the polling goroutine.
func (t *Tailer) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("tailer is already running")
	}

	maxID, err := t.store.MaxMessageID(ctx)
	if err != nil {
		t.logger.WithError(err).Warn("Failed to initialize cursor, starting from 0")
	}
	t.cursor = maxID

	t.bootReplay(ctx)

	t.ctx, t.cancel = context.WithCancel(ctx)
	t.running = true

	t.wg.Add(1)
	go t.pollLoop()

	t.logger.WithFields(logrus.Fields{
		"interval": t.config.Interval,
		"tail":     t.config.TailLimit,
		"cursor":   t.cursor,
	}).Info("Change tailer started")

	return nil
}

// Stop gracefully stops the polling loop.
func (t *Tailer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.cancel()
	t.wg.Wait()
	t.running = false
	t.logger.Info("Change tailer stopped")
}

// IsRunning reports whether the poll loop is active.
func (t *Tailer) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Cursor returns the highest message id observed. The cursor and the
// pending map are owned by the polling goroutine; call only while the loop
// is stopped or between synchronous Ticks.
func (t *Tailer) Cursor() int64 {
	return t.cursor
}

// PendingCount returns the number of unresolved attachments.
func (t *Tailer) PendingCount() int {
	return len(t.pending)
}

// bootReplay logs the most recent rows without touching the cursor.
func (t *Tailer) bootReplay(ctx context.Context) {
	if t.config.BootReplay <= 0 {
		return
	}
	msgs, err := t.store.RecentMessages(ctx, t.config.BootReplay)
	if err != nil {
		t.logger.WithError(err).Debug("Boot replay failed")
		return
	}
	for _, m := range msgs {
		msisdn, _ := t.store.ThreadAddress(ctx, m.ThreadID)
		t.logger.WithFields(logrus.Fields{
			"id":     m.ID,
			"msisdn": privacy.MaskMsisdn(msisdn),
			"media":  m.HasMedia(),
			"sent":   m.SentLocal().Format(time.DateTime),
		}).Info("[boot] recent message")
	}
}

func (t *Tailer) pollLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.Tick(t.ctx)
		}
	}
}

// Tick runs one poll pass: new rows in ascending id order, then a rescan of
// the pending set. Datastore errors are logged and retried next tick; the
// tailer never terminates on a transient read error.
func (t *Tailer) Tick(ctx context.Context) {
	msgs, err := t.store.MessagesAfter(ctx, t.cursor, t.config.TailLimit)
	if err != nil {
		t.logger.WithError(err).Warn("Datastore read failed, retrying next tick")
		return
	}

	for _, msg := range msgs {
		// Advance unconditionally so a failing row cannot stall the loop.
		if msg.ID > t.cursor {
			t.cursor = msg.ID
		}

		msisdn, err := t.store.ThreadAddress(ctx, msg.ThreadID)
		if err != nil {
			t.logger.WithError(err).WithField("id", msg.ID).Warn("Thread lookup failed")
		}

		if msg.HasMedia() {
			t.handleMedia(ctx, msg, msisdn)
		} else {
			t.logger.WithFields(logrus.Fields{
				"id":     msg.ID,
				"msisdn": privacy.MaskMsisdn(msisdn),
			}).Debug("Text message")
			t.commands.HandleText(msisdn, msg.Text)
		}
	}

	t.rescanPending(ctx)
}

func (t *Tailer) handleMedia(ctx context.Context, msg models.Message, msisdn string) {
	attachID := msg.AttachmentID()

	af, err := t.store.AttachmentFile(ctx, attachID)
	if err != nil {
		t.logger.WithError(err).WithField("attach", attachID).Debug("Attachment lookup failed")
	}
	if af.FileID == "" {
		t.logger.WithField("attach", attachID).Debug("No file id yet, will try attachment id on disk")
	}

	entry := models.PendingAttachment{
		Msisdn:      msisdn,
		MessageID:   msg.ID,
		FileID:      af.FileID,
		Message:     msg,
		FirstSeenAt: time.Now(),
	}
	if t.config.PendingMaxAge > 0 {
		entry.GiveUpAfter = entry.FirstSeenAt.Add(t.config.PendingMaxAge)
	}
	t.pending[attachID] = entry

	path := t.resolver.Resolve(af.FileID, attachID)
	if path == "" {
		t.logger.WithField("attach", attachID).Debug("File not present yet, parked as pending")
		return
	}

	t.forwardResolved(ctx, entry, attachID, path)
	delete(t.pending, attachID)
}

// rescanPending re-probes every unresolved attachment and drops entries past
// their deadline.
func (t *Tailer) rescanPending(ctx context.Context) {
	now := time.Now()
	for attachID, entry := range t.pending {
		path := t.resolver.Resolve(entry.FileID, attachID)
		if path != "" {
			t.forwardResolved(ctx, entry, attachID, path)
			delete(t.pending, attachID)
			continue
		}
		if !entry.GiveUpAfter.IsZero() && now.After(entry.GiveUpAfter) {
			// The file never materialized; mark the id seen so a file
			// appearing much later cannot trigger a surprise delivery.
			t.logger.WithFields(logrus.Fields{
				"attach": attachID,
				"id":     entry.MessageID,
				"age":    now.Sub(entry.FirstSeenAt).Round(time.Second),
			}).Warn("Giving up on pending attachment")
			t.ledger.MarkSeen(seenKey(entry.MessageID))
			delete(t.pending, attachID)
		}
	}
}

// forwardResolved runs every forward path for a resolved attachment, marks
// the message seen, and deletes the source file when all paths fully
// succeeded and deletion is enabled.
func (t *Tailer) forwardResolved(ctx context.Context, entry models.PendingAttachment, attachID, path string) {
	key := seenKey(entry.MessageID)
	if t.ledger.Seen(key) {
		return
	}

	allOK := true
	for _, fw := range t.forwarders {
		ok, err := fw.ForwardMedia(ctx, entry.Message, entry.Msisdn, attachID, path)
		if err != nil {
			t.logger.WithError(err).WithField("id", entry.MessageID).Warn("Forward failed")
			allOK = false
			continue
		}
		if !ok {
			allOK = false
		}
	}

	// Seen is recorded per delivery pass regardless of target success; only
	// file deletion is gated on full success.
	t.ledger.MarkSeen(key)

	if allOK && t.config.DeleteOnSuccess {
		t.deleteSource(ctx, path)
	}
}

func (t *Tailer) deleteSource(ctx context.Context, path string) {
	if t.config.DeleteDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.config.DeleteDelay):
		}
	}
	if err := os.Remove(path); err != nil {
		t.logger.WithError(err).WithField("path", path).Debug("Failed to delete source file")
		return
	}
	t.logger.WithField("path", path).Info("Deleted source media file")
}

func seenKey(messageID int64) string {
	return fmt.Sprintf("msg:%d", messageID)
}
