package ledger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"satbridge/internal/constants"

	"github.com/sirupsen/logrus"
)

// Ledger is the dedup record of processed message keys: an append-only file
// plus an in-memory set. The set is the source of truth for membership; the
// file only rebuilds it across restarts and is trimmed to a recent tail so
// it cannot grow without bound.
type Ledger struct {
	path   string
	logger *logrus.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func New(path string, logger *logrus.Logger) (*Ledger, error) {
	l := &Ledger{
		path:   path,
		logger: logger,
		seen:   make(map[string]struct{}),
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Seen reports whether the key has been processed before.
func (l *Ledger) Seen(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[key]
	return ok
}

// MarkSeen records a processed key. Idempotent: re-marking a known key keeps
// membership true and appends a duplicate line, which the trim absorbs.
func (l *Ledger) MarkSeen(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen[key] = struct{}{}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		l.logger.WithError(err).Warn("Failed to open seen ledger for append")
		return
	}
	if _, err := f.WriteString(key + "\n"); err != nil {
		l.logger.WithError(err).Warn("Failed to append to seen ledger")
	}
	if err := f.Close(); err != nil {
		l.logger.WithError(err).Warn("Failed to close seen ledger")
	}

	l.trimLocked()
}

// Len returns the number of distinct keys held in memory.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

func (l *Ledger) load() error {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open seen ledger: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key := strings.TrimSpace(scanner.Text())
		if key != "" {
			l.seen[key] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read seen ledger: %w", err)
	}
	return nil
}

// trimLocked rewrites the ledger file with only its most recent entries once
// it grows past the size bound. Caller holds l.mu.
func (l *Ledger) trimLocked() {
	info, err := os.Stat(l.path)
	if err != nil || info.Size() <= constants.SeenTrimBytes {
		return
	}

	f, err := os.Open(l.path)
	if err != nil {
		l.logger.WithError(err).Warn("Failed to open seen ledger for trim")
		return
	}
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	scanErr := scanner.Err()
	if err := f.Close(); err != nil {
		l.logger.WithError(err).Warn("Failed to close seen ledger after trim read")
	}
	if scanErr != nil {
		l.logger.WithError(scanErr).Warn("Failed to read seen ledger for trim")
		return
	}

	if len(lines) > constants.SeenTrimKeep {
		lines = lines[len(lines)-constants.SeenTrimKeep:]
	}

	tmp := l.path + ".tmp"
	out := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(tmp, []byte(out), 0600); err != nil {
		l.logger.WithError(err).Warn("Failed to write trimmed seen ledger")
		return
	}
	if err := os.Rename(tmp, l.path); err != nil {
		l.logger.WithError(err).Warn("Failed to replace seen ledger")
	}
}
