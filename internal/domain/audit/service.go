package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// MaxEntries caps the audit log. Older entries are silently dropped;
// the trail is best-effort history, not a compliance ledger.
const MaxEntries = 100

// Store persists the audit log as a single unit.
type Store interface {
	LoadAudit(ctx context.Context) ([]Entry, error)
	SaveAudit(ctx context.Context, entries []Entry) error
}

// Recorder appends entries to the audit trail, newest first.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder creates a new audit recorder.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Recorder{store: store, logger: logger}
}

// Record prepends an entry with a server-assigned timestamp and truncates
// the log to the newest MaxEntries.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	entry.At = time.Now()

	entries, err := r.store.LoadAudit(ctx)
	if err != nil {
		return fmt.Errorf("loading audit log: %w", err)
	}

	entries = append([]Entry{entry}, entries...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	if err := r.store.SaveAudit(ctx, entries); err != nil {
		return fmt.Errorf("saving audit log: %w", err)
	}

	r.logger.Debug("audit entry recorded", "event", entry.Event)
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns the whole log.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	entries, err := r.store.LoadAudit(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading audit log: %w", err)
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
