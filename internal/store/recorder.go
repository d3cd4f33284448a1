package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Recorder writes history entries without failing the caller. A nil
// Recorder or one without a Store records nothing.
type Recorder struct {
	store   Store
	timeout time.Duration
}

// NewRecorder wraps s. s may be nil to disable history.
func NewRecorder(s Store) *Recorder {
	return &Recorder{store: s, timeout: 5 * time.Second}
}

// Enabled reports whether entries are persisted.
func (r *Recorder) Enabled() bool { return r != nil && r.store != nil }

// Store returns the underlying store, nil when disabled.
func (r *Recorder) Store() Store {
	if r == nil {
		return nil
	}
	return r.store
}

// Record saves e. The write is detached from ctx cancellation so a
// finished request still gets its entry, and errors are only logged.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if !r.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if _, err := r.store.Add(ctx, e); err != nil {
		zap.L().Warn("store: history write failed",
			zap.String("type", string(e.Type)),
			zap.String("url", e.URL),
			zap.Error(err),
		)
	}
}
