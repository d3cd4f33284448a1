package firecrawl

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// StatusCancelled marks a job stopped by the account owner.
const StatusCancelled = "cancelled"

// Job wait defaults.
const (
	DefaultWaitInterval = time.Second
	DefaultWaitMax      = 10 * time.Second
	DefaultWaitTimeout  = 3 * time.Minute
)

// Errors returned when a job ends in failed or cancelled.
var (
	ErrCrawlFailed   = eris.New("firecrawl: crawl did not complete")
	ErrExtractFailed = eris.New("firecrawl: extract did not complete")
)

// WaitOption tunes WaitCrawl and WaitExtract.
type WaitOption func(*waiter)

type waiter struct {
	interval   time.Duration
	max        time.Duration
	timeout    time.Duration
	onProgress func(completed, total int)
}

// WithWaitInterval sets the delay between status checks while a job makes
// progress.
func WithWaitInterval(d time.Duration) WaitOption {
	return func(w *waiter) { w.interval = d }
}

// WithWaitMax caps the delay reached while a job makes no progress.
func WithWaitMax(d time.Duration) WaitOption {
	return func(w *waiter) { w.max = d }
}

// WithWaitTimeout bounds the wait when ctx carries no deadline.
func WithWaitTimeout(d time.Duration) WaitOption {
	return func(w *waiter) { w.timeout = d }
}

// WithProgress observes every change of a crawl's completed page count.
func WithProgress(fn func(completed, total int)) WaitOption {
	return func(w *waiter) { w.onProgress = fn }
}

// jobState is one status check of a running job.
type jobState struct {
	status    string
	completed int
	total     int
}

// WaitCrawl checks the crawl id until it reaches a terminal status. The
// delay between checks stays at the base interval while the completed page
// count grows and backs off by half when it stalls.
func WaitCrawl(ctx context.Context, client Client, id string, opts ...WaitOption) (*CrawlStatusResponse, error) {
	var last *CrawlStatusResponse
	err := wait(ctx, "crawl", id, opts, func(ctx context.Context) (jobState, error) {
		status, err := client.GetCrawlStatus(ctx, id)
		if err != nil {
			return jobState{}, err
		}
		last = status
		return jobState{status: status.Status, completed: status.Completed, total: status.Total}, nil
	})
	switch {
	case eris.Is(err, errJobFailed):
		return last, eris.Wrapf(ErrCrawlFailed, "crawl %s %s after %d/%d pages", id, last.Status, last.Completed, last.Total)
	case err != nil:
		return nil, err
	}
	return last, nil
}

// WaitExtract checks the extract job id until it reaches a terminal status.
// Extract jobs report no progress, so every check after the first backs off.
func WaitExtract(ctx context.Context, client Client, id string, opts ...WaitOption) (*ExtractResponse, error) {
	var last *ExtractResponse
	err := wait(ctx, "extract", id, opts, func(ctx context.Context) (jobState, error) {
		status, err := client.GetExtractStatus(ctx, id)
		if err != nil {
			return jobState{}, err
		}
		last = status
		return jobState{status: status.Status}, nil
	})
	switch {
	case eris.Is(err, errJobFailed):
		msg := last.Error
		if msg == "" {
			msg = last.Status
		}
		return last, eris.Wrapf(ErrExtractFailed, "extract %s: %s", id, msg)
	case err != nil:
		return nil, err
	}
	return last, nil
}

var errJobFailed = eris.New("job failed")

func wait(ctx context.Context, kind, id string, opts []WaitOption, check func(context.Context) (jobState, error)) error {
	w := waiter{interval: DefaultWaitInterval, max: DefaultWaitMax, timeout: DefaultWaitTimeout}
	for _, opt := range opts {
		opt(&w)
	}
	if w.max < w.interval {
		w.max = w.interval
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	delay := w.interval
	seen := -1
	for {
		state, err := check(ctx)
		if err != nil {
			return eris.Wrapf(err, "firecrawl: %s %s status", kind, id)
		}

		switch state.status {
		case StatusCompleted:
			return nil
		case StatusFailed, StatusCancelled:
			return errJobFailed
		}

		if state.completed != seen {
			seen = state.completed
			delay = w.interval
			if w.onProgress != nil {
				w.onProgress(state.completed, state.total)
			}
			zap.L().Debug("firecrawl: job progress",
				zap.String("kind", kind),
				zap.String("id", id),
				zap.Int("completed", state.completed),
				zap.Int("total", state.total),
			)
		} else {
			delay = min(delay+delay/2, w.max)
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return eris.Wrapf(ctx.Err(), "firecrawl: %s %s still %s", kind, id, state.status)
		case <-t.C:
		}
	}
}
