// Package agent runs Firecrawl agent jobs to completion: it submits a
// prompt, polls the job at a fixed interval and gives up after a time budget.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout/internal/metrics"
	"github.com/sells-group/scout/internal/resilience"
	"github.com/sells-group/scout/pkg/firecrawl"
)

// State is a step of an agent job.
type State string

// Job states. Completed, Failed and TimedOut are terminal.
const (
	StateSubmitted State = "submitted"
	StatePolling   State = "polling"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

const (
	// DefaultPollInterval is the fixed delay between status polls.
	DefaultPollInterval = 3 * time.Second
	// DefaultMaxPollTime bounds the polling phase.
	DefaultMaxPollTime = 270 * time.Second

	minPromptLength = 10
)

// ErrNotConfigured is returned when no Firecrawl key is set.
var ErrNotConfigured = eris.New("FIRECRAWL_API_KEY is not configured")

// Request describes what the agent should find. With Template set, the
// preset prompt is used and Prompt, if any, is appended as extra notes.
type Request struct {
	Prompt   string   `json:"prompt"`
	Template string   `json:"template,omitempty"`
	URLs     []string `json:"urls,omitempty"`
}

// Result is the outcome of a job. Output holds the raw agent payload.
type Result struct {
	Success     bool            `json:"success"`
	State       State           `json:"state"`
	JobID       string          `json:"jobId,omitempty"`
	Output      json.RawMessage `json:"output,omitempty"`
	CreditsUsed int             `json:"creditsUsed,omitempty"`
	Duration    time.Duration   `json:"-"`
	Error       string          `json:"error,omitempty"`
}

// DurationLabel formats Duration as seconds with one decimal, e.g. "12.3s".
func (r Result) DurationLabel() string {
	return fmt.Sprintf("%.1fs", r.Duration.Seconds())
}

// ValidationError is a request the agent refuses to submit.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validate resolves the template, checks the prompt and drops blank URLs.
func Validate(req Request) (Request, error) {
	if id := strings.TrimSpace(req.Template); id != "" {
		t, ok := TemplateByID(id)
		if !ok {
			return req, &ValidationError{Msg: fmt.Sprintf("Unknown template %q", id)}
		}
		req.Template = t.ID
		if notes := strings.TrimSpace(req.Prompt); notes != "" {
			req.Prompt = t.Prompt + "\n\nZusätzliche Hinweise: " + notes
		} else {
			req.Prompt = t.Prompt
		}
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return req, &ValidationError{Msg: "A prompt describing what you want to find is required"}
	}
	if len([]rune(req.Prompt)) < minPromptLength {
		return req, &ValidationError{Msg: "Prompt must be at least 10 characters"}
	}

	var urls []string
	for _, u := range req.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	req.URLs = urls
	return req, nil
}

// IsInvalid reports whether err came from Validate.
func IsInvalid(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Runner drives agent jobs against Firecrawl.
type Runner struct {
	client   firecrawl.Client
	interval time.Duration
	maxPoll  time.Duration
	retry    resilience.RetryConfig
}

// Option configures a Runner.
type Option func(*Runner)

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) { r.interval = d }
}

// WithMaxPollTime overrides DefaultMaxPollTime.
func WithMaxPollTime(d time.Duration) Option {
	return func(r *Runner) { r.maxPoll = d }
}

// WithRetry overrides the retry policy of a single status poll.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(r *Runner) { r.retry = cfg }
}

// NewRunner creates a Runner. A nil client means Firecrawl is not
// configured and every job fails fast.
func NewRunner(client firecrawl.Client, opts ...Option) *Runner {
	r := &Runner{
		client:   client,
		interval: DefaultPollInterval,
		maxPoll:  DefaultMaxPollTime,
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Second,
			MaxBackoff:     time.Second,
			Multiplier:     1,
			OnRetry:        resilience.RetryLogger("firecrawl", "agent_status"),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Configured reports whether jobs can be submitted.
func (r *Runner) Configured() bool { return r.client != nil }

// job carries the mutable state of one Run.
type job struct {
	state   State
	id      string
	started time.Time
	result  Result
}

func (j *job) transition(to State) {
	zap.L().Debug("agent: state change",
		zap.String("job_id", j.id),
		zap.String("from", string(j.state)),
		zap.String("to", string(to)),
	)
	j.state = to
}

func (j *job) finish(to State, res Result) Result {
	j.transition(to)
	res.State = to
	res.Success = to == StateCompleted
	res.JobID = j.id
	res.Duration = time.Since(j.started)
	metrics.AgentJobs.WithLabelValues(string(to)).Inc()
	zap.L().Info("agent: job finished",
		zap.String("job_id", j.id),
		zap.String("state", string(to)),
		zap.String("duration", res.DurationLabel()),
	)
	return res
}

// Run submits req and blocks until the job reaches a terminal state. It
// never returns a Go error; failures are reported in Result.Error.
func (r *Runner) Run(ctx context.Context, req Request) Result {
	j := &job{state: StateSubmitted, started: time.Now()}

	req, err := Validate(req)
	if err != nil {
		return j.finish(StateFailed, Result{Error: err.Error()})
	}
	if r.client == nil {
		return j.finish(StateFailed, Result{Error: ErrNotConfigured.Error()})
	}

	zap.L().Info("agent: starting job",
		zap.String("prompt", truncate(req.Prompt, 100)),
		zap.Strings("urls", req.URLs),
	)

	start, err := r.client.StartAgent(ctx, firecrawl.AgentRequest{Prompt: req.Prompt, URLs: req.URLs})
	if err != nil {
		return j.finish(StateFailed, Result{Error: errorMessage(err, "Failed to start agent job")})
	}
	if !start.Success {
		return j.finish(StateFailed, Result{Error: orDefault(start.Error, "Failed to start agent job")})
	}
	if start.Status == firecrawl.StatusCompleted || start.HasData() {
		return j.finish(StateCompleted, Result{Output: start.Data, CreditsUsed: start.CreditsUsed})
	}
	if start.ID == "" {
		raw, err := json.Marshal(start)
		if err != nil {
			return j.finish(StateFailed, Result{Error: eris.Wrap(err, "agent: encode start response").Error()})
		}
		return j.finish(StateCompleted, Result{Output: raw})
	}

	j.id = start.ID
	j.transition(StatePolling)
	return r.poll(ctx, j, start.Status)
}

func (r *Runner) poll(ctx context.Context, j *job, lastStatus string) Result {
	deadline := time.Now().Add(r.maxPoll)
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return j.finish(StateFailed, Result{Error: ctx.Err().Error()})
		case <-timer.C:
		}

		status, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) (*firecrawl.AgentResponse, error) {
			return r.client.GetAgentStatus(ctx, j.id)
		})
		if err != nil {
			return j.finish(StateFailed, Result{Error: errorMessage(err, "Agent request failed")})
		}

		if status.Status != lastStatus {
			zap.L().Info("agent: status changed",
				zap.String("job_id", j.id),
				zap.String("from", lastStatus),
				zap.String("to", status.Status),
			)
			lastStatus = status.Status
		}

		switch status.Status {
		case firecrawl.StatusCompleted:
			return j.finish(StateCompleted, Result{Output: status.Data, CreditsUsed: status.CreditsUsed})
		case firecrawl.StatusFailed:
			return j.finish(StateFailed, Result{Error: orDefault(status.Error, "Agent job failed")})
		}
		timer.Reset(r.interval)
	}

	elapsed := time.Since(j.started)
	return j.finish(StateTimedOut, Result{
		Error: fmt.Sprintf("Agent job timed out after %.1fs. The job may still be running - try again with a simpler query.", elapsed.Seconds()),
	})
}

func errorMessage(err error, fallback string) string {
	var apiErr *firecrawl.APIError
	if errors.As(err, &apiErr) {
		return orDefault(apiErr.Message(), fallback)
	}
	return orDefault(err.Error(), fallback)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
