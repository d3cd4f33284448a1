package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout/pkg/firecrawl"
)

// InvalidExtractError rejects an extract request before Firecrawl is
// called. Its message is shown to users.
type InvalidExtractError struct {
	Msg string
}

func (e *InvalidExtractError) Error() string { return e.Msg }

// Extract validation errors.
var (
	ErrExtractNoURLs        = &InvalidExtractError{Msg: "Mindestens eine URL ist erforderlich"}
	ErrExtractNoInstruction = &InvalidExtractError{Msg: "Prompt oder Schema ist erforderlich"}
	ErrExtractSchema        = &InvalidExtractError{Msg: "Ungültiges JSON-Schema"}
)

// ExtractRequest asks Firecrawl for structured data from one or more pages.
// URLs may end in /* to cover a whole site section. Schema is a JSON
// schema object, or a JSON string holding one.
type ExtractRequest struct {
	URLs   []string        `json:"urls"`
	Prompt string          `json:"prompt,omitempty"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

// Normalize trims the request, unwraps a string-encoded schema and checks
// that URLs and an instruction are present.
func (r *ExtractRequest) Normalize() error {
	var urls []string
	for _, u := range r.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return ErrExtractNoURLs
	}
	for _, u := range urls {
		if msg := validateURL(u); msg != "" {
			return &InvalidExtractError{Msg: msg + ": " + u}
		}
	}
	r.URLs = urls
	r.Prompt = strings.TrimSpace(r.Prompt)

	schema := bytes.TrimSpace(r.Schema)
	if bytes.Equal(schema, []byte("null")) || bytes.Equal(schema, []byte(`""`)) {
		schema = nil
	}
	if len(schema) > 0 && schema[0] == '"' {
		var inner string
		if err := json.Unmarshal(schema, &inner); err != nil {
			return ErrExtractSchema
		}
		schema = []byte(strings.TrimSpace(inner))
	}
	if len(schema) > 0 {
		var obj map[string]any
		if err := json.Unmarshal(schema, &obj); err != nil {
			return ErrExtractSchema
		}
	}
	r.Schema = schema

	if r.Prompt == "" && len(r.Schema) == 0 {
		return ErrExtractNoInstruction
	}
	return nil
}

// IsInvalidExtract reports whether err came from ExtractRequest.Normalize.
func IsInvalidExtract(err error) bool {
	var invalid *InvalidExtractError
	return errors.As(err, &invalid)
}

// Extract starts a Firecrawl extract job and waits for its data.
func (a *FirecrawlAdapter) Extract(ctx context.Context, req ExtractRequest, opts ...firecrawl.WaitOption) (*firecrawl.ExtractResponse, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	if a.client == nil {
		return nil, ErrFirecrawlNotConfigured
	}

	started, err := a.client.StartExtract(ctx, firecrawl.ExtractRequest{
		URLs:   req.URLs,
		Prompt: req.Prompt,
		Schema: req.Schema,
	})
	if err != nil {
		return nil, eris.Wrap(err, "scrape: start extract")
	}
	if !started.Success || started.ID == "" {
		msg := started.Error
		if msg == "" {
			msg = "Extract fehlgeschlagen"
		}
		return nil, eris.New(msg)
	}

	zap.L().Info("scrape: extract started", zap.Strings("urls", req.URLs), zap.String("id", started.ID))
	return firecrawl.WaitExtract(ctx, a.client, started.ID, opts...)
}
