// Package executor dispatches claimed jobs to site-specific operations. The
// dispatch table is closed: every (scraper, operation) pair is registered and
// validated at startup, so an unknown pair is a wiring bug, not a per-job
// runtime surprise.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Status tags an execution outcome.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusWarning         Status = "warning"
	StatusFailed          Status = "failed"
	StatusCaptchaRequired Status = "captcha_required"
)

// Outcome is the tagged result of one execution attempt.
type Outcome struct {
	Status       Status          `json:"status"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Note         string          `json:"note,omitempty"`
	Error        string          `json:"error,omitempty"`
	ChallengeURL string          `json:"challenge_url,omitempty"`
}

// Func executes a job's operation with its parameters. It returns either a
// tagged outcome or an error; an error is an expected domain failure and is
// committed as a failed job, never retried.
type Func func(ctx context.Context, jobID string, params map[string]string) (*Outcome, error)

// Key identifies one entry of the dispatch table.
type Key struct {
	Scraper   string
	Operation string
}

func (k Key) String() string {
	return k.Scraper + "/" + k.Operation
}

// SiteClient is the opaque collaborator that performs the actual page
// automation for one site.
type SiteClient interface {
	Run(ctx context.Context, operation string, params map[string]string) (payload json.RawMessage, rows int, err error)
}

// Registry maps (scraper, operation) pairs to executor functions.
type Registry struct {
	funcs map[Key]Func
}

// NewRegistry creates an empty dispatch table
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[Key]Func)}
}

// Register adds an executor function for a pair. Registering a pair twice is
// a wiring bug.
func (r *Registry) Register(scraper, operation string, fn Func) error {
	key := Key{Scraper: scraper, Operation: operation}
	if _, ok := r.funcs[key]; ok {
		return fmt.Errorf("executor for %s already registered", key)
	}
	r.funcs[key] = fn
	return nil
}

// Keys returns every registered pair, sorted
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.funcs))
	for k := range r.funcs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Validate checks that every required pair has a registered executor
func (r *Registry) Validate(required []Key) error {
	for _, k := range required {
		if _, ok := r.funcs[k]; !ok {
			return fmt.Errorf("no executor registered for %s", k)
		}
	}
	return nil
}

// Execute dispatches a job to its executor function
func (r *Registry) Execute(ctx context.Context, jobID, scraper, operation string, params map[string]string) (*Outcome, error) {
	key := Key{Scraper: scraper, Operation: operation}
	fn, ok := r.funcs[key]
	if !ok {
		return nil, fmt.Errorf("unknown job type: %s", key)
	}
	return fn(ctx, jobID, params)
}

// EmptyPayload reports whether a success payload is empty or degenerate.
// "Ran successfully but found nothing" is committed as warning, not
// completed, so callers can tell the two apart.
func EmptyPayload(payload json.RawMessage) bool {
	trimmed := bytes.TrimSpace(payload)
	switch string(trimmed) {
	case "", "null", "[]", "{}", `""`:
		return true
	}
	return false
}
