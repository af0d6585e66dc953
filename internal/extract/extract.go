// Package extract coerces model output into typed Go records, validating each
// answer and asking the model to correct itself until it passes or the retry
// budget runs out.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	errx "github.com/Chative-core-poc-v1/cookbook/internal/core/error"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/llm"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/observers"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

const (
	DefaultMaxRetries = 3
	DefaultMaxTurns   = 8
)

// Request describes one extraction.
type Request struct {
	// Name is the schema name. It also labels logs, metrics and cache keys.
	Name        string
	Description string
	Prompt      prompt.ChatTemplate
	Vars        map[string]any
	Images      []llm.Image
	// Validate runs after tag validation and the target's own Validate method.
	// A non-nil error is sent back to the model as a correction.
	Validate func() error
	NoCache  bool
}

// Report summarises how an extraction went.
type Report struct {
	RunID    string            `json:"run_id"`
	Name     string            `json:"name"`
	Provider string            `json:"provider"`
	Model    string            `json:"model"`
	Attempts int               `json:"attempts"`
	Cached   bool              `json:"cached"`
	Usage    schema.TokenUsage `json:"usage"`
	CostUSD  float64           `json:"cost_usd"`
	Duration time.Duration     `json:"duration"`
	Raw      json.RawMessage   `json:"-"`
}

type Extractor struct {
	gen        llm.Generator
	cache      model.ResponseCache
	metrics    *Metrics
	maxRetries int
	maxTurns   int

	runnable compose.Runnable[*job, *outcome]
}

type Option func(*Extractor)

func WithCache(c model.ResponseCache) Option {
	return func(e *Extractor) {
		e.cache = c
	}
}

func WithMetrics(m *Metrics) Option {
	return func(e *Extractor) {
		e.metrics = m
	}
}

// WithMaxRetries bounds the corrective re-asks after the first attempt.
func WithMaxRetries(n int) Option {
	return func(e *Extractor) {
		e.maxRetries = n
	}
}

// WithMaxTurns bounds how many failed attempts stay in the conversation.
func WithMaxTurns(n int) Option {
	return func(e *Extractor) {
		e.maxTurns = n
	}
}

func New(ctx context.Context, gen llm.Generator, opts ...Option) (*Extractor, error) {
	if gen == nil {
		return nil, fmt.Errorf("extractor: generator is nil")
	}
	e := &Extractor{gen: gen}
	for _, opt := range opts {
		opt(e)
	}
	e.maxRetries = normalizeMaxRetries(e.maxRetries)
	e.maxTurns = normalizeMaxTurns(e.maxTurns)

	runnable, err := e.buildGraph(ctx)
	if err != nil {
		return nil, err
	}
	e.runnable = runnable
	return e, nil
}

func (e *Extractor) Generator() llm.Generator {
	return e.gen
}

func (e *Extractor) MaxRetries() int {
	return e.maxRetries
}

// Extract fills out, a pointer to a struct, from the model's answer to req.
// On a validation failure after the last retry, out holds the last decoded
// answer and the error has kind errx.KindValidation.
func (e *Extractor) Extract(ctx context.Context, req Request, out any) (*Report, error) {
	start := time.Now()

	rv := reflect.ValueOf(out)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, errx.Input("extract %s: out must be a non-nil pointer, got %T", req.Name, out)
	}
	if req.Prompt == nil {
		return nil, errx.Input("extract %s: prompt is required", req.Name)
	}
	def, err := structureFor(out, req)
	if err != nil {
		return nil, errx.New(err, errx.KindInput, errx.InputErrorMessage)
	}

	report := &Report{
		RunID:    uuid.NewString(),
		Name:     req.Name,
		Provider: e.gen.Provider(),
		Model:    e.gen.Model(),
	}

	var key string
	if e.cache != nil && !req.NoCache {
		key, err = cacheKey(e.gen, def, req)
		if err != nil {
			logx.Warn().Err(err).Str("recipe", req.Name).Msg("cannot fingerprint request, cache bypassed")
		} else if raw, ok := e.fromCache(ctx, key, req, out); ok {
			report.Cached = true
			report.Raw = raw
			report.Duration = time.Since(start)
			e.metrics.observe(report, nil)
			logx.Info().Str("run_id", report.RunID).Str("recipe", req.Name).Msg("served from cache")
			return report, nil
		}
	}

	j := &job{req: req, def: def, target: out}
	o, err := e.runnable.Invoke(ctx, j, compose.WithCallbacks(observers.NewAllCallbacks()...))

	report.Attempts = j.attempts
	report.Usage = j.usage
	report.CostUSD = j.cost
	report.Duration = time.Since(start)

	switch {
	case j.failure != nil:
		err = j.failure
	case err != nil:
		err = errx.New(err, errx.KindInternal, errx.SystemErrorMessage)
	case o == nil:
		err = errx.New(errors.New("graph returned no outcome"), errx.KindInternal, errx.SystemErrorMessage)
	case o.err != nil:
		report.Raw = o.raw
		err = errx.Validation(o.err, j.attempts)
	}
	e.metrics.observe(report, err)
	if err != nil {
		logx.Error().Err(err).Str("run_id", report.RunID).Str("recipe", req.Name).Int("attempts", report.Attempts).Msg("extraction failed")
		return report, err
	}

	report.Raw = o.raw
	if key != "" {
		if err := e.cache.Set(ctx, key, o.raw); err != nil {
			logx.Warn().Err(err).Str("recipe", req.Name).Msg("failed to cache response")
		}
	}

	logx.Info().
		Str("run_id", report.RunID).
		Str("recipe", req.Name).
		Str("model", report.Model).
		Int("attempts", report.Attempts).
		Int("total_tokens", report.Usage.TotalTokens).
		Float64("cost_usd", report.CostUSD).
		Msg("extraction complete")
	return report, nil
}

func (e *Extractor) fromCache(ctx context.Context, key string, req Request, out any) (json.RawMessage, bool) {
	raw, err := e.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, errx.ErrCacheMiss) {
			logx.Warn().Err(err).Str("recipe", req.Name).Msg("cache lookup failed")
		}
		e.metrics.cacheLookup(req.Name, false)
		return nil, false
	}
	cleaned, err := decode(out, string(raw), req.Validate)
	if err != nil {
		logx.Warn().Err(err).Str("recipe", req.Name).Msg("cached response no longer validates, ignoring it")
		e.metrics.cacheLookup(req.Name, false)
		return nil, false
	}
	e.metrics.cacheLookup(req.Name, true)
	return cleaned, true
}

func normalizeMaxRetries(n int) int {
	if n <= 0 {
		return DefaultMaxRetries
	}
	return n
}

func normalizeMaxTurns(n int) int {
	if n <= 0 {
		return DefaultMaxTurns
	}
	return n
}
