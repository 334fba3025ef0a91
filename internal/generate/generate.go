// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/testcase-engine/internal/spec"
	"github.com/pdiddy/testcase-engine/pkg/types"
)

// opState tracks one operation through its generation lifecycle.
type opState string

const (
	statePending    opState = "pending"
	stateRequesting opState = "requesting"
	stateRetrying   opState = "retrying"
	stateSucceeded  opState = "succeeded"
	stateExhausted  opState = "exhausted"
)

// sleepFn suspends between retry attempts, honoring cancellation. Package
// var so tests run the retry loop on a deterministic clock.
var sleepFn = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// nowFn stamps admitted test cases. Package var for test substitution.
var nowFn = time.Now

// Generator fans generation requests out across operations with bounded
// concurrency and funnels every response through recovery, validation, and
// deduplication. One Generator drives one run.
type Generator struct {
	backend Backend
	cfg     types.GenerationConfig
	dedup   *Deduplicator

	// strictDisabled is set when the service rejects schema-constrained
	// output outright; strict mode stays off for the rest of the run.
	mu             sync.Mutex
	strictDisabled bool
}

// NewGenerator returns a Generator for one run over the given backend.
func NewGenerator(backend Backend, cfg types.GenerationConfig) *Generator {
	return &Generator{
		backend: backend,
		cfg:     cfg,
		dedup:   NewDeduplicator(cfg.EnableDeduplication),
	}
}

// GenerateAll processes every operation and returns the deduplicated test
// cases in admission order. Per-operation failures are isolated: an
// operation that exhausts its attempts is logged and skipped, never
// aborting the run. Only cancellation stops everything; the partial result
// is then discarded by returning the context error.
//
// When cfg.LLM.MaxConcurrent is zero all operations start simultaneously;
// otherwise a counting admission gate caps how many are in flight.
func (g *Generator) GenerateAll(ctx context.Context, ops []spec.Operation, w io.Writer) ([]types.TestCase, error) {
	if len(ops) == 0 {
		return nil, fmt.Errorf("no operations matched the configured filters")
	}

	fmt.Fprintf(w, "operations to process: %d\n", len(ops))

	var gate *semaphore.Weighted
	if n := g.cfg.LLM.MaxConcurrent; n > 0 {
		fmt.Fprintf(w, "concurrent requests limited to %d\n", n)
		gate = semaphore.NewWeighted(int64(n))
	} else {
		fmt.Fprintln(w, "concurrent requests unlimited")
	}

	var wg sync.WaitGroup
	for i, op := range ops {
		if gate != nil {
			if err := gate.Acquire(ctx, 1); err != nil {
				break
			}
		}

		wg.Add(1)
		go func(op spec.Operation, idx int) {
			defer wg.Done()
			if gate != nil {
				defer gate.Release(1)
			}
			g.generateOperation(ctx, op, idx+1, len(ops), w)
		}(op, i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "total test cases generated: %d\n", g.dedup.Len())
	return g.dedup.Results(), nil
}

// generateOperation runs one operation's request/retry state machine:
// pending → requesting → {succeeded | retrying → requesting | exhausted}.
// Attempts within one operation are strictly sequential with linear
// backoff (retryDelay × attemptNumber) between them.
func (g *Generator) generateOperation(ctx context.Context, op spec.Operation, cur, total int, w io.Writer) {
	fmt.Fprintf(w, "processing [%d/%d]: %s %s\n", cur, total, op.Method, op.Path)

	user, err := userPrompt(op.Payload)
	if err != nil {
		fmt.Fprintf(w, "warning: %s %s: %v\n", op.Method, op.Path, err)
		return
	}

	maxRetries := g.cfg.LLM.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	state := statePending
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		state = stateRequesting

		candidates, err := g.attempt(ctx, user, w)
		if err == nil && len(candidates) > 0 {
			state = stateSucceeded
			valid := g.processCandidates(candidates, op, w)
			fmt.Fprintf(w, "%s: received %d valid case(s) for %s %s\n", state, valid, op.Method, op.Path)
			return
		}

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			lastErr = err
		} else {
			lastErr = errors.New("no candidate records recovered from response")
		}
		fmt.Fprintf(w, "warning: %s %s attempt %d/%d failed: %v\n", op.Method, op.Path, attempt, maxRetries, lastErr)

		if attempt < maxRetries {
			state = stateRetrying
			fmt.Fprintf(w, "%s: %s %s in %v\n", state, op.Method, op.Path, g.retryDelay()*time.Duration(attempt))
			if sleepFn(ctx, g.retryDelay()*time.Duration(attempt)) != nil {
				return
			}
		}
	}

	state = stateExhausted
	fmt.Fprintf(w, "warning: %s: giving up on %s %s after %d attempt(s): %v\n", state, op.Method, op.Path, maxRetries, lastErr)
}

// attempt issues one generation request (with strict-mode fallback) and
// recovers candidates from the response. A refusal or an unrecoverable
// response yields (nil, nil), which the caller counts as a failed attempt.
func (g *Generator) attempt(ctx context.Context, user string, w io.Writer) ([]map[string]any, error) {
	req := Request{
		System:       systemPrompt,
		User:         user,
		Temperature:  g.cfg.LLM.Temperature,
		MaxTokens:    g.cfg.LLM.MaxTokens,
		Stream:       g.cfg.LLM.UseStreaming,
		StrictSchema: g.strictAllowed(),
	}

	resp, err := g.backend.Generate(ctx, req)

	if err != nil && req.StrictSchema {
		switch {
		case errors.Is(err, ErrStrictUnsupported):
			// Permanent fallback: the service cannot do constrained output
			// at all, so stop asking for the rest of the run.
			g.disableStrict()
			fmt.Fprintln(w, "structured output unsupported; disabling strict mode for this run")
		case errors.Is(err, ErrSchemaViolation):
			// Transient fallback: retry just this request unconstrained.
			fmt.Fprintln(w, "schema validation failed; retrying this request unconstrained")
		default:
			return nil, err
		}
		req.StrictSchema = false
		resp, err = g.backend.Generate(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	if resp.Finish == FinishRefusal {
		fmt.Fprintln(w, "warning: service refused to generate content")
		return nil, nil
	}
	if resp.Finish == FinishLength && req.StrictSchema {
		// A truncated constrained response rarely parses; one unconstrained
		// retry of the same request often fits the budget.
		fmt.Fprintln(w, "strict response truncated; retrying this request unconstrained")
		req.StrictSchema = false
		if r2, err2 := g.backend.Generate(ctx, req); err2 == nil {
			resp = r2
		}
	}

	return recoverCandidates(resp.Text, w), nil
}

// processCandidates validates each candidate and admits the survivors.
// Returns the number of newly admitted cases. Validation failures and
// duplicates are diagnostics, never operation failures.
func (g *Generator) processCandidates(candidates []map[string]any, op spec.Operation, w io.Writer) int {
	admitted := 0
	for _, record := range candidates {
		tc, err := validateCandidate(record, op.Path, op.Method)
		if err != nil {
			fmt.Fprintf(w, "dropped invalid case (%v): %v\n", err, record["title"])
			continue
		}
		tc.CreatedAt = nowFn().Format(time.RFC3339)

		if g.dedup.Admit(tc) {
			admitted++
		} else {
			fmt.Fprintf(w, "skipped duplicate case: %s\n", tc.Title)
		}
	}
	return admitted
}

func (g *Generator) retryDelay() time.Duration {
	if g.cfg.LLM.RetryDelay > 0 {
		return g.cfg.LLM.RetryDelay
	}
	return 2 * time.Second
}

func (g *Generator) strictAllowed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cfg.LLM.SupportsStructuredOutput() && !g.strictDisabled
}

func (g *Generator) disableStrict() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.strictDisabled = true
}
