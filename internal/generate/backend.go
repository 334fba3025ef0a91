// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate drives test-case generation: it fans requests out to a
// generative service across spec operations, recovers structured records
// from the service's unreliable output, validates them, and deduplicates
// the survivors into one result set.
package generate

import (
	"context"
	"errors"
)

// FinishReason indicates how the service terminated one response.
type FinishReason string

const (
	// FinishStop is normal completion.
	FinishStop FinishReason = "stop"

	// FinishLength means the response was truncated by the output limit.
	// The text may end mid-record; recovery salvages what is complete.
	FinishLength FinishReason = "length"

	// FinishRefusal means the service declined to produce content.
	FinishRefusal FinishReason = "refusal"
)

// Request is one generation call to the service.
type Request struct {
	// System is the fixed test-design methodology instruction.
	System string

	// User is the per-operation instruction embedding the operation payload.
	User string

	// Temperature and MaxTokens are the generation parameters.
	Temperature float64
	MaxTokens   int

	// StrictSchema asks for schema-constrained output. Only honored by
	// services that support it; others reject with ErrStrictUnsupported.
	StrictSchema bool

	// Stream requests incremental delivery; the backend accumulates the
	// stream and still returns one Response.
	Stream bool
}

// Response is the raw outcome of one generation call.
type Response struct {
	// Text is the opaque generated content. May be malformed or truncated.
	Text string

	// Finish indicates normal completion, truncation, or refusal.
	Finish FinishReason
}

// ErrStrictUnsupported is returned when the service rejects the
// schema-constrained output format. The orchestrator disables strict mode
// for the rest of the run.
var ErrStrictUnsupported = errors.New("structured output format not supported")

// ErrSchemaViolation is returned when the service accepted strict mode but
// failed to produce output matching the schema. The orchestrator retries
// the same request without the constraint.
var ErrSchemaViolation = errors.New("response failed schema validation")

// Backend abstracts the generative text service so tests can supply a mock.
type Backend interface {
	Generate(ctx context.Context, req Request) (Response, error)
}
