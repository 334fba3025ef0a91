// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIBackend calls an OpenAI-compatible chat completions endpoint
// (OpenRouter, or a local server such as Ollama or LM Studio).
type OpenAIBackend struct {
	// BaseURL is the API root, e.g. "https://openrouter.ai/api/v1".
	BaseURL string

	// Model is the model identifier sent with each request.
	Model string

	// APIKey is sent as a bearer token when non-empty. Local endpoints
	// typically need none.
	APIKey string

	// UserAgent overrides the default User-Agent header when non-empty.
	UserAgent string

	// Client is the HTTP client; http.DefaultClient when nil.
	Client *http.Client
}

// chatRequest is the chat completions request body.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseFormat selects plain JSON mode or schema-constrained output.
type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// chatResponse is the non-streaming chat completions response body.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

type chatChoice struct {
	Message struct {
		Content string `json:"content"`
		Refusal string `json:"refusal,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// chatChunk is one SSE event of a streamed response.
type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// Generate sends one chat completion request and returns the raw text with
// its finish indicator. When req.StrictSchema is set the request carries a
// json_schema response format; services that reject it surface
// ErrStrictUnsupported so the caller can downgrade. Otherwise plain
// json_object mode is requested.
func (b *OpenAIBackend) Generate(ctx context.Context, req Request) (Response, error) {
	body := chatRequest{
		Model: b.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      req.Stream,
	}

	if req.StrictSchema {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   "test_cases",
				Strict: true,
				Schema: testCasesSchema,
			},
		}
	} else {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshaling chat request: %w", err)
	}

	url := strings.TrimSuffix(b.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.APIKey)
	}
	if b.UserAgent != "" {
		httpReq.Header.Set("User-Agent", b.UserAgent)
	}

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("calling chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, b.classifyError(resp, req.StrictSchema)
	}

	if req.Stream {
		return accumulateStream(resp.Body)
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return Response{}, fmt.Errorf("decoding chat response: %w", err)
	}
	if cResp.Error != nil {
		return Response{}, fmt.Errorf("service error: %s", cResp.Error.Message)
	}
	if len(cResp.Choices) == 0 {
		return Response{}, fmt.Errorf("chat response has no choices")
	}

	choice := cResp.Choices[0]
	if choice.Message.Refusal != "" {
		return Response{Text: choice.Message.Refusal, Finish: FinishRefusal}, nil
	}

	return Response{
		Text:   choice.Message.Content,
		Finish: finishFrom(choice.FinishReason),
	}, nil
}

// classifyError maps a non-200 response onto the backend error taxonomy.
// A 4xx rejection of a strict-schema request means the service cannot do
// schema-constrained output; schema-validation failures are reported by
// some providers as 422 or as 400 with a schema-related message.
func (b *OpenAIBackend) classifyError(resp *http.Response, strict bool) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := string(data)

	var wrapped struct {
		Error *apiError `json:"error"`
	}
	if json.Unmarshal(data, &wrapped) == nil && wrapped.Error != nil {
		msg = wrapped.Error.Message
	}

	if strict && resp.StatusCode >= 400 && resp.StatusCode < 500 {
		lower := strings.ToLower(msg)
		if strings.Contains(lower, "response_format") || strings.Contains(lower, "json_schema") ||
			strings.Contains(lower, "structured output") {
			return fmt.Errorf("%w: %s", ErrStrictUnsupported, msg)
		}
		if resp.StatusCode == http.StatusUnprocessableEntity || strings.Contains(lower, "schema") {
			return fmt.Errorf("%w: %s", ErrSchemaViolation, msg)
		}
	}

	return fmt.Errorf("service returned HTTP %d: %s", resp.StatusCode, msg)
}

// accumulateStream reads an SSE stream of chat chunks and concatenates the
// deltas into one Response. The finish reason of the final chunk that
// carries one wins.
func accumulateStream(body io.Reader) (Response, error) {
	var (
		text   strings.Builder
		finish = FinishStop
	)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Tolerate malformed keep-alive frames; the recovery pipeline
			// handles whatever text survives.
			continue
		}
		for _, c := range chunk.Choices {
			text.WriteString(c.Delta.Content)
			if c.FinishReason != "" {
				finish = finishFrom(c.FinishReason)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Response{}, fmt.Errorf("reading stream: %w", err)
	}

	return Response{Text: text.String(), Finish: finish}, nil
}

// finishFrom normalizes provider finish reasons onto the three-valued set.
func finishFrom(reason string) FinishReason {
	switch reason {
	case "length", "max_tokens":
		return FinishLength
	case "content_filter", "refusal":
		return FinishRefusal
	default:
		return FinishStop
	}
}
