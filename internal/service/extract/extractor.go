package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"air24-backend/internal/llm"
	"air24-backend/internal/model"
	"air24-backend/pkg/logger"
	"air24-backend/pkg/metrics"
)

const (
	defaultModel = "gpt-4"
	temperature  = 0.3
	maxTokens    = 500
)

const systemPrompt = `You are an AI assistant that extracts claim status information from airline emails.
Extract the following information if available:
- claim_id: The claim reference number
- status: One of: pending, approved, rejected, needs_info
- airline: The airline name
- compensation_amount: Amount if mentioned
- reason: Brief reason for status
- next_steps: What the user needs to do

Respond ONLY with valid JSON. If information is not found, use null.`

// Models sometimes wrap the object in a fenced code block despite the
// JSON-only instruction.
var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Result is the outcome of one extraction call. Unparseable means the model
// answered but neither parse attempt produced an object; it is not an error
// so the caller decides the HTTP status explicitly.
type Result struct {
	Parsed      model.ExtractedStatus
	Unparseable bool
	Raw         string
}

// Extractor classifies free-text airline replies into structured status
// fields via one low-temperature completion.
type Extractor struct {
	client llm.Client
	model  string
	log    *zap.Logger
}

func NewExtractor(client llm.Client, modelName string, log *zap.Logger) *Extractor {
	if modelName == "" {
		modelName = defaultModel
	}
	return &Extractor{client: client, model: modelName, log: log}
}

// Extract issues the completion request and parses the reply. Provider
// failures surface as errors (retryable per their status code); parse
// failures surface as an Unparseable result.
func (e *Extractor) Extract(ctx context.Context, subject, text string) (Result, error) {
	start := time.Now()
	content, err := e.client.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Email Subject: %s\n\nEmail Body:\n%s", subject, text)},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		metrics.RecordLLMCallLatency(e.model, "error", time.Since(start))
		return Result{}, err
	}
	metrics.RecordLLMCallLatency(e.model, "ok", time.Since(start))

	parsed, ok := parseResponse(content)
	if !ok {
		logger.WithTrace(ctx, e.log).Warn("LLM response not parseable as JSON",
			zap.String("model", e.model),
			zap.Int("response_len", len(content)),
		)
		return Result{Unparseable: true, Raw: content}, nil
	}

	return Result{Parsed: applyDefaults(parsed), Raw: content}, nil
}

// parseResponse attempts a direct parse, then a fenced-code-block repair.
func parseResponse(content string) (model.ExtractedStatus, bool) {
	var parsed model.ExtractedStatus

	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
		return parsed, true
	}

	if m := fencedJSONRe.FindStringSubmatch(trimmed); m != nil {
		if err := json.Unmarshal([]byte(m[1]), &parsed); err == nil {
			return parsed, true
		}
	}

	return model.ExtractedStatus{}, false
}

// applyDefaults guarantees downstream code never observes an absent status
// or reason.
func applyDefaults(parsed model.ExtractedStatus) model.ExtractedStatus {
	if parsed.Status == "" {
		parsed.Status = model.StatusPending
	}
	if parsed.Reason == nil {
		empty := ""
		parsed.Reason = &empty
	}
	return parsed
}
