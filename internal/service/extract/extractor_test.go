package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"air24-backend/internal/llm"
	"air24-backend/internal/model"
)

type fakeClient struct {
	resp   string
	err    error
	calls  int
	gotReq llm.CompletionRequest
}

func (f *fakeClient) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.calls++
	f.gotReq = req
	return f.resp, f.err
}

func TestExtractRequestShape(t *testing.T) {
	client := &fakeClient{resp: `{"claim_id":"ABC123","status":"approved"}`}
	ex := NewExtractor(client, "", zap.NewNop())

	_, err := ex.Extract(context.Background(), "Re: Claim ABC123", "Your claim was approved.")
	require.NoError(t, err)

	req := client.gotReq
	assert.Equal(t, "gpt-4", req.Model)
	assert.InDelta(t, 0.3, req.Temperature, 0.0001)
	assert.Equal(t, 500, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "claim_id")
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Contains(t, req.Messages[1].Content, "Email Subject: Re: Claim ABC123")
	assert.Contains(t, req.Messages[1].Content, "Your claim was approved.")
}

func TestExtractParsesDirectJSON(t *testing.T) {
	client := &fakeClient{resp: `{"claim_id":"ABC123","status":"rejected","reason":"weather","compensation_amount":250}`}
	ex := NewExtractor(client, "gpt-4", zap.NewNop())

	result, err := ex.Extract(context.Background(), "subj", "body")
	require.NoError(t, err)
	require.False(t, result.Unparseable)

	parsed := result.Parsed
	require.NotNil(t, parsed.ClaimID)
	assert.Equal(t, "ABC123", *parsed.ClaimID)
	assert.Equal(t, model.StatusRejected, parsed.Status)
	assert.Equal(t, "weather", *parsed.Reason)
	require.NotNil(t, parsed.CompensationAmount)
	assert.Equal(t, 250.0, *parsed.CompensationAmount)
}

func TestExtractRepairsFencedCodeBlock(t *testing.T) {
	client := &fakeClient{resp: "```json\n{\"status\":\"approved\",\"claim_id\":\"ABC123\"}\n```"}
	ex := NewExtractor(client, "gpt-4", zap.NewNop())

	result, err := ex.Extract(context.Background(), "subj", "body")
	require.NoError(t, err)
	require.False(t, result.Unparseable)

	parsed := result.Parsed
	require.NotNil(t, parsed.ClaimID)
	assert.Equal(t, "ABC123", *parsed.ClaimID)
	assert.Equal(t, model.StatusApproved, parsed.Status)
	// Defaults fill fields the model omitted.
	require.NotNil(t, parsed.Reason)
	assert.Equal(t, "", *parsed.Reason)
	assert.Nil(t, parsed.CompensationAmount)
}

func TestExtractRepairsFenceWithoutLanguageTag(t *testing.T) {
	client := &fakeClient{resp: "Here you go:\n```\n{\"status\":\"pending\"}\n```"}
	ex := NewExtractor(client, "gpt-4", zap.NewNop())

	result, err := ex.Extract(context.Background(), "subj", "body")
	require.NoError(t, err)
	require.False(t, result.Unparseable)
	assert.Equal(t, model.StatusPending, result.Parsed.Status)
}

func TestExtractDefaultsMissingStatus(t *testing.T) {
	client := &fakeClient{resp: `{"claim_id":"ABC123"}`}
	ex := NewExtractor(client, "gpt-4", zap.NewNop())

	result, err := ex.Extract(context.Background(), "subj", "body")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, result.Parsed.Status)
}

func TestExtractUnparseableIsSentinelNotError(t *testing.T) {
	client := &fakeClient{resp: "Sorry, I cannot help with that."}
	ex := NewExtractor(client, "gpt-4", zap.NewNop())

	result, err := ex.Extract(context.Background(), "subj", "body")
	require.NoError(t, err)
	assert.True(t, result.Unparseable)
	assert.Equal(t, "Sorry, I cannot help with that.", result.Raw)
}

func TestExtractPropagatesProviderError(t *testing.T) {
	client := &fakeClient{err: &llm.APIError{StatusCode: 429, Message: "quota"}}
	ex := NewExtractor(client, "gpt-4", zap.NewNop())

	_, err := ex.Extract(context.Background(), "subj", "body")
	var apiErr *llm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.StatusCode)
}
