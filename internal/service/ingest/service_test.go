package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"air24-backend/internal/llm"
	"air24-backend/internal/model"
	"air24-backend/internal/service/extract"
)

type extractReply struct {
	result extract.Result
	err    error
}

type fakeExtractor struct {
	replies []extractReply
	calls   int
}

func (f *fakeExtractor) Extract(_ context.Context, _, _ string) (extract.Result, error) {
	idx := f.calls
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	f.calls++
	r := f.replies[idx]
	return r.result, r.err
}

type mergeCall struct {
	id     int64
	status string
	now    time.Time
	resp   model.AirlineResponse
}

type fakeClaims struct {
	claim  *model.Claim
	merges []mergeCall
}

func (f *fakeClaims) FindByClaimID(_ context.Context, _ string) (*model.Claim, error) {
	if f.claim == nil {
		return nil, nil
	}
	c := *f.claim
	return &c, nil
}

func (f *fakeClaims) MergeStatus(_ context.Context, id int64, status string, now time.Time, resp model.AirlineResponse) error {
	f.merges = append(f.merges, mergeCall{id: id, status: status, now: now, resp: resp})
	return nil
}

type fakeUnmatched struct {
	recs []model.UnmatchedEmail
}

func (f *fakeUnmatched) Append(_ context.Context, rec model.UnmatchedEmail) error {
	f.recs = append(f.recs, rec)
	return nil
}

type notifyCall struct {
	claim  model.Claim
	parsed model.ExtractedStatus
}

type fakeNotifier struct {
	calls []notifyCall
}

func (f *fakeNotifier) NotifyClaimUpdate(_ context.Context, claim model.Claim, parsed model.ExtractedStatus) {
	f.calls = append(f.calls, notifyCall{claim: claim, parsed: parsed})
}

type publishedEvent struct {
	routingKey string
	payload    any
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	f.events = append(f.events, publishedEvent{routingKey: routingKey, payload: payload})
	return nil
}

func strPtr(s string) *string { return &s }

func parsedResult(claimID, status string) extract.Result {
	var idPtr *string
	if claimID != "" {
		idPtr = strPtr(claimID)
	}
	empty := ""
	return extract.Result{Parsed: model.ExtractedStatus{
		ClaimID: idPtr,
		Status:  status,
		Reason:  &empty,
	}}
}

func validEmail() model.InboundEmail {
	return model.InboundEmail{
		From:    "claims@lufthansa.com",
		To:      "inbound@air24.app",
		Subject: "Re: Claim ABC123",
		Text:    "Your claim ABC123 has been approved for 250 EUR compensation.",
	}
}

type pipelineFixture struct {
	svc       *Service
	extractor *fakeExtractor
	claims    *fakeClaims
	unmatched *fakeUnmatched
	notifier  *fakeNotifier
	publisher *fakePublisher
	sleeps    *[]time.Duration
}

func newPipeline(t *testing.T, replies ...extractReply) *pipelineFixture {
	t.Helper()

	f := &pipelineFixture{
		extractor: &fakeExtractor{replies: replies},
		claims:    &fakeClaims{},
		unmatched: &fakeUnmatched{},
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
		sleeps:    &[]time.Duration{},
	}
	f.svc = NewService(f.extractor, f.claims, f.unmatched, f.notifier, f.publisher, nil, zap.NewNop())
	f.svc.retry.Sleep = func(_ context.Context, d time.Duration) error {
		*f.sleeps = append(*f.sleeps, d)
		return nil
	}
	return f
}

func TestProcessInboundValidationHaltsBeforeExtractor(t *testing.T) {
	f := newPipeline(t, extractReply{result: parsedResult("ABC123", model.StatusApproved)})

	email := validEmail()
	email.Text = "short"

	_, err := f.svc.ProcessInbound(context.Background(), email)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, f.extractor.calls)
	assert.Empty(t, f.claims.merges)
	assert.Empty(t, f.unmatched.recs)
}

func TestProcessInboundNonRetryableProviderError(t *testing.T) {
	f := newPipeline(t, extractReply{err: &llm.APIError{StatusCode: 401, Message: "bad key"}})

	_, err := f.svc.ProcessInbound(context.Background(), validEmail())

	var apiErr *llm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, 1, f.extractor.calls, "401 must not consume retries")
	assert.Empty(t, *f.sleeps)
}

func TestProcessInboundRetriesTransientErrors(t *testing.T) {
	f := newPipeline(t,
		extractReply{err: &llm.APIError{StatusCode: 500, Message: "boom"}},
		extractReply{err: &llm.APIError{StatusCode: 500, Message: "boom"}},
		extractReply{result: parsedResult("ABC123", model.StatusApproved)},
	)
	f.claims.claim = &model.Claim{ID: 7, ClaimID: "ABC123", UserID: "u1"}

	outcome, err := f.svc.ProcessInbound(context.Background(), validEmail())

	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)
	assert.Equal(t, 3, f.extractor.calls)
	assert.Equal(t, []time.Duration{1000 * time.Millisecond, 2000 * time.Millisecond}, *f.sleeps)
}

func TestProcessInboundRetriesExhausted(t *testing.T) {
	f := newPipeline(t, extractReply{err: &llm.APIError{StatusCode: 503, Message: "down"}})

	_, err := f.svc.ProcessInbound(context.Background(), validEmail())

	var apiErr *llm.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3, f.extractor.calls)
	assert.Len(t, *f.sleeps, 2)
	assert.Empty(t, f.claims.merges)
}

func TestProcessInboundUnparseable(t *testing.T) {
	f := newPipeline(t, extractReply{result: extract.Result{Unparseable: true, Raw: "I could not read that"}})

	_, err := f.svc.ProcessInbound(context.Background(), validEmail())

	require.ErrorIs(t, err, ErrUnparseable)
	assert.Equal(t, 1, f.extractor.calls, "parse failures are not retried")
	assert.Empty(t, f.claims.merges)
}

func TestProcessInboundNoClaimID(t *testing.T) {
	f := newPipeline(t, extractReply{result: parsedResult("", model.StatusPending)})

	outcome, err := f.svc.ProcessInbound(context.Background(), validEmail())

	require.NoError(t, err)
	assert.Equal(t, OutcomeUnmatched, outcome)
	require.Len(t, f.unmatched.recs, 1)
	rec := f.unmatched.recs[0]
	assert.Equal(t, "claims@lufthansa.com", rec.FromAddr)
	assert.Equal(t, "No claim_id found", rec.Reason)
	assert.Empty(t, f.claims.merges)
	assert.Empty(t, f.notifier.calls)
}

func TestProcessInboundClaimNotFound(t *testing.T) {
	f := newPipeline(t, extractReply{result: parsedResult("XYZ999", model.StatusRejected)})

	outcome, err := f.svc.ProcessInbound(context.Background(), validEmail())

	require.NoError(t, err, "a missing claim is a handled outcome, not a failure")
	assert.Equal(t, OutcomeClaimNotFound, outcome)
	assert.Empty(t, f.claims.merges)
	assert.Empty(t, f.notifier.calls)
}

func TestProcessInboundUpdatesClaimAndNotifies(t *testing.T) {
	reason := "baggage policy"
	result := parsedResult("XYZ", model.StatusRejected)
	result.Parsed.Reason = &reason

	f := newPipeline(t, extractReply{result: result})
	f.claims.claim = &model.Claim{ID: 42, ClaimID: "XYZ", UserID: "u1", FlightNumber: "LH123"}

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	outcome, err := f.svc.ProcessInbound(context.Background(), validEmail())

	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	require.Len(t, f.claims.merges, 1)
	merge := f.claims.merges[0]
	assert.Equal(t, int64(42), merge.id)
	assert.Equal(t, model.StatusRejected, merge.status)
	assert.Equal(t, now, merge.now)
	assert.Equal(t, now, merge.resp.ReceivedAt)
	assert.Equal(t, "claims@lufthansa.com", merge.resp.From)
	assert.Equal(t, "Re: Claim ABC123", merge.resp.Subject)
	assert.Equal(t, "baggage policy", *merge.resp.ParsedData.Reason)

	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, "XYZ", f.notifier.calls[0].claim.ClaimID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "claim.updated", f.publisher.events[0].routingKey)
}

func TestProcessInboundReprocessingIsNotDeduplicated(t *testing.T) {
	result := parsedResult("XYZ", model.StatusApproved)
	f := newPipeline(t, extractReply{result: result})
	f.claims.claim = &model.Claim{ID: 42, ClaimID: "XYZ", UserID: "u1"}

	clock := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for i := 0; i < 2; i++ {
		outcome, err := f.svc.ProcessInbound(context.Background(), validEmail())
		require.NoError(t, err)
		assert.Equal(t, OutcomeUpdated, outcome)
	}

	require.Len(t, f.claims.merges, 2)
	assert.True(t, f.claims.merges[1].now.After(f.claims.merges[0].now))
	assert.Equal(t, f.claims.merges[0].status, f.claims.merges[1].status)
	assert.Equal(t, f.claims.merges[0].resp.ParsedData, f.claims.merges[1].resp.ParsedData)
}
