package util

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookTokenRoundTrip(t *testing.T) {
	token, err := GenerateWebhookToken("s3cret")
	require.NoError(t, err)

	assert.NoError(t, ParseWebhookToken(token, "s3cret"))
	assert.Error(t, ParseWebhookToken(token, "wrong-secret"))
	assert.Error(t, ParseWebhookToken("not-a-token", "s3cret"))
}

func TestExtractToken(t *testing.T) {
	req, _ := http.NewRequest(http.MethodPost, "/email/ingest", nil)
	assert.Equal(t, "", ExtractToken(req))

	req.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc123")
	assert.Equal(t, "", ExtractToken(req))
}
