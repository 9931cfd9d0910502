package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"air24-backend/pkg/config"
)

// FCMClient sends push messages through the FCM HTTP v1 API.
type FCMClient struct {
	endpoint    string
	bearerToken string
	httpClient  *http.Client
}

func NewFCMClient(cfg config.FCMConfig) *FCMClient {
	return &FCMClient{
		endpoint:    cfg.Endpoint,
		bearerToken: cfg.BearerToken,
		httpClient: &http.Client{
			Timeout: 10 * time.Second, // 推送失败不应拖慢请求处理
		},
	}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmSendRequest struct {
	Message fcmMessage `json:"message"`
}

func (c *FCMClient) Send(ctx context.Context, msg PushMessage) error {
	body, err := json.Marshal(fcmSendRequest{
		Message: fcmMessage{
			Token: msg.Token,
			Notification: fcmNotification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Data: msg.Data,
		},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call FCM: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("FCM send failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	return nil
}
