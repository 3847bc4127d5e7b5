package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/damil-o/TrainerBizBack/internal/models"
)

// ErrPushGone marks a subscription whose endpoint no longer exists; callers
// should prune it.
var ErrPushGone = errors.New("push endpoint gone")

type PushSender interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) error
}

// WebPushSender posts raw payloads to browser push endpoints. VAPID signing
// is not implemented; endpoints that require it will reject the request and
// the failure is swallowed upstream.
type WebPushSender struct {
	httpClient *http.Client
}

func NewWebPushSender() *WebPushSender {
	return &WebPushSender{httpClient: http.DefaultClient}
}

func (s *WebPushSender) Send(ctx context.Context, sub models.PushSubscription, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("TTL", "60")
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push to endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return ErrPushGone
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("push to endpoint: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
