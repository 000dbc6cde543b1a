package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"

	"previewd/internal/preview"
)

// Webhook is a preview.Listener that POSTs every resolved entry to a
// configured URL. Delivery happens on its own goroutine so the scheduler's
// drain loop never waits on a slow receiver.
type Webhook struct {
	WebhookURL string
	client     *http.Client
	maxRetries int
	log        *zap.Logger
}

type payload struct {
	Key      string            `json:"key"`
	Failed   bool              `json:"failed"`
	Metadata *preview.Metadata `json:"metadata,omitempty"`
}

func NewWebhook(webhookURL string, log *zap.Logger) *Webhook {
	return &Webhook{
		WebhookURL: webhookURL,
		maxRetries: 3,
		log:        log,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:      10,
				IdleConnTimeout:   30 * time.Second,
				DisableKeepAlives: false,
			},
		},
	}
}

func (w *Webhook) OnResult(key string, entry preview.Entry) {
	go func() {
		if err := w.deliver(key, entry); err != nil {
			w.log.Warn("webhook delivery failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}()
}

func (w *Webhook) deliver(key string, entry preview.Entry) error {
	body := payload{
		Key:      key,
		Failed:   entry.Failed,
		Metadata: entry.Metadata,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal error: %v", err)
	}

	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff with jitter to prevent thundering herd
			backoff := time.Duration(attempt) * time.Second
			jitter := time.Duration(rand.Int63n(1000)) * time.Millisecond
			time.Sleep(backoff + jitter)
		}
		err = w.doRequest(jsonData)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("failed after %d attempts, last error: %v", w.maxRetries, lastErr)
}

func (w *Webhook) doRequest(jsonData []byte) error {
	req, err := http.NewRequest(http.MethodPost, w.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("request creation error: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Previewd-Webhook-Client/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	// Read and discard response body to reuse connection
	_, err = io.Copy(io.Discard, resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return nil
}
