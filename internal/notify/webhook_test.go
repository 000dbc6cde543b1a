package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"previewd/internal/preview"
)

func TestWebhookDeliversResolvedEntry(t *testing.T) {
	received := make(chan payload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var p payload
		require.NoError(t, json.Unmarshal(body, &p))
		received <- p
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, zap.NewNop())
	w.OnResult("https://a.example", preview.Entry{
		Metadata: &preview.Metadata{Title: "A"},
	})

	select {
	case p := <-received:
		assert.Equal(t, "https://a.example", p.Key)
		assert.False(t, p.Failed)
		require.NotNil(t, p.Metadata)
		assert.Equal(t, "A", p.Metadata.Title)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never delivered")
	}
}

func TestWebhookRetriesOnServerError(t *testing.T) {
	var hits atomic.Int64
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		received <- struct{}{}
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, zap.NewNop())
	w.OnResult("https://a.example", preview.Entry{Failed: true})

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("webhook never retried")
	}
	assert.EqualValues(t, 2, hits.Load())
}
