// Package api provides the HTTP handlers for the preview prefetch service
// @title Link Preview API
// @version 1.0
// @description Service for prefetching and caching link preview metadata
// @host localhost:8000
// @BasePath /
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"previewd/internal/preview"
)

const waitTimeout = 30 * time.Second

// Handler carries the injected prefetcher for the route functions.
type Handler struct {
	pre *preview.Prefetcher
	log *zap.Logger
}

func NewHandler(pre *preview.Prefetcher, log *zap.Logger) *Handler {
	return &Handler{pre: pre, log: log}
}

// EnqueueRequest is the request body for enqueueing a single URL
type EnqueueRequest struct {
	URL      string            `json:"url" binding:"required"`
	Priority int               `json:"priority"`
	Fallback *preview.Metadata `json:"fallback"`
}

// BatchRequest is the request body for enqueueing timed items
type BatchRequest struct {
	Items []preview.TimedItem `json:"items" binding:"required"`
}

// PreviewResponse is the response for a cached preview lookup
type PreviewResponse struct {
	URL      string            `json:"url"`
	Failed   bool              `json:"failed"`
	Metadata *preview.Metadata `json:"metadata,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// @Summary Enqueue a URL
// @Description Queues a URL for metadata prefetching; notifies subscribers when already cached
// @Tags previews
// @Accept json
// @Produce json
// @Param request body EnqueueRequest true "Enqueue request parameters"
// @Success 202 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Router /preview [post]
// @Security ApiKeyAuth
func (h *Handler) HandleEnqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "url is required in request body"})
		return
	}

	h.pre.EnqueueWithFallback(req.URL, req.Priority, req.Fallback)
	c.JSON(202, gin.H{
		"status": "queued",
		"url":    req.URL,
	})
}

// @Summary Enqueue timed items
// @Description Ranks items by relevance to now and queues the ones not yet cached
// @Tags previews
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Batch request parameters"
// @Success 202 {object} map[string]any
// @Failure 400 {object} ErrorResponse
// @Router /preview/batch [post]
// @Security ApiKeyAuth
func (h *Handler) HandleEnqueueBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "items are required in request body"})
		return
	}

	h.pre.EnqueueUpcoming(req.Items)
	c.JSON(202, gin.H{
		"status": "queued",
		"count":  len(req.Items),
	})
}

// @Summary Get cached preview
// @Description Returns the cached metadata for a URL; 404 means never attempted, a failed fetch returns 200 with failed=true
// @Tags previews
// @Produce json
// @Param url query string true "Resource URL"
// @Success 200 {object} PreviewResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /preview [get]
// @Security ApiKeyAuth
func (h *Handler) HandleGetPreview(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(400, gin.H{"error": "url is required"})
		return
	}

	entry, ok := h.pre.GetCached(url)
	if !ok {
		c.JSON(404, gin.H{"error": "not cached"})
		return
	}

	c.JSON(200, PreviewResponse{
		URL:      url,
		Failed:   entry.Failed,
		Metadata: entry.Metadata,
	})
}

// @Summary Wait for a preview
// @Description Enqueues the URL and blocks until its metadata resolves or the wait times out
// @Tags previews
// @Produce json
// @Param url query string true "Resource URL"
// @Success 200 {object} PreviewResponse
// @Failure 400 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /preview/wait [get]
// @Security ApiKeyAuth
func (h *Handler) HandleWaitPreview(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(400, gin.H{"error": "url is required"})
		return
	}

	resolved := make(chan preview.Entry, 1)
	tok := h.pre.Subscribe(url, preview.ListenerFunc(func(_ string, entry preview.Entry) {
		select {
		case resolved <- entry:
		default:
		}
	}))
	defer h.pre.Unsubscribe(tok)

	h.pre.Enqueue(url, 0)

	select {
	case entry := <-resolved:
		c.JSON(200, PreviewResponse{
			URL:      url,
			Failed:   entry.Failed,
			Metadata: entry.Metadata,
		})
	case <-c.Request.Context().Done():
		return
	case <-time.After(waitTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "timed out waiting for preview"})
	}
}

// @Summary Clear all state
// @Description Empties the cache, the queue, and all subscriptions
// @Tags cache
// @Produce json
// @Success 200 {object} map[string]string
// @Router /cache [delete]
// @Security ApiKeyAuth
func (h *Handler) HandleClear(c *gin.Context) {
	h.pre.Clear()
	c.JSON(200, gin.H{"status": "cleared"})
}

// @Summary Scheduler stats
// @Description Returns fetch counters and process usage
// @Tags stats
// @Produce json
// @Success 200 {object} preview.StatsSnapshot
// @Router /stats [get]
// @Security ApiKeyAuth
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(200, h.pre.Stats())
}
