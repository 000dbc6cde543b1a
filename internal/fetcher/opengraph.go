package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"previewd/internal/preview"
)

// OpenGraph fetches a page over HTTP and extracts its Open Graph preview
// tags, falling back to <title> and the meta description when a page has no
// og: markup. It implements preview.Fetcher.
type OpenGraph struct {
	client *http.Client
	log    *zap.Logger
}

func NewOpenGraph(log *zap.Logger) *OpenGraph {
	return &OpenGraph{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: log,
	}
}

func (f *OpenGraph) Fetch(ctx context.Context, key string) (*preview.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; previewd/1.0)")

	res, err := f.doRequestWithBackoff(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != 200 {
		return nil, fmt.Errorf("failed to fetch URL: %s (status: %d)", key, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, err
	}

	md := &preview.Metadata{SourceURL: key}

	md.Title = metaProperty(doc, "og:title")
	if md.Title == "" {
		md.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	md.Description = metaProperty(doc, "og:description")
	if md.Description == "" {
		md.Description = metaName(doc, "description")
	}

	if img := metaProperty(doc, "og:image"); img != "" {
		md.ImageURL = makeAbsoluteURL(img, key)
	}

	md.SiteName = metaProperty(doc, "og:site_name")
	if md.SiteName == "" {
		md.SiteName = extractDomain(key)
	}

	if md.Title == "" && md.Description == "" {
		return nil, fmt.Errorf("no usable metadata at %s", key)
	}

	return md, nil
}

func metaProperty(doc *goquery.Document, prop string) string {
	sel := fmt.Sprintf(`meta[property=%q]`, prop)
	return strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
}

func metaName(doc *goquery.Document, name string) string {
	sel := fmt.Sprintf(`meta[name=%q]`, name)
	return strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
}

// doRequestWithBackoff retries on rate limiting and server errors with
// exponential backoff.
func (f *OpenGraph) doRequestWithBackoff(req *http.Request) (*http.Response, error) {
	maxRetries := 3
	baseDelay := time.Second
	maxDelay := 8 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}

		if res.StatusCode == 429 || (res.StatusCode >= 500 && res.StatusCode <= 599) {
			delay := time.Duration(1<<uint(attempt)) * baseDelay
			if delay > maxDelay {
				delay = maxDelay
			}

			f.log.Debug("rate limited, backing off",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))

			res.Body.Close()
			time.Sleep(delay)
			continue
		}

		return res, nil
	}

	return nil, fmt.Errorf("max retries exceeded while handling rate limits")
}
