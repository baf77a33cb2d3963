package conversation

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// maxImageBytes caps a single download; Discord attachments can be large
// and the model endpoint rejects oversized payloads anyway.
const maxImageBytes = 8 << 20

// Fetcher downloads a resource by URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over plain HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with a sane timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: 20 * time.Second}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

// ImageCache turns attachment URLs into base64 data URLs, caching by source
// URL so the same image is not re-downloaded and re-encoded within a process
// lifetime. Capacity-bounded: the oldest entry is dropped once full.
type ImageCache struct {
	mu       sync.Mutex
	entries  map[string]string
	order    []string
	capacity int
	fetcher  Fetcher
	logger   *slog.Logger
}

// NewImageCache creates a cache holding up to capacity encoded images.
func NewImageCache(capacity int, fetcher Fetcher, logger *slog.Logger) *ImageCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageCache{
		entries:  make(map[string]string),
		capacity: capacity,
		fetcher:  fetcher,
		logger:   logger,
	}
}

// DataURL returns a data: URL for the image at url, encoded with the given
// MIME type. Cached results are returned as-is regardless of mimeType.
func (c *ImageCache) DataURL(ctx context.Context, url, mimeType string) (string, error) {
	c.mu.Lock()
	if cached, ok := c.entries[url]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	data, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	encoded := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[url]; !ok {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
			c.logger.Debug("image cache eviction", "url", oldest)
		}
		c.entries[url] = encoded
		c.order = append(c.order, url)
	}
	return encoded, nil
}

// Len reports the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
