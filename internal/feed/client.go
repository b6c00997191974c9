package feed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	appLog "fbcal/internal/log"
)

// Outcome is the raw result of one fetch: the HTTP status and body that
// should be handed to Interpret.
type Outcome struct {
	Status    int
	Body      []byte
	FromCache bool
}

// cacheMeta holds the HTTP validators for one cached URL.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Client fetches feed documents (and legacy ICS bodies) with conditional
// GETs backed by a per-URL disk cache. A cached body is reused on 304 and
// on transport errors; HTTP error statuses are returned as-is so the caller
// can interpret disabled/rate-limited bodies instead of masking them with
// stale data.
type Client struct {
	client   *http.Client
	cacheDir string
}

// NewClient creates a Client caching under cacheDir.
func NewClient(cacheDir string) *Client {
	if cacheDir == "" {
		cacheDir = "./var/feed-cache"
	}
	return &Client{
		client:   &http.Client{Timeout: 15 * time.Second},
		cacheDir: cacheDir,
	}
}

// Fetch performs one conditional GET of url.
func (c *Client) Fetch(ctx context.Context, url string) (Outcome, error) {
	if url == "" {
		return Outcome{}, errors.New("feed URL is empty")
	}

	cachePath, err := c.cachePathForURL(url)
	if err != nil {
		return Outcome{}, err
	}
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return Outcome{}, err
	}

	meta, _ := c.loadMeta(cachePath)
	cachedBody, _ := os.ReadFile(filepath.Join(cachePath, "body"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Accept", "application/json")
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("feed fetch start", "url", redactURL(url))

	resp, err := c.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("feed fetch network error, using cached body", err, "url", redactURL(url))
			return Outcome{Status: http.StatusOK, Body: cachedBody, FromCache: true}, nil
		}
		return Outcome{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Outcome{}, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		newMeta := cacheMeta{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := c.saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("feed cache save failed", err, "url", redactURL(url))
		}
		return Outcome{Status: resp.StatusCode, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return Outcome{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Debug("feed not modified; using cache", "url", redactURL(url))
		return Outcome{Status: http.StatusOK, Body: cachedBody, FromCache: true}, nil

	default:
		return Outcome{Status: resp.StatusCode, Body: body}, nil
	}
}

func (c *Client) cachePathForURL(url string) (string, error) {
	if url == "" {
		return "", errors.New("empty url")
	}
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(c.cacheDir, hex.EncodeToString(sum[:8])), nil
}

func (c *Client) loadMeta(cachePath string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheMeta{}, err
	}
	return meta, nil
}

func (c *Client) saveCache(cachePath string, meta cacheMeta, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body"), body, 0o600); err != nil {
		return err
	}
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL hides path and query when logging feed URLs, which may embed
// access tokens.
func redactURL(u string) string {
	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "...(redacted)"
	}
	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	return u[:j] + "/...(redacted)"
}
