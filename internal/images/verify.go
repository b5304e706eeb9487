package images

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	verifyTimeout = 5 * time.Second
	minImageBytes = 5000
)

// VerifyImageURL performs the network-level existence check used during
// acquisition: HEAD must succeed, the content type must be a still
// raster image, and the declared size must clear the noise floor.
func (e *Engine) VerifyImageURL(ctx context.Context, rawURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return false
	}
	if strings.Contains(contentType, "gif") || strings.Contains(contentType, "svg") {
		return false
	}

	if raw := resp.Header.Get("Content-Length"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size < minImageBytes {
			return false
		}
	}

	return true
}
