package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"
)

// HTTPCamera captures frames from an IP camera snapshot endpoint
// (e.g., http://cam.local/shot.jpg). Each Capture fetches one JPEG.
type HTTPCamera struct {
	url    string
	client *http.Client
	open   bool
}

// NewHTTPCamera creates a snapshot camera for the given URL.
func NewHTTPCamera(url string, timeout time.Duration) *HTTPCamera {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPCamera{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Open probes the snapshot endpoint once. A failed probe means the
// device is unreachable and the session must not start.
func (c *HTTPCamera) Open(ctx context.Context) error {
	if c.url == "" {
		return fmt.Errorf("%w: no camera URL configured", ErrDeviceUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: probe returned status %d", ErrDeviceUnavailable, resp.StatusCode)
	}

	c.open = true
	return nil
}

// Capture fetches and decodes one snapshot frame.
func (c *HTTPCamera) Capture(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &CaptureError{Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &CaptureError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &CaptureError{Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, &CaptureError{Err: fmt.Errorf("decode: %v", err)}
	}
	return img, nil
}

// Close releases the camera. The HTTP client holds no persistent device
// handle, so this only marks the source closed.
func (c *HTTPCamera) Close() error {
	c.open = false
	return nil
}
