// Package capture acquires single still frames from configured camera
// devices. Devices are HTTP snapshot sources (the common IP camera
// interface); a device index selects one.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	_ "image/png"
)

// Sentinel errors for the two capture failure modes.
var (
	ErrDeviceUnavailable = errors.New("camera device unavailable")
	ErrCaptureFailed     = errors.New("failed to capture frame")
)

// Service captures one frame at a time. No retry is performed; a failed
// attempt surfaces immediately to the caller.
type Service struct {
	urls []string
	Skip bool
	HTTP *http.Client
}

// New creates a capture service over the configured snapshot URLs.
func New(urls []string, skip bool) *Service {
	return &Service{
		urls: urls,
		Skip: skip,
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

// Capture opens the device at deviceIndex, reads exactly one frame, and
// returns the encoded image bytes with their content type. The connection is
// scoped to this call on all exit paths.
func (s *Service) Capture(ctx context.Context, deviceIndex int) ([]byte, string, error) {
	if s.Skip {
		return mockFrame(), "image/jpeg", nil
	}
	if deviceIndex < 0 || deviceIndex >= len(s.urls) {
		return nil, "", fmt.Errorf("%w: no device at index %d", ErrDeviceUnavailable, deviceIndex)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.urls[deviceIndex], nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: device returned %s", ErrCaptureFailed, resp.Status)
	}

	frame, err := io.ReadAll(resp.Body)
	if err != nil || len(frame) == 0 {
		return nil, "", fmt.Errorf("%w: empty frame", ErrCaptureFailed)
	}

	// The frame must decode as an actual image before it is handed on.
	if _, _, err := image.Decode(bytes.NewReader(frame)); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}

	return frame, http.DetectContentType(frame), nil
}

// mockFrame returns a canned gray JPEG for running without a camera.
func mockFrame() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.Gray{Y: 128})
		}
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, nil)
	return buf.Bytes()
}
