package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return buf.Bytes()
}

func TestCaptureReturnsFrame(t *testing.T) {
	frame := testJPEG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(frame)
	}))
	defer srv.Close()

	s := New([]string{srv.URL}, false)
	got, contentType, err := s.Capture(context.Background(), 0)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Error("captured frame differs from device frame")
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", contentType)
	}
}

func TestCaptureUnknownDeviceIndex(t *testing.T) {
	s := New([]string{"http://localhost:1/snapshot"}, false)
	for _, idx := range []int{-1, 1, 5} {
		_, _, err := s.Capture(context.Background(), idx)
		if !errors.Is(err, ErrDeviceUnavailable) {
			t.Errorf("index %d: expected ErrDeviceUnavailable, got %v", idx, err)
		}
	}
}

func TestCaptureUnreachableDevice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // device gone

	s := New([]string{srv.URL}, false)
	_, _, err := s.Capture(context.Background(), 0)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestCaptureDeviceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "sensor fault", http.StatusInternalServerError)
		}},
		{"empty body", func(w http.ResponseWriter, r *http.Request) {}},
		{"not an image", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>login required</html>"))
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			s := New([]string{srv.URL}, false)
			_, _, err := s.Capture(context.Background(), 0)
			if !errors.Is(err, ErrCaptureFailed) {
				t.Fatalf("expected ErrCaptureFailed, got %v", err)
			}
		})
	}
}

func TestCaptureSkipModeReturnsDecodableFrame(t *testing.T) {
	s := New(nil, true)
	frame, contentType, err := s.Capture(context.Background(), 0)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", contentType)
	}
	if _, err := jpeg.Decode(bytes.NewReader(frame)); err != nil {
		t.Errorf("mock frame does not decode: %v", err)
	}
}
