package imaging_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stockroomhq/stockroom/internal/imaging"
)

func writeTestImage(t *testing.T) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}

	path := filepath.Join(t.TempDir(), "item.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}
	return path
}

func TestEncode(t *testing.T) {
	t.Run("empty source yields empty blob", func(t *testing.T) {
		blob, err := imaging.Encode("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(blob) != 0 {
			t.Errorf("expected empty blob, got %d bytes", len(blob))
		}
	})

	t.Run("blank source yields empty blob", func(t *testing.T) {
		blob, err := imaging.Encode("   ")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(blob) != 0 {
			t.Errorf("expected empty blob, got %d bytes", len(blob))
		}
	})

	t.Run("encodes an image file to a png blob", func(t *testing.T) {
		blob, err := imaging.Encode(writeTestImage(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := png.Decode(bytes.NewReader(blob)); err != nil {
			t.Errorf("expected decodable png blob: %v", err)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := imaging.Encode(filepath.Join(t.TempDir(), "absent.png")); err == nil {
			t.Error("expected error for missing source")
		}
	})
}

func TestDecode(t *testing.T) {
	t.Run("nil blob decodes to NoImage", func(t *testing.T) {
		if got := imaging.Decode(nil); got != imaging.NoImage {
			t.Errorf("expected NoImage, got %q", got)
		}
	})

	t.Run("empty blob decodes to NoImage", func(t *testing.T) {
		if got := imaging.Decode([]byte{}); got != imaging.NoImage {
			t.Errorf("expected NoImage, got %q", got)
		}
	})

	t.Run("blob decodes to a data url", func(t *testing.T) {
		blob, err := imaging.Encode(writeTestImage(t))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got := imaging.Decode(blob)
		if !strings.HasPrefix(got, "data:image/png;base64,") {
			t.Errorf("expected data url, got %q", got)
		}
	})
}

func TestEmptyRoundTrip(t *testing.T) {
	blob, err := imaging.Encode("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := imaging.Decode(blob); got != imaging.NoImage {
		t.Errorf("expected empty round trip to yield NoImage, got %q", got)
	}
}
