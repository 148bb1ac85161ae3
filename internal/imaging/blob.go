// Package imaging converts item image attachments between a source file
// on disk and the binary blob stored on the item row. Both directions are
// pure functions of their input.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
)

// NoImage is the explicit "no image" value produced when a nil or empty
// blob is decoded.
const NoImage = ""

// Encode reads the image at the given path and re-encodes it as a PNG
// blob, normalizing the on-disk format. An empty or blank path yields an
// empty blob, not an error.
func Encode(path string) ([]byte, error) {
	if strings.TrimSpace(path) == "" {
		return []byte{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image source: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image source: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode turns a stored blob into a display-ready data URL. A nil or empty
// blob decodes to NoImage; decoding never fails.
func Decode(blob []byte) string {
	if len(blob) == 0 {
		return NoImage
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(blob)
}
