// Package imaging normalizes uploaded images to the formats the edit
// endpoint accepts and saves returned images to disk.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"slices"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var (
	ErrNotAnImage   = errors.New("file is not a recognized image")
	ErrDecodeFailed = errors.New("failed to decode image")
	ErrEncodeFailed = errors.New("failed to encode image")
)

// AllowedMIMEs is the fixed allow-list of formats the remote edit
// endpoint accepts. Order matters: disallowed formats are re-encoded
// into the first entry.
var AllowedMIMEs = []string{"image/png", "image/jpeg", "image/webp"}

// IsAllowed reports whether the declared content type needs no
// conversion before transmission.
func IsAllowed(mime string) bool {
	return slices.Contains(AllowedMIMEs, mime)
}

// Sniff detects the content type from the leading bytes.
func Sniff(data []byte) string {
	return http.DetectContentType(data)
}

// IsImage reports whether the sniffed content type is any raster image.
func IsImage(data []byte) bool {
	_, _, err := image.DecodeConfig(bytes.NewReader(data))
	return err == nil
}

// Dimensions returns the pixel width and height without a full decode.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return cfg.Width, cfg.Height, nil
}

// Normalize returns the image in a format the edit endpoint accepts.
// Allowed formats pass through byte-identical; anything else is decoded
// and re-encoded as PNG, preserving the original pixel dimensions. A
// decode or encode failure aborts before any request is sent.
func Normalize(data []byte, mime string) ([]byte, string, error) {
	if IsAllowed(mime) {
		return data, mime, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	return buf.Bytes(), AllowedMIMEs[0], nil
}
