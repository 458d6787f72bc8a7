package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"
)

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 50), G: uint8(y * 50), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func gifFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{
		color.RGBA{A: 255},
		color.RGBA{R: 255, A: 255},
	})
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatalf("gif.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestNormalize_AllowedPassesThroughUnchanged(t *testing.T) {
	data := pngFixture(t, 4, 3)

	got, mime, err := Normalize(data, "image/png")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}
	if !bytes.Equal(got, data) {
		t.Error("allowed format was not returned byte-identical")
	}
}

func TestNormalize_DisallowedReencodesToPNG(t *testing.T) {
	data := gifFixture(t, 5, 7)

	got, mime, err := Normalize(data, "image/gif")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}

	w, h, err := Dimensions(got)
	if err != nil {
		t.Fatalf("Dimensions() error = %v", err)
	}
	if w != 5 || h != 7 {
		t.Errorf("re-encoded dimensions = %dx%d, want 5x7", w, h)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if format != "png" {
		t.Errorf("re-encoded format = %q, want png", format)
	}
}

func TestNormalize_UndecodableFails(t *testing.T) {
	_, _, err := Normalize([]byte("definitely not an image"), "image/gif")
	if !errors.Is(err, ErrDecodeFailed) {
		t.Errorf("Normalize() error = %v, want ErrDecodeFailed", err)
	}
}

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		mime string
		want bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"image/webp", true},
		{"image/gif", false},
		{"image/bmp", false},
		{"text/plain", false},
	}

	for _, tt := range tests {
		if got := IsAllowed(tt.mime); got != tt.want {
			t.Errorf("IsAllowed(%q) = %v, want %v", tt.mime, got, tt.want)
		}
	}
}

func TestSniff(t *testing.T) {
	if got := Sniff(pngFixture(t, 2, 2)); got != "image/png" {
		t.Errorf("Sniff(png) = %q, want image/png", got)
	}
	if got := Sniff(gifFixture(t, 2, 2)); got != "image/gif" {
		t.Errorf("Sniff(gif) = %q, want image/gif", got)
	}
}

func TestIsImage(t *testing.T) {
	if !IsImage(pngFixture(t, 2, 2)) {
		t.Error("IsImage(png) = false, want true")
	}
	if IsImage([]byte("plain text file")) {
		t.Error("IsImage(text) = true, want false")
	}
}

func TestDimensions(t *testing.T) {
	w, h, err := Dimensions(pngFixture(t, 8, 6))
	if err != nil {
		t.Fatalf("Dimensions() error = %v", err)
	}
	if w != 8 || h != 6 {
		t.Errorf("Dimensions() = %dx%d, want 8x6", w, h)
	}

	if _, _, err := Dimensions([]byte("nope")); err == nil {
		t.Error("Dimensions() on garbage = nil error, want error")
	}
}
