package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/manash/thumbchat/internal/conversation"
)

func TestDisplayer_Show_Inline(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithInline(&buf, true)

	img := &conversation.Image{Data: []byte("test image data"), Width: 4, Height: 4}
	if err := d.Show(img); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	if !strings.Contains(buf.String(), "\x1b_G") {
		t.Error("inline output should contain the kitty escape sequence")
	}
}

func TestDisplayer_Show_Placeholder(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithInline(&buf, false)

	img := &conversation.Image{Data: []byte("test image data"), Width: 1536, Height: 1024}
	if err := d.Show(img); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	if got := buf.String(); got != "[image 1536x1024]\n" {
		t.Errorf("placeholder output = %q", got)
	}
}

func TestDisplayer_Show_PlaceholderWithoutDimensions(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithInline(&buf, false)

	img := &conversation.Image{Data: []byte("test image data")}
	if err := d.Show(img); err != nil {
		t.Fatalf("Show() error = %v", err)
	}

	if got := buf.String(); got != "[image]\n" {
		t.Errorf("placeholder output = %q", got)
	}
}

func TestDisplayer_Show_NoData(t *testing.T) {
	var buf bytes.Buffer
	d := NewWithInline(&buf, true)

	if err := d.Show(&conversation.Image{}); err == nil {
		t.Error("Show() with no data should return error")
	}
	if err := d.Show(nil); err == nil {
		t.Error("Show(nil) should return error")
	}
}

func TestNew_NonTerminalWriter(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	if d.inline {
		t.Error("New() with a bytes.Buffer should not enable inline display")
	}
}
