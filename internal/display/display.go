// Package display renders thumbnail images inline in the terminal via
// the kitty graphics protocol, falling back to a plain placeholder when
// stdout is not a terminal.
package display

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/manash/thumbchat/internal/conversation"
)

type Displayer struct {
	out    io.Writer
	inline bool
}

func New(out io.Writer) *Displayer {
	return &Displayer{
		out:    out,
		inline: isTerminal(out),
	}
}

// NewWithInline forces the inline setting, for tests and for callers
// that already know the terminal capability.
func NewWithInline(out io.Writer, inline bool) *Displayer {
	return &Displayer{out: out, inline: inline}
}

// Show renders the image inline when the terminal supports it, and a
// dimension placeholder otherwise.
func (d *Displayer) Show(img *conversation.Image) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("image has no data")
	}

	if !d.inline {
		d.ShowPlaceholder(img)
		return nil
	}

	enc := NewKittyEncoder(d.out)
	if err := enc.Encode(img.Data); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	fmt.Fprintln(d.out)
	return nil
}

func (d *Displayer) ShowPlaceholder(img *conversation.Image) {
	if img.Width > 0 && img.Height > 0 {
		fmt.Fprintf(d.out, "[image %dx%d]\n", img.Width, img.Height)
		return
	}
	fmt.Fprintln(d.out, "[image]")
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
