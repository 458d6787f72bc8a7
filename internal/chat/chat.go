// Package chat is the interactive conversation loop: plain input lines
// become turn submissions, slash-prefixed lines run local commands.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/manash/thumbchat/internal/conversation"
	"github.com/manash/thumbchat/internal/display"
	"github.com/manash/thumbchat/internal/imaging"
	"github.com/manash/thumbchat/internal/usage"
)

type Chat struct {
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	session   *conversation.Session
	submitter *Submitter
	displayer *display.Displayer
	saver     *imaging.Saver
	ledger    *usage.Store
	commands     map[string]Command
	commandOrder []Command
	running      bool
}

type Config struct {
	In        io.Reader
	Out       io.Writer
	Err       io.Writer
	Session   *conversation.Session
	Submitter *Submitter
	Displayer *display.Displayer
	Saver     *imaging.Saver
	Ledger    *usage.Store
}

func New(cfg *Config) *Chat {
	c := &Chat{
		in:        cfg.In,
		out:       cfg.Out,
		errOut:    cfg.Err,
		session:   cfg.Session,
		submitter: cfg.Submitter,
		displayer: cfg.Displayer,
		saver:     cfg.Saver,
		ledger:    cfg.Ledger,
		commands:  make(map[string]Command),
	}
	c.registerCommands()
	return c
}

func (c *Chat) Run(ctx context.Context) error {
	c.running = true
	c.printWelcome()

	scanner := bufio.NewScanner(c.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for c.running {
		c.printPrompt()
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if err := c.execute(ctx, line); err != nil {
				fmt.Fprintf(c.errOut, "Error: %v\n", err)
			}
			continue
		}

		c.handleTurn(ctx, line)
	}

	return scanner.Err()
}

// handleTurn runs one submission and renders the outcome. A failed
// submission surfaces an error and leaves the conversation untouched.
func (c *Chat) handleTurn(ctx context.Context, text string) {
	fmt.Fprintln(c.out, "Working...")

	bot, err := c.submitter.Submit(ctx, text)
	if err != nil {
		fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return
	}

	fmt.Fprintln(c.out, bot.Text)
	if bot.HasImage() {
		if err := c.displayer.Show(bot.Image); err != nil {
			fmt.Fprintf(c.errOut, "Warning: failed to display: %v\n", err)
		}
	}
}

func (c *Chat) execute(ctx context.Context, line string) error {
	parts := parseCommand(strings.TrimPrefix(line, "/"))
	if len(parts) == 0 {
		return nil
	}

	cmdName := strings.ToLower(parts[0])
	args := parts[1:]

	cmd, ok := c.commands[cmdName]
	if !ok {
		return fmt.Errorf("unknown command: /%s (type '/help' for available commands)", cmdName)
	}

	return cmd.Execute(ctx, c, args)
}

func (c *Chat) Stop() {
	c.running = false
}

func (c *Chat) printWelcome() {
	fmt.Fprintln(c.out, "thumbchat interactive mode")
	fmt.Fprintln(c.out, "Describe a thumbnail to generate it, or /attach an image to edit it.")
	fmt.Fprintln(c.out, "Type '/help' for commands, '/quit' to exit.")
	fmt.Fprintln(c.out)
}

func (c *Chat) printPrompt() {
	if c.session.PendingUpload() != nil {
		fmt.Fprint(c.out, "thumbchat [+img]> ")
		return
	}
	fmt.Fprint(c.out, "thumbchat> ")
}

// terminalWidth returns the output width for transcript wrapping, with
// a fallback for non-terminal writers.
func terminalWidth() int {
	if w, _, err := term.GetSize(0); err == nil && w > 20 {
		return w
	}
	return 80
}

func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
			continue
		}
		current += " " + word
	}
	return append(lines, current)
}

// parseCommand splits a command line, honoring single and double quotes
// so paths with spaces survive.
func parseCommand(line string) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, ch := range line {
		switch {
		case ch == '"' || ch == '\'':
			if inQuotes && ch == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else if !inQuotes {
				inQuotes = true
				quoteChar = ch
			} else {
				current.WriteRune(ch)
			}
		case ch == ' ' && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
