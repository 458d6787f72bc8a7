package chat

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/manash/thumbchat/internal/conversation"
)

type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Execute(ctx context.Context, c *Chat, args []string) error
}

func (c *Chat) registerCommands() {
	commands := []Command{
		&AttachCommand{},
		&DetachCommand{},
		&SaveCommand{},
		&HistoryCommand{},
		&UsageCommand{},
		&NewCommand{},
		&HelpCommand{},
		&QuitCommand{},
	}

	c.commandOrder = commands
	for _, cmd := range commands {
		c.commands[cmd.Name()] = cmd
		for _, alias := range cmd.Aliases() {
			c.commands[alias] = cmd
		}
	}
}

// AttachCommand loads a local image file as the pending upload
type AttachCommand struct{}

func (c *AttachCommand) Name() string        { return "attach" }
func (c *AttachCommand) Aliases() []string   { return []string{"a", "upload"} }
func (c *AttachCommand) Description() string { return "Attach an image file to the next message" }
func (c *AttachCommand) Usage() string       { return "/attach <path>" }

func (c *AttachCommand) Execute(_ context.Context, ch *Chat, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	upload, err := LoadUpload(path, data)
	if err != nil {
		return err
	}

	ch.session.Attach(upload)
	fmt.Fprintf(ch.out, "Attached: %s (%dx%d, %s)\n",
		path, upload.Width, upload.Height, humanize.Bytes(uint64(len(upload.Data))))
	return nil
}

// DetachCommand clears the pending upload
type DetachCommand struct{}

func (c *DetachCommand) Name() string        { return "detach" }
func (c *DetachCommand) Aliases() []string   { return []string{"d", "remove"} }
func (c *DetachCommand) Description() string { return "Remove the pending attachment" }
func (c *DetachCommand) Usage() string       { return "/detach" }

func (c *DetachCommand) Execute(_ context.Context, ch *Chat, _ []string) error {
	if ch.session.PendingUpload() == nil {
		return fmt.Errorf("no pending attachment")
	}
	ch.session.ClearUpload()
	fmt.Fprintln(ch.out, "Attachment removed.")
	return nil
}

// SaveCommand writes the latest generated thumbnail to disk
type SaveCommand struct{}

func (c *SaveCommand) Name() string        { return "save" }
func (c *SaveCommand) Aliases() []string   { return []string{"s", "download"} }
func (c *SaveCommand) Description() string { return "Save the latest thumbnail to a file" }
func (c *SaveCommand) Usage() string       { return "/save [path]" }

func (c *SaveCommand) Execute(_ context.Context, ch *Chat, args []string) error {
	last, ok := ch.session.History().LastBotTurnWithImage()
	if !ok {
		return fmt.Errorf("no thumbnail to save yet")
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}

	saved, err := ch.saver.Save(last.Image.Data, path)
	if err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}

	fmt.Fprintf(ch.out, "Saved: %s (%s)\n", saved, humanize.Bytes(uint64(len(last.Image.Data))))
	return nil
}

// HistoryCommand prints the conversation transcript
type HistoryCommand struct{}

func (c *HistoryCommand) Name() string        { return "history" }
func (c *HistoryCommand) Aliases() []string   { return []string{"h", "hist"} }
func (c *HistoryCommand) Description() string { return "Show the conversation so far" }
func (c *HistoryCommand) Usage() string       { return "/history" }

func (c *HistoryCommand) Execute(_ context.Context, ch *Chat, _ []string) error {
	turns := ch.session.History().Turns()
	if len(turns) == 0 {
		fmt.Fprintln(ch.out, "No conversation yet.")
		return nil
	}

	width := terminalWidth() - 12
	for _, t := range turns {
		label := "you"
		if t.Role == conversation.RoleBot {
			label = "bot"
		}
		stamp := t.CreatedAt.Format("15:04:05")
		for i, line := range wrapText(t.Text, width) {
			if i == 0 {
				fmt.Fprintf(ch.out, "%s %-3s  %s\n", stamp, label, line)
				continue
			}
			fmt.Fprintf(ch.out, "%13s %s\n", "", line)
		}
		if t.HasImage() {
			fmt.Fprintf(ch.out, "%13s [image %dx%d]\n", "", t.Image.Width, t.Image.Height)
		}
	}
	return nil
}

// UsageCommand prints API usage totals from the ledger
type UsageCommand struct{}

func (c *UsageCommand) Name() string        { return "usage" }
func (c *UsageCommand) Aliases() []string   { return []string{"u"} }
func (c *UsageCommand) Description() string { return "Show API usage totals" }
func (c *UsageCommand) Usage() string       { return "/usage" }

func (c *UsageCommand) Execute(ctx context.Context, ch *Chat, _ []string) error {
	if ch.ledger == nil {
		return fmt.Errorf("usage ledger not available")
	}

	sess, err := ch.ledger.SessionTotal(ctx, ch.session.ID)
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}
	total, err := ch.ledger.Total(ctx)
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}

	fmt.Fprintf(ch.out, "This session: %d call(s), %s tokens\n",
		sess.Calls, humanize.Comma(int64(sess.TotalTokens)))
	fmt.Fprintf(ch.out, "All time:     %d call(s), %s tokens\n",
		total.Calls, humanize.Comma(int64(total.TotalTokens)))

	byOp, err := ch.ledger.ByOperation(ctx)
	if err != nil {
		return fmt.Errorf("failed to read usage: %w", err)
	}
	for _, op := range byOp {
		fmt.Fprintf(ch.out, "  %-9s %d call(s), %s tokens\n",
			op.Operation, op.Calls, humanize.Comma(int64(op.TotalTokens)))
	}
	return nil
}

// NewCommand resets the conversation
type NewCommand struct{}

func (c *NewCommand) Name() string        { return "new" }
func (c *NewCommand) Aliases() []string   { return []string{"reset"} }
func (c *NewCommand) Description() string { return "Start a fresh conversation" }
func (c *NewCommand) Usage() string       { return "/new" }

func (c *NewCommand) Execute(_ context.Context, ch *Chat, _ []string) error {
	ch.session.Reset()
	fmt.Fprintln(ch.out, "Started a new conversation.")
	return nil
}

// HelpCommand lists available commands
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"?"} }
func (c *HelpCommand) Description() string { return "Show this help" }
func (c *HelpCommand) Usage() string       { return "/help" }

func (c *HelpCommand) Execute(_ context.Context, ch *Chat, _ []string) error {
	fmt.Fprintln(ch.out, "Type a description to generate a thumbnail, or attach an image and")
	fmt.Fprintln(ch.out, "describe the edit you want. Commands:")
	fmt.Fprintln(ch.out)

	for _, cmd := range ch.commandOrder {
		aliases := ""
		if len(cmd.Aliases()) > 0 {
			aliases = " (/" + strings.Join(cmd.Aliases(), ", /") + ")"
		}
		fmt.Fprintf(ch.out, "  %-18s %s%s\n", cmd.Usage(), cmd.Description(), aliases)
	}
	return nil
}

// QuitCommand exits the chat loop
type QuitCommand struct{}

func (c *QuitCommand) Name() string        { return "quit" }
func (c *QuitCommand) Aliases() []string   { return []string{"exit", "q"} }
func (c *QuitCommand) Description() string { return "Exit thumbchat" }
func (c *QuitCommand) Usage() string       { return "/quit" }

func (c *QuitCommand) Execute(_ context.Context, ch *Chat, _ []string) error {
	ch.Stop()
	fmt.Fprintln(ch.out, "Goodbye!")
	return nil
}
