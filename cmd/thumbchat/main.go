package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manash/thumbchat/internal/chat"
	"github.com/manash/thumbchat/internal/config"
	"github.com/manash/thumbchat/internal/conversation"
	"github.com/manash/thumbchat/internal/display"
	"github.com/manash/thumbchat/internal/imaging"
	"github.com/manash/thumbchat/internal/keys"
	"github.com/manash/thumbchat/internal/provider"
	"github.com/manash/thumbchat/internal/provider/openai"
	"github.com/manash/thumbchat/internal/usage"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	flagAPIKey  string
	flagModel   string
	flagSize    string
	flagQuality string
	flagOutput  string
	flagVerbose bool
)

// App bundles the injectable seams so the command wiring stays testable.
type App struct {
	Out         io.Writer
	Err         io.Writer
	GetEnv      func(string) string
	NewProvider func(cfg *provider.Config) provider.Provider
	NewLedger   func(dataDir string) (*usage.Store, error)
}

func DefaultApp() *App {
	return &App{
		Out:    os.Stdout,
		Err:    os.Stderr,
		GetEnv: os.Getenv,
		NewProvider: func(cfg *provider.Config) provider.Provider {
			return openai.New(cfg)
		},
		NewLedger: usage.NewStore,
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	app := DefaultApp()
	rootCmd := newRootCmd(app)
	return rootCmd.Execute()
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thumbchat [prompt]",
		Short: "Generate and iteratively edit YouTube thumbnails in a chat",
		Long: `thumbchat is a conversational CLI for creating YouTube thumbnails.

Run it with no arguments for an interactive chat: describe a thumbnail to
generate one, keep talking to refine it, or attach an image to edit it.
Pass a prompt as the single argument for a one-shot generation.

Examples:
  thumbchat
  thumbchat "red arrow pointing at a shocked face, bold GONE WRONG text"
  thumbchat keys set sk-...`,
		Args:    cobra.MaximumNArgs(1),
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runOneShot(cmd.Context(), app, args[0])
			}
			return runChat(cmd.Context(), app)
		},
	}

	cmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (defaults to stored key or OPENAI_API_KEY)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "dump HTTP requests and responses to stderr")
	cmd.Flags().StringVarP(&flagModel, "model", "m", "", "image model override")
	cmd.Flags().StringVarP(&flagSize, "size", "s", "", "image size override")
	cmd.Flags().StringVarP(&flagQuality, "quality", "q", "", "quality override")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output filename (one-shot mode)")

	cmd.AddCommand(newKeysCmd(app))
	cmd.AddCommand(newUsageCmd(app))

	return cmd
}

// buildConfig merges environment configuration with flag overrides and
// the resolved credential. A missing key is a warning, not an error.
func buildConfig(app *App, logger *slog.Logger) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if key, source := keys.Resolve(flagAPIKey); key != "" {
		cfg.APIKey = key
		logger.Debug("resolved API key", "source", source)
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagSize != "" {
		cfg.Size = flagSize
	}
	if flagQuality != "" {
		cfg.Quality = flagQuality
	}

	if err := cfg.CheckAPIKey(); err != nil {
		logger.Warn("no API key configured; requests will fail",
			"hint", "run 'thumbchat keys set <key>' or set OPENAI_API_KEY")
	}

	return cfg, nil
}

func newLogger(out io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
}

func runChat(parent context.Context, app *App) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(app.Err)

	cfg, err := buildConfig(app, logger)
	if err != nil {
		return err
	}

	prov := app.NewProvider(&provider.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Size:       cfg.Size,
		Quality:    cfg.Quality,
		TimeoutSec: cfg.TimeoutSec,
		Verbose:    flagVerbose,
	})

	ledger, err := app.NewLedger(cfg.DataDir)
	if err != nil {
		logger.Warn("usage ledger unavailable", "error", err)
		ledger = nil
	} else {
		defer ledger.Close()
	}

	sess := conversation.NewSession()
	submitter := chat.NewSubmitter(prov, sess, ledger, cfg.Model, logger)

	c := chat.New(&chat.Config{
		In:        os.Stdin,
		Out:       app.Out,
		Err:       app.Err,
		Session:   sess,
		Submitter: submitter,
		Displayer: display.New(app.Out),
		Saver:     imaging.NewSaver(),
		Ledger:    ledger,
	})

	return c.Run(ctx)
}

func runOneShot(parent context.Context, app *App, prompt string) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(app.Err)

	cfg, err := buildConfig(app, logger)
	if err != nil {
		return err
	}

	prov := app.NewProvider(&provider.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Size:       cfg.Size,
		Quality:    cfg.Quality,
		TimeoutSec: cfg.TimeoutSec,
		Verbose:    flagVerbose,
	})

	ledger, err := app.NewLedger(cfg.DataDir)
	if err != nil {
		logger.Warn("usage ledger unavailable", "error", err)
		ledger = nil
	} else {
		defer ledger.Close()
	}

	sess := conversation.NewSession()
	submitter := chat.NewSubmitter(prov, sess, ledger, cfg.Model, logger)

	fmt.Fprintf(app.Out, "Generating thumbnail with %s...\n", cfg.Model)

	bot, err := submitter.Submit(ctx, prompt)
	if err != nil {
		return err
	}

	saver := imaging.NewSaver()
	path, err := saver.Save(bot.Image.Data, flagOutput)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.Out, "Saved: %s\n", path)
	return nil
}

func newKeysCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage the stored API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key>",
		Short: "Store the API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			if err := store.Set(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Stored key %s in %s\n", keys.MaskKey(args[0]), store.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored API key (masked)",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			key, err := store.Get()
			if err != nil {
				return err
			}
			if key == "" {
				fmt.Fprintln(app.Out, "No key stored.")
				return nil
			}
			fmt.Fprintln(app.Out, keys.MaskKey(key))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Delete the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, err := keys.NewStore()
			if err != nil {
				return err
			}
			if err := store.Delete(); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Key deleted.")
			return nil
		},
	})

	return cmd
}

func newUsageCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show accumulated API usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ledger, err := app.NewLedger(cfg.DataDir)
			if err != nil {
				return err
			}
			defer ledger.Close()

			total, err := ledger.Total(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "All time: %d call(s), %d tokens\n", total.Calls, total.TotalTokens)

			byOp, err := ledger.ByOperation(cmd.Context())
			if err != nil {
				return err
			}
			for _, op := range byOp {
				fmt.Fprintf(app.Out, "  %-9s %d call(s), %d tokens\n", op.Operation, op.Calls, op.TotalTokens)
			}
			return nil
		},
	}
}
