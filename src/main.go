// main.go - Entry point for the Talk2Trade terminal client.
// Builds the cobra command tree, loads configuration and launches the chat
// screen or one of the one-shot commands.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"talk2trade/src/app"
	"talk2trade/src/config"
	"talk2trade/src/logging"
	"talk2trade/src/services/backend"
	"talk2trade/src/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =====================================================================================
// 🚀 Application Entry Point
// =====================================================================================

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		stop()
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath   string
	baseURL      string
	conversation string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "talk2trade",
		Short: "Chat with the Talk2Trade prediction-market assistant",
		Long: `Talk2Trade is a terminal chat client for the Talk2Trade backend.

Run without a subcommand to open the chat screen. Type a question and press
Enter, record a voice message with Ctrl+R, or use /markets and /categories.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.runInteractive(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&opts.baseURL, "base-url", "", "backend base URL (overrides config)")
	flags.StringVar(&opts.conversation, "conversation", "", "conversation id to resume (default \""+session.DefaultConversationID+"\")")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newAskCmd(opts),
		newHistoryCmd(opts),
		newMarketsCmd(opts),
		newCategoriesCmd(opts),
		newStatusCmd(opts),
		newConfigCmd(opts),
	)
	return root
}

// loadConfig applies .env, the config file and flags, in that order of precedence.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.baseURL != "" {
		cfg.Backend.BaseURL = strings.TrimSpace(o.baseURL)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--base-url: %w", err)
		}
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

func (o *rootOptions) session() *session.Session {
	return session.Resume(o.conversation, nil)
}

// =====================================================================================
// 💬 Interactive chat screen
// =====================================================================================

func (o *rootOptions) runInteractive(ctx context.Context) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}

	logger := logging.NewOrNop(cfg.Logging)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting Talk2Trade", zap.String("base_url", cfg.Backend.BaseURL))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := app.New(ctx, app.Options{
		Config:  cfg,
		Backend: backend.New(cfg.Backend, logger),
		Session: o.session(),
		Logger:  logger,
	})
	defer model.Shutdown()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	setupGracefulShutdown(ctx, program, logger)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		logger.Error("application failed", zap.Error(err))
		return fmt.Errorf("run chat screen: %w", err)
	}

	logger.Info("application completed")
	return nil
}

// =====================================================================================
// 🛡️ Graceful Shutdown
// =====================================================================================

// setupGracefulShutdown quits the program when ctx is cancelled by a signal.
func setupGracefulShutdown(ctx context.Context, program *tea.Program, logger *zap.Logger) {
	go func() {
		<-ctx.Done()
		logger.Info("received shutdown signal, cleaning up")
		program.Quit()
	}()
}
