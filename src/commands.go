// commands.go - One-shot subcommands: ask, history, markets, categories,
// status and config. Each prints Markdown rendered for the terminal.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"talk2trade/src/config"
	"talk2trade/src/logging"
	"talk2trade/src/models"
	"talk2trade/src/services/backend"
	"talk2trade/src/services/formatter"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// oneShot is the shared setup of the non-interactive commands.
type oneShot struct {
	cfg    *config.Config
	client *backend.Client
	out    io.Writer
}

// prepare loads config and builds a client that logs to stderr.
func (o *rootOptions) prepare(cmd *cobra.Command) (*oneShot, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Logging.File = ""
	if !o.verbose {
		cfg.Logging.Level = "warn"
	}
	logger := logging.NewOrNop(cfg.Logging)
	logger.Debug("one-shot command", zap.String("command", cmd.CommandPath()), zap.String("base_url", cfg.Backend.BaseURL))
	return &oneShot{
		cfg:    cfg,
		client: backend.New(cfg.Backend, logger),
		out:    cmd.OutOrStdout(),
	}, nil
}

func (s *oneShot) print(markdown string) {
	fmt.Fprintln(s.out, strings.TrimRight(renderMarkdown(markdown, s.cfg.UI.GlamourStyle), "\n"))
}

// renderMarkdown renders for the terminal, returning the input unchanged if
// glamour cannot.
func renderMarkdown(markdown, style string) string {
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(100))
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message...>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.prepare(cmd)
			if err != nil {
				return err
			}
			message := strings.TrimSpace(strings.Join(args, " "))
			if message == "" {
				return &models.ValidationError{Field: "message", Message: "must not be empty"}
			}
			resp, err := s.client.Chat(cmd.Context(), models.ChatRequest{
				Message:        message,
				ConversationID: opts.session().ConversationID(),
				RefreshMarkets: s.cfg.Backend.RefreshMarkets,
			})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			s.print(resp.Response)
			return nil
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the messages of the active conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.prepare(cmd)
			if err != nil {
				return err
			}
			id := opts.session().ConversationID()
			msgs, err := s.client.Conversation(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if len(msgs) == 0 {
				fmt.Fprintf(s.out, "No messages in conversation %s\n", id)
				return nil
			}
			s.print(formatHistory(msgs))
			return nil
		},
	}
}

func formatHistory(msgs []models.ConversationMessage) string {
	var sb strings.Builder
	for _, m := range msgs {
		who := "Talk2Trade"
		if models.ParseRole(m.Role) == models.RoleUser {
			who = "You"
		}
		fmt.Fprintf(&sb, "**%s:** %s\n\n", who, m.Content)
	}
	return sb.String()
}

func newMarketsCmd(opts *rootOptions) *cobra.Command {
	markets := &cobra.Command{
		Use:   "markets",
		Short: "Print the market data status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.prepare(cmd)
			if err != nil {
				return err
			}
			status, err := s.client.MarketStatus(cmd.Context())
			if err != nil {
				return fmt.Errorf("markets: %w", err)
			}
			s.print(formatter.MarketData(status))
			return nil
		},
	}

	markets.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Ask the backend to refresh market data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.prepare(cmd)
			if err != nil {
				return err
			}
			resp, err := s.client.RefreshMarkets(cmd.Context())
			if err != nil {
				return fmt.Errorf("refresh markets: %w", err)
			}
			if !resp.Success {
				return fmt.Errorf("refresh markets: %s", resp.Message)
			}
			fmt.Fprintln(s.out, "✅", resp.Message)
			return nil
		},
	})
	return markets
}

func newCategoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "Print event categories grouped by letter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.prepare(cmd)
			if err != nil {
				return err
			}
			resp, err := s.client.EventCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("categories: %w", err)
			}
			s.print(formatter.EventCategories(resp))
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print market status and event categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.prepare(cmd)
			if err != nil {
				return err
			}
			markets, categories, err := fetchStatus(cmd.Context(), s.client)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			s.print(formatter.MarketData(markets) + "\n\n" + formatter.EventCategories(categories))
			return nil
		},
	}
}

// statusClient is the part of the backend client used by fetchStatus.
type statusClient interface {
	MarketStatus(ctx context.Context) (*models.MarketStatus, error)
	EventCategories(ctx context.Context) (*models.CategoriesResponse, error)
}

// fetchStatus loads both endpoints concurrently. The first failure cancels the other call.
func fetchStatus(ctx context.Context, client statusClient) (*models.MarketStatus, *models.CategoriesResponse, error) {
	var (
		markets    *models.MarketStatus
		categories *models.CategoriesResponse
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		markets, err = client.MarketStatus(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = client.EventCategories(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return markets, categories, nil
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("check %s: %w", path, err)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}
