package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/config"
	"github.com/iammorganparry/feel/internal/engine"
	"github.com/iammorganparry/feel/internal/i18n"
	"github.com/iammorganparry/feel/internal/logger"
	"github.com/iammorganparry/feel/internal/models"
	"github.com/iammorganparry/feel/internal/storage"
)

var (
	verboseFlag bool
	jsonFlag    bool
)

func newRootCmd(out io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "feelctl",
		Short:         "Send messages to the mood engine and manage the saved history",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print raw JSON")

	rootCmd.AddCommand(
		newSendCmd(),
		newHistoryCmd(),
		newExportCmd(),
		newImportCmd(),
		newCleanupCmd(),
		newStatsCmd(),
		newClearCmd(),
	)
	return rootCmd
}

func cliLogger(cfg *config.Config) zerolog.Logger {
	if !verboseFlag {
		return zerolog.Nop()
	}
	return logger.NewWithWriter(os.Stderr, "feelctl", cfg.LogLevel)
}

// withStore opens the configured store for commands that never call the
// analysis provider.
func withStore(fn func(s *storage.Store) error) error {
	cfg, err := config.LoadOffline()
	if err != nil {
		return err
	}
	store, closer, err := engine.OpenStore(cfg, cliLogger(cfg))
	if err != nil {
		return err
	}
	defer closer()
	return fn(store)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newSendCmd() *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Analyze a message and append it to the history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := context.Background()
			eng, closer, err := engine.Build(ctx, cfg, cliLogger(cfg))
			if err != nil {
				return err
			}
			defer closer()
			if err := eng.Initialize(ctx); err != nil {
				return err
			}
			defer eng.Dispose()
			if lang != "" {
				if err := eng.SetLanguage(models.Language(lang)); err != nil {
					return err
				}
			}

			turn, err := eng.ProcessMessage(ctx, strings.Join(args, " "))
			if err != nil {
				msg := apperr.UserMessage(err, i18n.T(eng.Language(), "error.fallback"))
				return fmt.Errorf("%s (%s)", msg, apperr.KindOf(err))
			}

			out := cmd.OutOrStdout()
			if jsonFlag {
				return printJSON(out, turn)
			}
			r := turn.Result
			fmt.Fprintf(out, "%s  %s (%d/%d) [%s]\n", r.Emoji, r.Mood, r.Intensity, models.MaxIntensity, r.Group)
			fmt.Fprintf(out, "%s\n", r.SupportMessage)
			glyphs := make([]string, len(turn.FloatingEmojis))
			for i, f := range turn.FloatingEmojis {
				glyphs[i] = f.Emoji
			}
			fmt.Fprintf(out, "%s\n", strings.Join(glyphs, " "))
			if !turn.Persisted {
				fmt.Fprintln(out, "warning: history could not be saved")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "Output language (fr or en)")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved conversations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *storage.Store) error {
				entries := s.Load()
				if limit > 0 && limit < len(entries) {
					entries = entries[:limit]
				}
				out := cmd.OutOrStdout()
				if jsonFlag {
					return printJSON(out, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "no conversations")
					return nil
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s  %-12s %s  %s\n",
						e.Analysis.Emoji, humanize.Time(e.Timestamp), e.Analysis.Mood, e.UserMessage)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum entries to show (0 for all)")
	return cmd
}

func newExportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the history as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *storage.Store) error {
				data, err := s.Export()
				if err != nil {
					return err
				}
				if outPath == "" || outPath == "-" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), data)
					return err
				}
				return os.WriteFile(outPath, []byte(data), 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the history with an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			entries, err := storage.ParseImport(string(data))
			if err != nil {
				return err
			}
			return withStore(func(s *storage.Store) error {
				if !s.Import(string(data)) {
					return fmt.Errorf("import failed: history could not be saved")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d conversations\n", len(entries))
				return nil
			})
		},
	}
}

func newCleanupCmd() *cobra.Command {
	var keep int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Keep only the newest conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keep < 0 {
				return fmt.Errorf("--keep must not be negative")
			}
			return withStore(func(s *storage.Store) error {
				removed := s.Cleanup(keep)
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d conversations\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&keep, "keep", "k", storage.DefaultKeepCount, "Number of conversations to keep")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *storage.Store) error {
				st := s.Stats()
				out := cmd.OutOrStdout()
				if jsonFlag {
					return printJSON(out, st)
				}
				fmt.Fprintf(out, "conversations: %d\n", st.Count)
				fmt.Fprintf(out, "size:          %s\n", st.SizeFormatted)
				if st.NewestEntry != nil {
					fmt.Fprintf(out, "newest:        %s\n", humanize.Time(*st.NewestEntry))
					fmt.Fprintf(out, "oldest:        %s\n", humanize.Time(*st.OldestEntry))
				}
				return nil
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(s *storage.Store) error {
				if !s.Clear() {
					return fmt.Errorf("clear failed")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			})
		},
	}
}
