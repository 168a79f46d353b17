// Package cli is the command-line surface: one cobra subcommand per
// operation plus an interactive menu behind --cli.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"rimloc/internal/bootstrap"
	"rimloc/internal/domain"
)

type Options struct {
	Version string
	// RunGUI starts the desktop app with the given config path.
	RunGUI func(cfgPath string) error
	// Services, when set, is used instead of opening the configured
	// database and is never closed by the commands.
	Services *bootstrap.Services
}

type cli struct {
	opts    Options
	cfgPath string
}

func NewRootCmd(o Options) *cobra.Command {
	c := &cli{opts: o}
	var gui, interactive bool
	root := &cobra.Command{
		Use:   "rimloc",
		Short: "RimWorld mod translation assistant",
		Long: `rimloc extracts translatable strings from RimWorld mods, translates them
with DeepSeek, Baidu or a local Ollama model, keeps a translation memory and a
glossary, and writes the result to Languages/ChineseSimplified.

Run with --gui for the desktop app or --cli for the interactive menu. Every
menu action is also available as a subcommand.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case gui && interactive:
				return fmt.Errorf("%w: --gui and --cli cannot be combined", domain.ErrValidation)
			case gui:
				if c.opts.RunGUI == nil {
					return fmt.Errorf("%w: this build has no desktop UI", domain.ErrConfiguration)
				}
				return c.opts.RunGUI(c.cfgPath)
			case interactive:
				return c.with(cmd, func(ctx context.Context, s *bootstrap.Services) error {
					p, err := newReadlinePrompter(cmd.InOrStdin(), cmd.OutOrStdout())
					if err != nil {
						return err
					}
					defer p.Close()
					return c.menu(ctx, s, p, cmd.OutOrStdout())
				})
			}
			if err := cmd.Help(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\n"+hint("Start the desktop app with --gui or the interactive menu with --cli."))
			return nil
		},
	}
	root.Flags().BoolVar(&gui, "gui", false, "Start the desktop app")
	root.Flags().BoolVar(&interactive, "cli", false, "Start the interactive menu")
	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "Config file (default $"+bootstrap.ConfigEnv+" or config/translation_api.json)")

	root.AddCommand(
		c.extractCmd(),
		c.modsCmd(),
		c.progressCmd(),
		c.translateCmd(),
		c.entriesCmd(),
		c.editCmd(),
		c.skipCmd(),
		c.resetCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.glossaryCmd(),
		c.memoryCmd(),
		c.sessionCmd(),
		c.providersCmd(),
		c.configCmd(),
		c.backupCmd(),
		c.versionCmd(),
	)
	return root
}

// with runs fn against the services, opening them from the config first
// unless they were injected. Ctrl-C cancels ctx.
func (c *cli) with(cmd *cobra.Command, fn func(ctx context.Context, s *bootstrap.Services) error) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if c.opts.Services != nil {
		return fn(ctx, c.opts.Services)
	}
	s, err := bootstrap.Open(c.cfgPath, nil)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), ErrorLine(cerr))
		}
	}()
	return fn(ctx, s)
}

// run adapts a services callback to cobra's RunE.
func (c *cli) run(fn func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return c.with(cmd, func(ctx context.Context, s *bootstrap.Services) error {
			return fn(ctx, s, cmd.OutOrStdout(), args)
		})
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v := c.opts.Version
			if v == "" {
				v = "dev"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rimloc version %s\n", v)
		},
	}
}

func (c *cli) backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [dest]",
		Short: "Copy the database to dest or data/backups",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			dest := ""
			if len(args) == 1 {
				dest = args[0]
			}
			path, err := s.Backup(ctx, dest)
			if err != nil {
				return err
			}
			size := ""
			if st, err := os.Stat(path); err == nil {
				size = " (" + humanBytes(st.Size()) + ")"
			}
			fmt.Fprintf(w, "%s backup written to %s%s\n", ok(), path, size)
			return nil
		}),
	}
}
