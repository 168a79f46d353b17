package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"rimloc/internal/bootstrap"
	"rimloc/internal/domain"
)

func (c *cli) memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "memory",
		Aliases: []string{"tm"},
		Short:   "Query and maintain the translation memory",
	}

	var fuzzy bool
	lookup := &cobra.Command{
		Use:   "lookup <text>",
		Short: "Find the stored translation of a string",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			m, err := s.Memory.Find(ctx, args[0], fuzzy)
			if err != nil {
				return err
			}
			if m == nil {
				fmt.Fprintln(w, hint("no match"))
				return nil
			}
			printMatches(w, []domain.Match{*m})
			return nil
		}),
	}
	lookup.Flags().BoolVar(&fuzzy, "fuzzy", true, "Accept similar sources")

	var limit int
	suggest := &cobra.Command{
		Use:   "suggest <text>",
		Short: "List similar stored translations and matching glossary terms",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			ms, err := s.Memory.Suggestions(ctx, args[0], limit)
			if err != nil {
				return err
			}
			printMatches(w, ms)
			return nil
		}),
	}
	suggest.Flags().IntVar(&limit, "limit", 5, "Maximum suggestions")

	add := &cobra.Command{
		Use:   "add <source> <translation>",
		Short: "Store a translation pair",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			if err := s.Memory.Save(ctx, args[0], args[1], "manual"); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s stored\n", ok())
			return nil
		}),
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show memory size and usage",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, _ []string) error {
			st, err := s.Memory.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s pairs, %s uses (%.1f per pair)\n", heading("memory:"), count(st.TotalEntries), count(st.TotalUses), st.AvgUses)
			return nil
		}),
	}

	cleanup := &cobra.Command{
		Use:   "cleanup <days>",
		Short: "Delete pairs not used in the given number of days",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			days, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: days: %v", domain.ErrValidation, err)
			}
			n, err := s.Memory.Cleanup(ctx, days)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s removed %s pairs\n", ok(), count(int(n)))
			return nil
		}),
	}

	cmd.AddCommand(lookup, suggest, add, stats, cleanup)
	return cmd
}

func printMatches(w io.Writer, ms []domain.Match) {
	if len(ms) == 0 {
		fmt.Fprintln(w, hint("no suggestions"))
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "KIND\tSIMILARITY\tSOURCE\tTRANSLATION")
	for _, m := range ms {
		fmt.Fprintf(tw, "%s\t%.0f%%\t%s\t%s\n", m.Kind, m.Similarity*100, clip(m.Source, 50), clip(m.Target, 40))
	}
	_ = tw.Flush()
}
