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

func (c *cli) entriesCmd() *cobra.Command {
	var (
		status, search string
		page, perPage  int
	)
	cmd := &cobra.Command{
		Use:   "entries <mod>",
		Short: "List a mod's entries page by page",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			if perPage <= 0 {
				perPage = s.Sessions.PageSize()
			}
			return printEntries(ctx, s, w, domain.EntryFilter{
				ModName: args[0],
				Status:  status,
				Search:  search,
				Limit:   perPage,
				Offset:  max(page-1, 0) * perPage,
			})
		}),
	}
	cmd.Flags().StringVar(&status, "status", "", "Only entries with this status")
	cmd.Flags().StringVar(&search, "search", "", "Only entries containing this text")
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Entries per page (default page_size from config)")
	return cmd
}

func printEntries(ctx context.Context, s *bootstrap.Services, w io.Writer, f domain.EntryFilter) error {
	p, err := s.Entries.List(ctx, f)
	if err != nil {
		return err
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tKEY\tORIGINAL\tTRANSLATION")
	for _, e := range p.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, statusColor(e.Status), clip(e.XMLPath, 40), clip(e.OriginalText, 50), clip(e.TranslatedText, 40))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w, hint(fmt.Sprintf("showing %d-%d of %s", f.Offset+min(1, len(p.Entries)), f.Offset+len(p.Entries), count(p.Total))))
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", domain.ErrValidation, s)
	}
	return id, nil
}

func (c *cli) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <translation>",
		Short: "Set an entry's translation; an empty string resets it",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			e, err := s.Entries.Edit(ctx, id, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s [%s] %s\n", ok(), e.XMLPath, statusColor(e.Status), e.TranslatedText)
			return nil
		}),
	}
}

func (c *cli) skipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip <id>...",
		Short: "Mark entries as not needing translation",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			return eachID(ctx, args, w, "skipped", s.Entries.Skip)
		}),
	}
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <id>...",
		Short: "Clear translations and mark entries pending",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			return eachID(ctx, args, w, "reset", s.Entries.Reset)
		}),
	}
}

func eachID(ctx context.Context, args []string, w io.Writer, verb string, fn func(context.Context, int64) error) error {
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return err
		}
		if err := fn(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s %d\n", ok(), verb, id)
	}
	return nil
}
