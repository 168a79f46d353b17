package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rimloc/internal/bootstrap"
	"rimloc/internal/domain"
)

func (c *cli) sessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Saved translation positions",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions, most recent first",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, _ []string) error {
			all, err := s.Sessions.List(ctx)
			if err != nil {
				return err
			}
			printSessions(w, all)
			return nil
		}),
	}
	resume := &cobra.Command{
		Use:   "resume <mod>",
		Short: "Show the page a session stopped at",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			r, err := s.Sessions.Resume(ctx, args[0])
			if err != nil {
				return err
			}
			ss := r.Session
			fmt.Fprintf(w, "%s page %d, %s/%s translated (%.1f%%), saved %s\n",
				heading(ss.ModName), ss.CurrentPage+1, count(ss.TranslatedEntries), count(ss.TotalEntries), ss.Progress(), ago(ss.LastSave))
			return printEntries(ctx, s, w, domain.EntryFilter{
				ModName: ss.ModName,
				Limit:   s.Sessions.PageSize(),
				Offset:  ss.CurrentPage * s.Sessions.PageSize(),
			})
		}),
	}
	del := &cobra.Command{
		Use:   "delete <mod>",
		Short: "Delete a mod's session",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			if err := s.Sessions.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s session of %s deleted\n", ok(), args[0])
			return nil
		}),
	}
	cmd.AddCommand(list, resume, del)
	return cmd
}

func printSessions(w io.Writer, all []*domain.Session) {
	if len(all) == 0 {
		fmt.Fprintln(w, hint("no saved sessions"))
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "MOD\tPAGE\tPROGRESS\tSAVED\tPATH")
	for _, ss := range all {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\t%s\t%s\n", ss.ModName, ss.CurrentPage+1, ss.Progress(), ago(ss.LastSave), ss.ModPath)
	}
	_ = tw.Flush()
}
