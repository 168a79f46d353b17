package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rimloc/internal/bootstrap"
)

func (c *cli) extractCmd() *cobra.Command {
	var lang string
	var all bool
	cmd := &cobra.Command{
		Use:   "extract <mod-path>",
		Short: "Extract translatable strings from a mod",
		Long: `Extract reads Languages/<lang>/DefInjected and Keyed of a mod and stores every
string. Re-extracting keeps translations of unchanged strings. With --all the
path is a mods folder and every mod inside it is extracted.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			if !all {
				return extractOne(ctx, s, w, args[0], lang)
			}
			mods, err := s.Extraction.ScanRoot(args[0])
			if err != nil {
				return err
			}
			if len(mods) == 0 {
				fmt.Fprintln(w, warn("no mods with a Languages folder found"))
				return nil
			}
			for _, m := range mods {
				if err := extractOne(ctx, s, w, m.Path, lang); err != nil {
					fmt.Fprintln(w, ErrorLine(fmt.Errorf("%s: %w", m.Name, err)))
				}
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&lang, "lang", "English", "Source language folder")
	cmd.Flags().BoolVar(&all, "all", false, "Treat the path as a folder of mods")
	return cmd
}

func extractOne(ctx context.Context, s *bootstrap.Services, w io.Writer, path, lang string) error {
	res, err := s.Extraction.Extract(ctx, path, lang)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s: %s strings extracted, %s stored\n", ok(), heading(res.Mod.Name), count(res.Extracted), count(res.Saved))
	fmt.Fprintf(w, "    %s\n", progressLine(res.Stats))
	return nil
}

func (c *cli) modsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mods",
		Short: "List, scan or remove known mods",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List mods with their progress",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, _ []string) error {
			return listMods(ctx, s, w)
		}),
	}
	scan := &cobra.Command{
		Use:   "scan <folder>",
		Short: "Show the mods found in a folder without extracting",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(_ context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			mods, err := s.Extraction.ScanRoot(args[0])
			if err != nil {
				return err
			}
			tw := table(w)
			fmt.Fprintln(tw, "NAME\tPACKAGE\tAUTHOR\tLANGUAGES\tPATH")
			for _, m := range mods {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", m.Name, m.PackageID, m.Author, m.Languages, m.Path)
			}
			return tw.Flush()
		}),
	}
	var purge bool
	remove := &cobra.Command{
		Use:   "remove <mod>",
		Short: "Forget a mod; --purge also deletes its entries and session",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			n, err := s.Entries.RemoveMod(ctx, args[0], purge)
			if err != nil {
				return err
			}
			if purge {
				fmt.Fprintf(w, "%s removed %s and %s entries\n", ok(), args[0], count(int(n)))
			} else {
				fmt.Fprintf(w, "%s removed %s from the list\n", ok(), args[0])
			}
			return nil
		}),
	}
	remove.Flags().BoolVar(&purge, "purge", false, "Delete entries and session too")
	cmd.AddCommand(list, scan, remove)
	return cmd
}

func listMods(ctx context.Context, s *bootstrap.Services, w io.Writer) error {
	mods, err := s.Entries.Mods(ctx)
	if err != nil {
		return err
	}
	if len(mods) == 0 {
		fmt.Fprintln(w, hint("no mods yet, run extract first"))
		return nil
	}
	tw := table(w)
	fmt.Fprintln(tw, "MOD\tDONE\tTOTAL\tPROGRESS\tLAST USED\tPATH")
	for _, m := range mods {
		used, path := "", ""
		if m.Record != nil {
			used, path = ago(m.Record.LastAccessed), m.Record.ModPath
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f%%\t%s\t%s\n", m.Name, count(m.Stats.Completed), count(m.Stats.Total), m.Stats.Percent(), used, path)
	}
	return tw.Flush()
}

func (c *cli) progressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress [mod]",
		Short: "Show translation progress of one mod or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			mod := ""
			if len(args) == 1 {
				mod = args[0]
			}
			st, err := s.Entries.Progress(ctx, mod)
			if err != nil {
				return err
			}
			name := mod
			if name == "" {
				name = "all mods"
			}
			fmt.Fprintf(w, "%s: %s\n", heading(name), progressLine(st))
			return nil
		}),
	}
}
