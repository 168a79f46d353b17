package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apiapp "rimloc/internal/api/app"
	"rimloc/internal/bootstrap"
	"rimloc/internal/domain"
	"rimloc/internal/usecase/glossary"
)

func (c *cli) glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "glossary",
		Aliases: []string{"g"},
		Short:   "Manage the term glossary",
	}

	var replace bool
	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Import terms from CSV (term_en,term_zh,category,priority,note) or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			n, err := s.Glossary.ImportFile(ctx, args[0], replace)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s imported %s terms\n", ok(), count(n))
			return nil
		}),
	}
	imp.Flags().BoolVar(&replace, "replace", false, "Delete existing user terms first")

	var category string
	exp := &cobra.Command{
		Use:   "export <file>",
		Short: "Export terms to CSV, or YAML for .yaml/.yml files",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			n, err := s.Glossary.ExportFile(ctx, args[0], category)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s exported %s terms to %s\n", ok(), count(n), args[0])
			return nil
		}),
	}
	exp.Flags().StringVar(&category, "category", "", "Only this category")

	var limit int
	search := &cobra.Command{
		Use:   "search [keyword]",
		Short: "Search terms by English or Chinese text",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			kw := ""
			if len(args) == 1 {
				kw = args[0]
			}
			terms, err := s.Glossary.Search(ctx, kw, category, limit)
			if err != nil {
				return err
			}
			printTerms(w, terms)
			return nil
		}),
	}
	search.Flags().StringVar(&category, "category", "", "Only this category")
	search.Flags().IntVar(&limit, "limit", 50, "Maximum results")

	var g domain.GlossaryEntry
	add := &cobra.Command{
		Use:   "add <term_en> <term_zh>",
		Short: "Add or update a term",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			g.TermEN, g.TermZH, g.Source = args[0], args[1], domain.SourceUser
			if err := s.Glossary.Add(ctx, &g); err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s → %s\n", ok(), g.TermEN, g.TermZH)
			return nil
		}),
	}
	add.Flags().StringVar(&g.Category, "category", "", "Category")
	add.Flags().IntVar(&g.Priority, "priority", 0, "Higher wins when terms overlap")
	add.Flags().StringVar(&g.Note, "note", "", "Free-form note")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a term",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			return eachID(ctx, args, w, "deleted", s.Glossary.Delete)
		}),
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count terms by category and source",
		Args:  cobra.NoArgs,
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, _ []string) error {
			st, err := s.Glossary.Stats(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s terms\n", heading("glossary:"), count(st.Total))
			printCounts(w, "by category", st.ByCategory)
			printCounts(w, "by source", st.BySource)
			return nil
		}),
	}

	official := &cobra.Command{
		Use:   "import-official [rimworld-path]",
		Short: "Import term translations shipped with the game",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(_ context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			res, err := apiapp.NewGlossaryAPI(s.Glossary, s.Config).ImportOfficial(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s found, %s imported, %s kept as user terms\n", ok(), count(res.Found), count(res.Imported), count(res.Skipped))
			printCounts(w, "by category", res.Categories)
			return nil
		}),
	}

	var apply bool
	check := &cobra.Command{
		Use:   "apply <text>",
		Short: "Show the terms found in text, or replace them with --replace",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			res, err := s.Glossary.Apply(ctx, args[0], apply)
			if err != nil {
				return err
			}
			if apply {
				fmt.Fprintln(w, res.Text)
			}
			printTerms(w, res.Terms)
			return nil
		}),
	}
	check.Flags().BoolVar(&apply, "replace", false, "Replace found terms with their translation")

	var (
		sources        []string
		delay          time.Duration
		addBest        bool
		lookupCategory string
	)
	lookup := &cobra.Command{
		Use:   "lookup <term>...",
		Short: "Look terms up online: RimWorld wiki, Baidu suggestions and the translation providers",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			results, err := s.Glossary.LookupOnlineBatch(ctx, args, sources, delay)
			for _, r := range results {
				printLookup(w, r)
				if !addBest || r.Existing != nil || len(r.Candidates) == 0 {
					continue
				}
				best := r.Candidates[0]
				g := &domain.GlossaryEntry{
					TermEN:   r.Term,
					TermZH:   best.TermZH,
					Category: lookupCategory,
					Note:     "online: " + strings.Join(best.Sources, ", "),
					Source:   domain.SourceUser,
				}
				if err := s.Glossary.Add(ctx, g); err != nil {
					return err
				}
				fmt.Fprintf(w, "%s added %s = %s\n", ok(), g.TermEN, g.TermZH)
			}
			return err
		}),
	}
	lookup.Flags().StringSliceVar(&sources, "source", nil, "Sources to ask (wiki, baidu_suggest, deepseek, baidu, ollama); default all available")
	lookup.Flags().DurationVar(&delay, "delay", time.Second, "Pause between terms")
	lookup.Flags().BoolVar(&addBest, "add", false, "Add the best candidate of terms not yet in the glossary")
	lookup.Flags().StringVar(&lookupCategory, "category", "", "Category for added terms")

	cmd.AddCommand(imp, exp, search, add, del, stats, official, check, lookup)
	return cmd
}

func printLookup(w io.Writer, r glossary.OnlineResult) {
	fmt.Fprintln(w, heading(r.Term))
	if r.Existing != nil {
		fmt.Fprintf(w, "  %s\n", faint("in glossary: "+r.Existing.TermZH))
	}
	if len(r.Candidates) == 0 {
		fmt.Fprintln(w, "  "+hint("no candidates"))
	} else {
		tw := table(w)
		for i, c := range r.Candidates {
			fmt.Fprintf(tw, "  %d)\t%s\t%.0f%%\t%s\t%s\n", i+1, c.TermZH, c.Confidence*100, strings.Join(c.Sources, ","), clip(c.Note, 40))
		}
		_ = tw.Flush()
	}
	names := make([]string, 0, len(r.Errors))
	for n := range r.Errors {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", warn(n+": "+r.Errors[n]))
	}
}

func printTerms(w io.Writer, terms []*domain.GlossaryEntry) {
	if len(terms) == 0 {
		fmt.Fprintln(w, hint("no terms"))
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tEN\tZH\tCATEGORY\tPRIORITY\tSOURCE")
	for _, g := range terms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", g.ID, g.TermEN, g.TermZH, g.Category, g.Priority, g.Source)
	}
	_ = tw.Flush()
}

func printCounts(w io.Writer, title string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		name := k
		if name == "" {
			name = "(none)"
		}
		parts = append(parts, fmt.Sprintf("%s %s", name, count(m[k])))
	}
	fmt.Fprintf(w, "  %s: %s\n", title, strings.Join(parts, ", "))
}
