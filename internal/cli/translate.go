package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"rimloc/internal/bootstrap"
	"rimloc/internal/domain"
	"rimloc/internal/usecase/batch"
)

type translateFlags struct {
	provider    string
	noMemory    bool
	concurrency int
	limit       int
}

func (c *cli) translateCmd() *cobra.Command {
	var f translateFlags
	cmd := &cobra.Command{
		Use:   "translate <mod>",
		Short: "Translate every untranslated entry of a mod",
		Long: `Translate sends each pending or failed entry to the provider, using an exact
translation-memory hit instead when there is one. Results are stored as they
arrive, so an interrupted run keeps what it finished.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.with(cmd, func(ctx context.Context, s *bootstrap.Services) error {
				return translateMod(ctx, s, cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], f)
			})
		},
	}
	cmd.Flags().StringVar(&f.provider, "provider", "", "Provider to use (default from config)")
	cmd.Flags().BoolVar(&f.noMemory, "no-memory", false, "Do not use translation memory")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Parallel requests (default from config)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Translate at most this many entries")

	text := &cobra.Command{
		Use:   "text <text>",
		Short: "Translate a single string",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			provider := f.provider
			if provider == "" {
				provider = s.Config.DefaultProvider
			}
			res, err := s.Translator.TranslateSingle(ctx, args[0], provider, !f.noMemory)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s\n", res.Text, faint("("+res.Source+")"))
			return nil
		}),
	}
	cmd.AddCommand(text)
	return cmd
}

func untranslated(ctx context.Context, s *bootstrap.Services, mod string, limit int) ([]*domain.Entry, error) {
	all, err := s.EntryRepo.List(ctx, domain.EntryFilter{ModName: mod})
	if err != nil {
		return nil, err
	}
	var out []*domain.Entry
	for _, e := range all {
		if e.Status == domain.StatusSkipped || e.Translated() {
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func translateMod(ctx context.Context, s *bootstrap.Services, w, barOut io.Writer, mod string, f translateFlags) error {
	todo, err := untranslated(ctx, s, mod, f.limit)
	if err != nil {
		return err
	}
	if len(todo) == 0 {
		fmt.Fprintf(w, "%s nothing to translate in %s\n", ok(), mod)
		return nil
	}
	if f.concurrency <= 0 {
		f.concurrency = s.Config.Concurrency
	}
	bar := progressbar.NewOptions(len(todo),
		progressbar.OptionSetWriter(barOut),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", mod)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(barOut) }),
	)
	var failures []string
	res, err := s.Batch.Run(ctx, todo, batch.Options{
		Provider:    f.provider,
		UseMemory:   !f.noMemory,
		Concurrency: f.concurrency,
		OnProgress: func(p batch.Progress) {
			if p.Err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", p.Entry.XMLPath, p.Err))
			}
			_ = bar.Add(1)
		},
	})
	_ = bar.Finish()
	for _, msg := range failures {
		fmt.Fprintln(w, warn(msg))
	}
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(w, warn("interrupted"))
	case err != nil:
		return err
	}
	fmt.Fprintf(w, "%s %s translated, %s from memory, %s failed\n", ok(), count(res.Success), count(res.MemoryHits), count(res.Failed))
	return nil
}
