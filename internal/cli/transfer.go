package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	exreg "rimloc/internal/adapters/exporter/registry"
	"rimloc/internal/bootstrap"
	"rimloc/internal/usecase/exporter"
	"rimloc/internal/usecase/importer"
)

func (c *cli) exportCmd() *cobra.Command {
	var modPath, lang, format, out, option string
	cmd := &cobra.Command{
		Use:   "export <mod>",
		Short: "Write finished translations into the mod or to an exchange file",
		Long: `Without --format, completed translations are written as LanguageData XML to
Languages/<lang> inside the mod folder; the source files are never touched.
With --format csv or json, all entries go to an exchange file that import
can read back.`,
		Args: cobra.ExactArgs(1),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			mod := args[0]
			if format != "" {
				return exportFile(ctx, s, w, mod, format, option, out)
			}
			return exportXML(ctx, s, w, mod, modPath, lang)
		}),
	}
	cmd.Flags().StringVar(&modPath, "path", "", "Mod folder (default: the remembered path)")
	cmd.Flags().StringVar(&lang, "lang", "ChineseSimplified", "Target language folder")
	cmd.Flags().StringVar(&format, "format", "", "Exchange format instead of XML: "+strings.Join(exportFormats(), ", "))
	cmd.Flags().StringVar(&out, "out", "", "Output file for --format (default <mod><ext>)")
	cmd.Flags().StringVar(&option, "option", "", "Exporter option, e.g. sep:semicolon for csv")
	return cmd
}

func exportXML(ctx context.Context, s *bootstrap.Services, w io.Writer, mod, modPath, lang string) error {
	if modPath == "" {
		rec, err := s.Entries.Open(ctx, mod)
		if err != nil {
			return fmt.Errorf("no mod path remembered for %s, pass --path: %w", mod, err)
		}
		modPath = rec.ModPath
	}
	res, err := s.Exporter.ExportMod(ctx, exporter.ExportArgs{ModName: mod, ModPath: modPath, TargetLanguage: lang})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s entries written to %d files\n", ok(), count(res.Entries), len(res.Files))
	for _, f := range res.Files {
		fmt.Fprintf(w, "    %s\n", f)
	}
	return nil
}

func exportFormats() []string {
	var out []string
	for _, f := range exreg.Default().Formats() {
		if f != "languagedata" {
			out = append(out, f)
		}
	}
	return out
}

func exportFile(ctx context.Context, s *bootstrap.Services, w io.Writer, mod, format, option, out string) error {
	res, err := s.Exporter.ExportFile(ctx, exporter.FileArgs{ModName: mod, Format: format, Option: option})
	if err != nil {
		return err
	}
	if out == "" {
		out = res.Filename
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, res.Content, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s wrote %s (%s)\n", ok(), out, humanBytes(int64(len(res.Content))))
	return nil
}

func (c *cli) importCmd() *cobra.Command {
	var format string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "import <mod> <file>",
		Short: "Apply translations from a csv or json exchange file",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(ctx context.Context, s *bootstrap.Services, w io.Writer, args []string) error {
			b, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			res, err := s.Importer.ImportTranslations(ctx, importer.ImportArgs{
				ModName:   args[0],
				Format:    format,
				Filename:  args[1],
				Content:   b,
				Overwrite: overwrite,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s %s updated, %s kept, %s stale, %s unknown keys\n",
				ok(), count(res.Updated), count(res.Kept), count(res.Stale), count(res.Unknown))
			return nil
		}),
	}
	cmd.Flags().StringVar(&format, "format", "", "csv or json (default: from the file extension)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace translations that already exist")
	return cmd
}
