// Package exporter writes finished translations back into a mod's
// Languages/<target> folder, or into exchange files for sharing work.
package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	exreg "rimloc/internal/adapters/exporter/registry"
	"rimloc/internal/adapters/extractor/rimworld"
	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
)

const languageDataFormat = "languagedata"

type Service struct {
	Entries ports.EntryRepository
	Reg     *exreg.Registry
	log     *zap.SugaredLogger
}

func New(entries ports.EntryRepository, reg *exreg.Registry, log *zap.SugaredLogger) *Service {
	if reg == nil {
		reg = exreg.Default()
	}
	return &Service{Entries: entries, Reg: reg, log: logging.OrNop(log)}
}

type ExportArgs struct {
	ModName        string
	ModPath        string
	TargetLanguage string // default ChineseSimplified
}

type ExportResult struct {
	Files   []string `json:"files"` // relative to the mod root
	Entries int      `json:"entries"`
}

// ExportMod writes every completed entry of a mod as LanguageData XML under
// Languages/<target>, one file per source file. Files are replaced
// atomically; the source language folder is never written.
func (s *Service) ExportMod(ctx context.Context, a ExportArgs) (ExportResult, error) {
	target := a.TargetLanguage
	if target == "" {
		target = rimworld.DefaultTargetLanguage
	}
	if strings.ContainsAny(target, `/\`) || target == "." || target == ".." {
		return ExportResult{}, fmt.Errorf("%w: bad target language %q", domain.ErrValidation, target)
	}
	if st, err := os.Stat(a.ModPath); err != nil || !st.IsDir() {
		return ExportResult{}, fmt.Errorf("%w: %s", domain.ErrModNotFound, a.ModPath)
	}
	exp, ok := s.Reg.Get(languageDataFormat)
	if !ok {
		return ExportResult{}, fmt.Errorf("%w: no %s exporter", domain.ErrConfiguration, languageDataFormat)
	}
	entries, err := s.Entries.List(ctx, domain.EntryFilter{ModName: a.ModName})
	if err != nil {
		return ExportResult{}, err
	}

	var order []string
	byFile := map[string][]*domain.Entry{}
	for _, e := range entries {
		if _, seen := byFile[e.FilePath]; !seen {
			order = append(order, e.FilePath)
		}
		byFile[e.FilePath] = append(byFile[e.FilePath], e)
	}
	items := map[string][]ports.ExportItem{}
	count := 0
	for _, src := range order {
		its, n := fileItems(byFile[src])
		if n == 0 {
			continue
		}
		items[src] = its
		count += n
	}
	if count == 0 {
		return ExportResult{}, fmt.Errorf("%w: %s has no completed translations", domain.ErrValidation, a.ModName)
	}

	res := ExportResult{Entries: count}
	for _, src := range order {
		if items[src] == nil {
			continue
		}
		if languageOf(src) == target {
			return res, fmt.Errorf("%w: refusing to overwrite source file %s", domain.ErrValidation, src)
		}
		rel, err := rimworld.TargetPath(src, target)
		if err != nil {
			return res, err
		}
		dest, err := within(a.ModPath, rel)
		if err != nil {
			return res, err
		}
		content, err := exp.Export(target, items[src])
		if err != nil {
			return res, fmt.Errorf("render %s: %w", rel, err)
		}
		if err := writeAtomic(dest, content); err != nil {
			return res, err
		}
		res.Files = append(res.Files, rel)
		s.log.Debugw("exported file", "mod", a.ModName, "file", rel, "entries", len(items[src]))
	}
	s.log.Infow("exported mod", "mod", a.ModName, "language", target, "files", len(res.Files), "entries", count)
	return res, nil
}

var listItemRE = regexp.MustCompile(`^(.+)\.(\d+)$`)

// fileItems turns one file's entries into export items and counts the
// translations among them. Completed plain entries are written as is.
// Entries named Tag.N came from an <li> list; since the game replaces a
// list as a whole, a list with any translated item is written in full with
// untranslated items left in English.
func fileItems(entries []*domain.Entry) ([]ports.ExportItem, int) {
	type list struct {
		at    int
		items map[int]*domain.Entry
	}
	lists := map[string]*list{}
	var out []ports.ExportItem
	count := 0
	for _, e := range entries {
		if m := listItemRE.FindStringSubmatch(e.XMLPath); m != nil {
			idx, _ := strconv.Atoi(m[2])
			l, ok := lists[m[1]]
			if !ok {
				l = &list{at: len(out), items: map[int]*domain.Entry{}}
				lists[m[1]] = l
				out = append(out, ports.ExportItem{Key: m[1]})
			}
			l.items[idx] = e
			continue
		}
		if !done(e) {
			continue
		}
		out = append(out, ports.ExportItem{
			Key:         e.XMLPath,
			SourceText:  e.OriginalText,
			Translation: e.TranslatedText,
			Comment:     e.Comment,
		})
		count++
	}
	for _, l := range lists {
		idx := make([]int, 0, len(l.items))
		translated := 0
		for i, e := range l.items {
			idx = append(idx, i)
			if done(e) {
				translated++
			}
		}
		if translated == 0 {
			continue
		}
		sort.Ints(idx)
		vals := make([]string, len(idx))
		for j, i := range idx {
			e := l.items[i]
			vals[j] = e.OriginalText
			if done(e) {
				vals[j] = e.TranslatedText
			}
		}
		out[l.at].List = vals
		count += translated
	}
	kept := out[:0]
	for _, it := range out {
		if it.List != nil || it.Translation != "" {
			kept = append(kept, it)
		}
	}
	return kept, count
}

func done(e *domain.Entry) bool { return e.Status == domain.StatusCompleted && e.Translated() }

func languageOf(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// within joins rel onto root and rejects paths that escape it.
func within(root, rel string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	p := filepath.Join(absRoot, filepath.FromSlash(rel))
	if r, err := filepath.Rel(absRoot, p); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes mod folder: %s", domain.ErrValidation, rel)
	}
	return p, nil
}

func writeAtomic(dest string, content []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	tmp, err := os.CreateTemp(dir, ".rimloc-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return fmt.Errorf("%w: write %s: %v", domain.ErrFilePermission, dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	if err := os.Rename(name, dest); err != nil {
		_ = os.Remove(name)
		return fmt.Errorf("%w: rename %s: %v", domain.ErrFilePermission, dest, err)
	}
	return nil
}

type FileArgs struct {
	ModName string
	Format  string // csv or json
	Option  string // passed to the exporter, e.g. sep:semicolon for csv
}

type FileResult struct {
	Filename string
	Content  []byte
}

// ExportFile renders all of a mod's entries, translated or not, into an
// exchange file that ImportTranslations can read back.
func (s *Service) ExportFile(ctx context.Context, a FileArgs) (FileResult, error) {
	if a.Format == languageDataFormat {
		return FileResult{}, fmt.Errorf("%w: use ExportMod for %s", domain.ErrValidation, languageDataFormat)
	}
	exp, ok := s.Reg.Get(a.Format)
	if !ok {
		return FileResult{}, fmt.Errorf("%w: no exporter for format %q", domain.ErrValidation, a.Format)
	}
	entries, err := s.Entries.List(ctx, domain.EntryFilter{ModName: a.ModName})
	if err != nil {
		return FileResult{}, err
	}
	if len(entries) == 0 {
		return FileResult{}, fmt.Errorf("%w: %s", domain.ErrNotFound, a.ModName)
	}
	items := make([]ports.ExportItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, ports.ExportItem{Key: e.XMLPath, SourceText: e.OriginalText, Translation: e.TranslatedText, Comment: e.Comment})
	}
	content, err := exp.Export(a.Option, items)
	if err != nil {
		return FileResult{}, err
	}
	return FileResult{Filename: safeName(a.ModName) + exp.Extension(), Content: content}, nil
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "translations"
	}
	return s
}
