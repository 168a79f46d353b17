// Package official reads the game's own English and Simplified Chinese
// language data and turns matching short strings into glossary terms.
package official

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"rimloc/internal/adapters/extractor/rimworld"
	"rimloc/internal/domain"
	"rimloc/internal/logging"
)

// DLCs are read after Core, in release order. Other Data folders follow
// alphabetically.
var DLCs = []string{"Royalty", "Ideology", "Biotech", "Anomaly", "Odyssey"}

const (
	PriorityKeyed       = 50
	PriorityDefInjected = 60

	// Longer strings are sentences, not terms.
	maxTermRunes = 40
)

type Loader struct {
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Loader { return &Loader{log: logging.OrNop(log)} }

// Terms scans <gamePath>/Data/*/Languages and returns official glossary
// terms. The first occurrence of an English term wins.
func (l *Loader) Terms(gamePath string) ([]*domain.GlossaryEntry, error) {
	dataDir := filepath.Join(gamePath, "Data")
	dirs, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no Data directory", domain.ErrNotFound, gamePath)
	}
	var names []string
	for _, d := range dirs {
		if d.IsDir() {
			names = append(names, d.Name())
		}
	}
	sort.SliceStable(names, func(i, j int) bool { return dataRank(names[i]) < dataRank(names[j]) })

	seen := map[string]struct{}{}
	var out []*domain.GlossaryEntry
	for _, name := range names {
		langDir := filepath.Join(dataDir, name, "Languages")
		en, err := l.loadLanguage(langDir, func(n string) bool { return n == "English" || n == "English.tar" })
		if err != nil || en == nil {
			continue
		}
		zh, err := l.loadLanguage(langDir, func(n string) bool {
			return strings.HasPrefix(n, "ChineseSimplified") || strings.Contains(n, "简体中文")
		})
		if err != nil || zh == nil {
			continue
		}
		terms := pairTerms(en, zh)
		l.log.Debugw("official terms", "data", name, "terms", len(terms))
		for _, t := range terms {
			k := strings.ToLower(t.TermEN)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, t)
		}
	}
	return out, nil
}

func dataRank(name string) string {
	if name == "Core" {
		return "0"
	}
	for i, d := range DLCs {
		if d == name {
			return fmt.Sprintf("1%02d", i)
		}
	}
	return "2" + name
}

// languageFiles maps a slash path like "Keyed/Misc.xml" to file content.
type languageFiles map[string][]byte

// loadLanguage finds the first entry of langDir accepted by match, either
// a directory or a .tar archive. It returns nil when none matches.
func (l *Loader) loadLanguage(langDir string, match func(string) bool) (languageFiles, error) {
	entries, err := os.ReadDir(langDir)
	if err != nil {
		return nil, nil
	}
	for _, e := range entries {
		if !match(e.Name()) {
			continue
		}
		p := filepath.Join(langDir, e.Name())
		switch {
		case e.IsDir():
			return readDir(p)
		case strings.EqualFold(filepath.Ext(e.Name()), ".tar"):
			files, err := readTar(p)
			if err != nil {
				l.log.Warnw("unreadable language archive", "path", p, "err", err)
			}
			return files, err
		}
	}
	return nil, nil
}

func readDir(root string) (languageFiles, error) {
	files := languageFiles{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".xml") {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = b
		return nil
	})
	return files, err
}

func readTar(p string) (languageFiles, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	files := languageFiles{}
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg || !strings.EqualFold(path.Ext(hdr.Name), ".xml") {
			continue
		}
		rel, ok := trimToSection(hdr.Name)
		if !ok {
			continue
		}
		b, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		files[rel] = b
	}
	return files, nil
}

// trimToSection drops any leading folders before Keyed/ or DefInjected/.
func trimToSection(name string) (string, bool) {
	parts := strings.Split(strings.TrimPrefix(path.Clean(name), "./"), "/")
	for i, p := range parts {
		if p == "Keyed" || p == "DefInjected" {
			return strings.Join(parts[i:], "/"), true
		}
	}
	return "", false
}

func pairTerms(en, zh languageFiles) []*domain.GlossaryEntry {
	rels := make([]string, 0, len(en))
	for rel := range en {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	var out []*domain.GlossaryEntry
	for _, rel := range rels {
		zhData, ok := zh[rel]
		if !ok {
			continue
		}
		parts := strings.Split(rel, "/")
		var category string
		var priority int
		switch {
		case parts[0] == "Keyed":
			category, priority = "Keyed", PriorityKeyed
		case parts[0] == "DefInjected" && len(parts) >= 3:
			category, priority = parts[1], PriorityDefInjected
		default:
			continue
		}
		enEls, err := rimworld.ParseLanguageData(en[rel])
		if err != nil {
			continue
		}
		zhEls, err := rimworld.ParseLanguageData(zhData)
		if err != nil {
			continue
		}
		zhByTag := make(map[string]string, len(zhEls))
		for _, el := range zhEls {
			zhByTag[el.Tag] = el.Text
		}
		for _, el := range enEls {
			if priority == PriorityDefInjected && !strings.HasSuffix(el.Tag, ".label") {
				continue
			}
			zhText, ok := zhByTag[el.Tag]
			if !ok || !termLike(el.Text) || !termLike(zhText) {
				continue
			}
			out = append(out, &domain.GlossaryEntry{
				TermEN:   el.Text,
				TermZH:   zhText,
				Category: category,
				Priority: priority,
				Source:   domain.SourceOfficial,
				Note:     rel,
			})
		}
	}
	return out
}

// termLike rejects long text and strings carrying formatting tokens.
func termLike(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > maxTermRunes {
		return false
	}
	return !strings.ContainsAny(s, "{}[]<>\n") && !strings.Contains(s, `\n`)
}
