// Package rimworld reads RimWorld mod directories: About/About.xml metadata
// and the LanguageData files under Languages/<language>/{DefInjected,Keyed}.
package rimworld

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"rimloc/internal/domain"
	"rimloc/internal/logging"
)

const (
	DefaultSourceLanguage = "English"
	DefaultTargetLanguage = "ChineseSimplified"
)

// Folders under Languages/<lang> that hold translatable LanguageData.
var translatableDirs = []string{"DefInjected", "Keyed"}

type Extractor struct {
	log *zap.SugaredLogger
}

func New(log *zap.SugaredLogger) *Extractor {
	return &Extractor{log: logging.OrNop(log)}
}

type aboutXML struct {
	Name      string `xml:"name"`
	PackageID string `xml:"packageId"`
	Author    string `xml:"author"`
}

// ScanMod validates a mod directory and reads its metadata.
func (x *Extractor) ScanMod(modPath string) (*domain.ModInfo, error) {
	st, err := os.Stat(modPath)
	if err != nil || !st.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrModNotFound, modPath)
	}
	info := &domain.ModInfo{Name: filepath.Base(filepath.Clean(modPath)), Path: modPath}
	if b, err := os.ReadFile(filepath.Join(modPath, "About", "About.xml")); err == nil {
		var about aboutXML
		if err := xml.Unmarshal(trimBOM(b), &about); err != nil {
			x.log.Warnw("about.xml unreadable", "mod", modPath, "err", err)
		} else {
			if n := strings.TrimSpace(about.Name); n != "" {
				info.Name = n
			}
			info.PackageID = strings.TrimSpace(about.PackageID)
			info.Author = strings.TrimSpace(about.Author)
		}
	}
	langs, err := os.ReadDir(filepath.Join(modPath, "Languages"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no Languages directory", domain.ErrInvalidModStructure, modPath)
	}
	for _, l := range langs {
		if l.IsDir() {
			info.Languages = append(info.Languages, l.Name())
		}
	}
	sort.Strings(info.Languages)
	return info, nil
}

// Extract reads every LanguageData file of sourceLang and returns its
// entries tagged with modName. Files that fail to parse are skipped.
func (x *Extractor) Extract(modPath, modName, sourceLang string) ([]*domain.Entry, error) {
	if sourceLang == "" {
		sourceLang = DefaultSourceLanguage
	}
	if _, err := x.ScanMod(modPath); err != nil {
		return nil, err
	}
	langRoot := filepath.Join(modPath, "Languages", sourceLang)
	var out []*domain.Entry
	for _, dir := range translatableDirs {
		root := filepath.Join(langRoot, dir)
		if _, err := os.Stat(root); err != nil {
			continue
		}
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrPermission) {
					x.log.Warnw("skipping unreadable path", "path", p, "err", err)
					return nil
				}
				return err
			}
			if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".xml") {
				return nil
			}
			entries, err := x.extractFile(modPath, p, modName, dir == "DefInjected")
			if err != nil {
				x.log.Warnw("skipping file", "file", p, "err", err)
				return nil
			}
			out = append(out, entries...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	x.log.Infow("extracted", "mod", modName, "language", sourceLang, "entries", len(out))
	return out, nil
}

func (x *Extractor) extractFile(modPath, file, modName string, keepComments bool) ([]*domain.Entry, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFilePermission, err)
	}
	elems, err := ParseLanguageData(b)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(modPath, file)
	if err != nil {
		return nil, err
	}
	rel = filepath.ToSlash(rel)
	out := make([]*domain.Entry, 0, len(elems))
	for _, el := range elems {
		e := &domain.Entry{
			ModName:      modName,
			FilePath:     rel,
			XMLPath:      el.Tag,
			OriginalText: el.Text,
			Status:       domain.StatusPending,
		}
		if keepComments {
			e.Comment = el.Comment
		}
		out = append(out, e)
	}
	return out, nil
}

// TargetPath maps a source-language relative path such as
// Languages/English/Keyed/Misc.xml onto Languages/<target>/Keyed/Misc.xml.
func TargetPath(rel, target string) (string, error) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 3 || parts[0] != "Languages" {
		return "", fmt.Errorf("%w: not a language file path: %s", domain.ErrValidation, rel)
	}
	parts[1] = target
	return strings.Join(parts, "/"), nil
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == utf8BOM[0] && b[1] == utf8BOM[1] && b[2] == utf8BOM[2] {
		return b[3:]
	}
	return b
}
