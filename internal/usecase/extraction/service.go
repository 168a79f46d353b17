// Package extraction scans mod folders and stores their translatable
// strings.
package extraction

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"rimloc/internal/adapters/extractor/rimworld"
	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
)

type Extractor interface {
	ScanMod(modPath string) (*domain.ModInfo, error)
	Extract(modPath, modName, sourceLang string) ([]*domain.Entry, error)
}

type Service struct {
	x       Extractor
	entries ports.EntryRepository
	mods    ports.ModListRepository
	log     *zap.SugaredLogger
}

func New(x Extractor, entries ports.EntryRepository, mods ports.ModListRepository, log *zap.SugaredLogger) *Service {
	if x == nil {
		x = rimworld.New(log)
	}
	return &Service{x: x, entries: entries, mods: mods, log: logging.OrNop(log)}
}

type Result struct {
	Mod       *domain.ModInfo   `json:"mod"`
	Extracted int               `json:"extracted"`
	Saved     int               `json:"saved"`
	Stats     domain.Statistics `json:"stats"`
}

// Extract scans modPath, stores its source-language entries and remembers
// the mod in the recent list. Re-extracting keeps existing translations of
// unchanged strings.
func (s *Service) Extract(ctx context.Context, modPath, sourceLang string) (*Result, error) {
	info, err := s.x.ScanMod(modPath)
	if err != nil {
		return nil, err
	}
	entries, err := s.x.Extract(modPath, info.Name, sourceLang)
	if err != nil {
		return nil, err
	}
	res := &Result{Mod: info, Extracted: len(entries)}
	if len(entries) > 0 {
		if res.Saved, err = s.entries.SaveBatch(ctx, entries); err != nil {
			return nil, err
		}
	}
	if s.mods != nil {
		abs, _ := filepath.Abs(modPath)
		if abs == "" {
			abs = modPath
		}
		rec := &domain.ModRecord{ModName: info.Name, ModPath: abs, RootPath: filepath.Dir(abs)}
		if err := s.mods.Add(ctx, rec); err != nil {
			s.log.Warnw("mod list not updated", "mod", info.Name, "err", err)
		}
	}
	if res.Stats, err = s.entries.Statistics(ctx, info.Name); err != nil {
		return nil, err
	}
	s.log.Infow("mod extracted", "mod", info.Name, "entries", res.Extracted, "saved", res.Saved)
	return res, nil
}

func (s *Service) Scan(modPath string) (*domain.ModInfo, error) {
	return s.x.ScanMod(modPath)
}

// ScanRoot lists the mods found directly under root, such as the game's
// Mods folder or a workshop content directory. Folders that are not mods
// are ignored.
func (s *Service) ScanRoot(root string) ([]*domain.ModInfo, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, domain.ErrModNotFound
	}
	var out []*domain.ModInfo
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		info, err := s.x.ScanMod(filepath.Join(root, d.Name()))
		if err != nil {
			s.log.Debugw("not a mod", "dir", d.Name(), "err", err)
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
