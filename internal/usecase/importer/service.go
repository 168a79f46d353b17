// Package importer reads translations from exchange files (CSV or flat
// JSON) and applies them to a mod's extracted entries.
package importer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	parreg "rimloc/internal/adapters/parser/registry"
	"rimloc/internal/domain"
	"rimloc/internal/logging"
	"rimloc/internal/ports"
)

type Service struct {
	Entries        ports.EntryRepository
	ParserRegistry *parreg.Registry
	log            *zap.SugaredLogger
}

func New(entries ports.EntryRepository, reg *parreg.Registry, log *zap.SugaredLogger) *Service {
	if reg == nil {
		reg = parreg.Default()
	}
	return &Service{Entries: entries, ParserRegistry: reg, log: logging.OrNop(log)}
}

type ImportArgs struct {
	ModName   string
	Format    string // csv or json; empty means detect from Filename
	Filename  string
	Content   []byte
	Overwrite bool // replace translations that already exist
}

type ImportResult struct {
	Matched int `json:"matched"` // keys found in the mod
	Updated int `json:"updated"`
	Kept    int `json:"kept"`    // already translated, not overwritten
	Stale   int `json:"stale"`   // source text changed since the file was written
	Unknown int `json:"unknown"` // keys the mod does not have
}

// ImportTranslations matches file keys against the mod's xml paths. Every
// entry sharing a key is updated and marked completed. Rows whose
// translation is blank or equal to the English text are ignored.
func (s *Service) ImportTranslations(ctx context.Context, in ImportArgs) (ImportResult, error) {
	parser, ok := s.pick(in)
	if !ok {
		return ImportResult{}, fmt.Errorf("%w: unsupported format %q", domain.ErrValidation, in.Format)
	}
	pr, err := parser.Parse(in.Content)
	if err != nil {
		return ImportResult{}, err
	}
	entries, err := s.Entries.List(ctx, domain.EntryFilter{ModName: in.ModName})
	if err != nil {
		return ImportResult{}, err
	}
	if len(entries) == 0 {
		return ImportResult{}, fmt.Errorf("%w: %s has no extracted entries", domain.ErrNotFound, in.ModName)
	}
	byKey := map[string][]*domain.Entry{}
	for _, e := range entries {
		byKey[e.XMLPath] = append(byKey[e.XMLPath], e)
	}

	var res ImportResult
	for _, p := range pr.Pairs {
		targets, ok := byKey[p.Key]
		if !ok {
			res.Unknown++
			continue
		}
		res.Matched++
		text := strings.TrimSpace(p.Translation)
		for _, e := range targets {
			if text == "" || text == e.OriginalText {
				continue
			}
			if p.Source != "" && strings.TrimSpace(p.Source) != e.OriginalText {
				res.Stale++
				continue
			}
			if e.Translated() && !in.Overwrite {
				res.Kept++
				continue
			}
			if err := s.Entries.UpdateTranslation(ctx, e.ID, text, domain.StatusCompleted); err != nil {
				return res, err
			}
			res.Updated++
		}
	}
	s.log.Infow("imported translations", "mod", in.ModName, "matched", res.Matched, "updated", res.Updated, "kept", res.Kept, "stale", res.Stale, "unknown", res.Unknown)
	return res, nil
}

func (s *Service) pick(in ImportArgs) (ports.Parser, bool) {
	if in.Format != "" {
		return s.ParserRegistry.Get(strings.ToLower(in.Format))
	}
	return s.ParserRegistry.ForFile(in.Filename)
}
