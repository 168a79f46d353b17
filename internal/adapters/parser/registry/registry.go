package registry

import (
	"path/filepath"
	"strings"

	csvparser "rimloc/internal/adapters/parser/csv"
	"rimloc/internal/adapters/parser/jsonmap"
	"rimloc/internal/ports"
)

type Registry struct {
	byFormat map[string]ports.Parser
}

func New() *Registry { return &Registry{byFormat: map[string]ports.Parser{}} }

// Default has every built-in parser registered.
func Default() *Registry {
	r := New()
	r.Register(csvparser.New())
	r.Register(jsonmap.New())
	return r
}

func (r *Registry) Register(p ports.Parser) { r.byFormat[p.Format()] = p }

func (r *Registry) Get(format string) (ports.Parser, bool) {
	p, ok := r.byFormat[format]
	return p, ok
}

// ForFile picks a parser by file extension.
func (r *Registry) ForFile(name string) (ports.Parser, bool) {
	return r.Get(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."))
}
