package registry

import (
	"sort"

	"rimloc/internal/adapters/exporter/csv"
	"rimloc/internal/adapters/exporter/jsonmap"
	"rimloc/internal/adapters/exporter/languagedata"
	"rimloc/internal/ports"
)

type Registry struct{ byFormat map[string]ports.Exporter }

func New() *Registry { return &Registry{byFormat: map[string]ports.Exporter{}} }

// Default has every built-in exporter registered.
func Default() *Registry {
	r := New()
	r.Register(languagedata.New())
	r.Register(csv.New())
	r.Register(jsonmap.New())
	return r
}

func (r *Registry) Register(e ports.Exporter) { r.byFormat[e.Format()] = e }

func (r *Registry) Get(format string) (ports.Exporter, bool) {
	e, ok := r.byFormat[format]
	return e, ok
}

func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
