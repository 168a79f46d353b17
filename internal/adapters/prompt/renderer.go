// Package prompt renders the chat prompts sent to LLM providers. Stored
// templates override the builtin ones per provider or globally.
package prompt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"rimloc/internal/domain"
	"rimloc/internal/ports"
)

const (
	ScopeGlobal   = "global"
	ScopeProvider = "provider"

	TypeTranslate = "translate_single"

	RoleSystem = "system"
	RoleUser   = "user"
)

// MaxHints caps how many glossary terms go into one prompt.
const MaxHints = 5

type Renderer struct {
	Templates ports.TemplateRepository
}

func New(templates ports.TemplateRepository) *Renderer { return &Renderer{Templates: templates} }

var funcs = template.FuncMap{
	"join": strings.Join,
	"hints": func(hs []domain.Hint) []domain.Hint {
		if len(hs) > MaxHints {
			return hs[:MaxHints]
		}
		return hs
	},
}

func (r *Renderer) Render(ctx context.Context, scope, ref, typ, role string, data ports.PromptData) (string, error) {
	body := builtinTemplate(typ, role)
	if r.Templates != nil {
		t, err := r.Templates.GetEffective(ctx, scope, ref, typ, role)
		if err != nil {
			return "", err
		}
		if t != nil && t.Body != "" {
			body = t.Body
		}
	}
	if body == "" {
		return "", fmt.Errorf("%w: no template for %s/%s", domain.ErrNotFound, typ, role)
	}
	tpl, err := template.New("prompt").Funcs(funcs).Parse(body)
	if err != nil {
		return "", fmt.Errorf("%w: template %s/%s: %v", domain.ErrValidation, typ, role, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: template %s/%s: %v", domain.ErrValidation, typ, role, err)
	}
	return buf.String(), nil
}

const systemTranslate = `You are a professional game localization translator working on RimWorld mods. Translate from {{.SrcLang}} to {{.TgtLang}}.
Rules:
- Keep masked tokens such as __PH_0__ and __TAG_0__ exactly as they are, in a natural position.
{{- if .Placeholders}}
- Placeholders in this text: {{join .Placeholders ", "}}.
{{- end}}
{{- if .Tags}}
- Markup tags in this text: {{join .Tags ", "}}.
{{- end}}
- Keep the tone of a colony simulation game. Do not add explanations.
{{- with hints .Hints}}
Terminology (use these translations):
{{- range .}}
- {{.EN}} => {{.ZH}}
{{- end}}
{{- end}}
Return only JSON: {"translation":"..."}.`

const userTranslate = `mod: {{.Mod}}
file: {{.FilePath}}
key: {{.Key}}
{{- if .Context}}
context: {{.Context}}
{{- end}}
source: {{.Text}}`

func builtinTemplate(typ, role string) string {
	if typ != TypeTranslate {
		return ""
	}
	switch role {
	case RoleSystem:
		return systemTranslate
	case RoleUser:
		return userTranslate
	}
	return ""
}
