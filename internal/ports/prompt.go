package ports

import (
	"context"

	"rimloc/internal/domain"
)

type PromptData struct {
	SrcLang      string
	TgtLang      string
	Mod          string
	FilePath     string
	Key          string
	Text         string
	Context      string
	Placeholders []string
	Tags         []string
	Hints        []domain.Hint
}

type PromptRenderer interface {
	Render(ctx context.Context, scope, ref, typ, role string, data PromptData) (string, error)
}
