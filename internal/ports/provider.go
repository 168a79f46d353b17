package ports

import (
	"context"

	"rimloc/internal/domain"
)

type TranslateRequest struct {
	Text         string
	Key          string
	Context      string
	SourceLang   string
	TargetLang   string
	Hints        []domain.Hint
	SystemPrompt string
	UserPrompt   string
}

type TranslateResult struct {
	Translation string
	Raw         string
}

type ModelInfo struct {
	Name        string
	Description string
}

// Provider is one machine-translation backend.
type Provider interface {
	Name() string
	Translate(ctx context.Context, req TranslateRequest) (TranslateResult, error)
	ListModels(ctx context.Context) ([]ModelInfo, error)
	Test(ctx context.Context) error
}
