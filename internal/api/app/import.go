package app

import (
	"context"
	"encoding/base64"
	"fmt"

	"rimloc/internal/domain"
	"rimloc/internal/usecase/importer"
)

type ImportAPI struct {
	svc *importer.Service
}

func NewImportAPI(svc *importer.Service) *ImportAPI { return &ImportAPI{svc: svc} }

type ImportRequest struct {
	ModName  string `json:"mod_name"`
	Filename string `json:"filename"`
	Format   string `json:"format"`
	// Content is base64-encoded file bytes
	ContentB64 string `json:"content_b64"`
	Overwrite  bool   `json:"overwrite"`
}

func (a *ImportAPI) ImportBase64(req ImportRequest) (importer.ImportResult, error) {
	b, err := base64.StdEncoding.DecodeString(req.ContentB64)
	if err != nil {
		return importer.ImportResult{}, fmt.Errorf("%w: content: %v", domain.ErrValidation, err)
	}
	return a.svc.ImportTranslations(context.Background(), importer.ImportArgs{
		ModName:   req.ModName,
		Filename:  req.Filename,
		Format:    req.Format,
		Content:   b,
		Overwrite: req.Overwrite,
	})
}
