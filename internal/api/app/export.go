package app

import (
	"context"
	"encoding/base64"

	"rimloc/internal/usecase/exporter"
)

type ExportAPI struct{ svc *exporter.Service }

func NewExportAPI(s *exporter.Service) *ExportAPI { return &ExportAPI{svc: s} }

type ExportModRequest struct {
	ModName        string `json:"mod_name"`
	ModPath        string `json:"mod_path"`
	TargetLanguage string `json:"target_language"`
}

// ExportMod writes the mod's finished translations into its Languages folder.
func (a *ExportAPI) ExportMod(req ExportModRequest) (exporter.ExportResult, error) {
	return a.svc.ExportMod(context.Background(), exporter.ExportArgs{ModName: req.ModName, ModPath: req.ModPath, TargetLanguage: req.TargetLanguage})
}

type ExportFileRequest struct {
	ModName string `json:"mod_name"`
	Format  string `json:"format"`
	Option  string `json:"option"`
}

type ExportFileResponse struct {
	Filename   string `json:"filename"`
	ContentB64 string `json:"content_b64"`
}

func (a *ExportAPI) ExportFileBase64(req ExportFileRequest) (ExportFileResponse, error) {
	res, err := a.svc.ExportFile(context.Background(), exporter.FileArgs{ModName: req.ModName, Format: req.Format, Option: req.Option})
	if err != nil {
		return ExportFileResponse{}, err
	}
	return ExportFileResponse{Filename: res.Filename, ContentB64: base64.StdEncoding.EncodeToString(res.Content)}, nil
}

func (a *ExportAPI) Formats() []string { return a.svc.Reg.Formats() }
