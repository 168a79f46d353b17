package main

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"rimloc/internal/bootstrap"
)

// App carries the wails runtime context and exposes the small set of
// window-level calls the frontend needs besides the API bindings.
type App struct {
	ctx context.Context
	svc *bootstrap.Services
}

func NewApp(svc *bootstrap.Services) *App {
	return &App{svc: svc}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	a.svc.Jobs.SetEmitter(wailsEmitter{ctx: ctx})
	a.svc.StartAutoSave(ctx)
}

func (a *App) shutdown(context.Context) {
	if err := a.svc.Close(); err != nil {
		a.svc.Log.Warnw("shutdown", "err", err)
	}
}

func (a *App) Version() string { return version }

// SelectModDirectory opens a native folder picker.
func (a *App) SelectModDirectory() (string, error) {
	return runtime.OpenDirectoryDialog(a.ctx, runtime.OpenDialogOptions{
		Title:            "Select a RimWorld mod folder",
		DefaultDirectory: a.svc.Config.RimWorldPath,
	})
}

// SelectGlossaryFile opens a native file picker for CSV or YAML glossaries.
func (a *App) SelectGlossaryFile() (string, error) {
	return runtime.OpenFileDialog(a.ctx, runtime.OpenDialogOptions{
		Title: "Select a glossary file",
		Filters: []runtime.FileFilter{
			{DisplayName: "Glossary (*.csv;*.yaml;*.yml)", Pattern: "*.csv;*.yaml;*.yml"},
		},
	})
}

type wailsEmitter struct{ ctx context.Context }

func (w wailsEmitter) Emit(name string, payload any) {
	runtime.EventsEmit(w.ctx, name, payload)
}
