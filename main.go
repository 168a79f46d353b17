package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	apiapp "rimloc/internal/api/app"
	"rimloc/internal/bootstrap"
	"rimloc/internal/cli"
)

//go:embed all:frontend/dist
var assets embed.FS

var version = "dev"

func main() {
	root := cli.NewRootCmd(cli.Options{Version: version, RunGUI: runGUI})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorLine(err))
		os.Exit(1)
	}
}

func runGUI(cfgPath string) error {
	svc, err := bootstrap.Open(cfgPath, nil)
	if err != nil {
		return err
	}
	app := NewApp(svc)

	return wails.Run(&options.App{
		Title:  "RimWorld 汉化助手",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        app.startup,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
			apiapp.NewModAPI(svc.Extraction, svc.Entries),
			apiapp.NewEntryAPI(svc.Entries, svc.Translator, svc.Memory),
			apiapp.NewJobsAPI(svc.Jobs),
			apiapp.NewExportAPI(svc.Exporter),
			apiapp.NewImportAPI(svc.Importer),
			apiapp.NewGlossaryAPI(svc.Glossary, svc.Config),
			apiapp.NewMemoryAPI(svc.Memory),
			apiapp.NewSessionAPI(svc.Sessions, svc.Tracker, svc.AutoSave),
			apiapp.NewProviderAPI(svc.Config, svc.Providers, svc.ReloadProviders),
			apiapp.NewSettingsAPI(svc.Config, svc.AutoSave, svc.ReloadProviders, svc.Backup),
		},
	})
}
