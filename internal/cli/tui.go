package cli

import (
	"path/filepath"

	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/logging"
	"rehabinv-cli/internal/store"
	"rehabinv-cli/internal/tui"

	"github.com/spf13/cobra"
)

func runTUI(cmd *cobra.Command, app *App) error {
	repo, err := openRepository(app)
	if err != nil {
		return writeErr(cmd, err)
	}
	es := editstore.New(repo, editstore.WithLogger(logging.Named(app.log, "editstore")))
	state := store.Store{Dir: app.cfg.Client.Dir}

	return tui.Run(commandContext(cmd), tui.Options{
		Store:          es,
		Source:         repo.Describe(),
		State:          state,
		Logger:         logging.Named(app.log, "tui"),
		SearchDebounce: app.cfg.Client.SearchDebounce,
		ExportDir:      filepath.Join(app.cfg.Client.Dir, "exports"),
		Theme:          app.cfg.Client.Theme,
	})
}
