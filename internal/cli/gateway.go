package cli

import (
	"context"

	"rehabinv-cli/internal/apiclient"
	"rehabinv-cli/internal/config"
	"rehabinv-cli/internal/editstore"
	"rehabinv-cli/internal/logging"
	"rehabinv-cli/internal/model"
	"rehabinv-cli/internal/store"
)

// repository is what the client side needs from a backend beyond the edit
// store's gateway: bulk import, clear and a label for the header.
type repository interface {
	editstore.Gateway
	UpsertAll(ctx context.Context, items []model.Item) ([]model.Item, error)
	Clear(ctx context.Context) error
	Describe() string
}

var (
	_ repository = store.Store{}
	_ repository = (*apiclient.Client)(nil)
)

func openRepository(app *App) (repository, error) {
	if app.cfg.Client.Backend == config.BackendAPI {
		return apiclient.New(app.cfg.Client.APIURL, apiclient.WithLogger(logging.Named(app.log, "api"))), nil
	}
	s := store.Store{Dir: app.cfg.Client.Dir}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

// openEditStore returns an edit store loaded from the configured backend.
func openEditStore(ctx context.Context, app *App) (*editstore.Store, repository, error) {
	repo, err := openRepository(app)
	if err != nil {
		return nil, nil, err
	}
	es := editstore.New(repo, editstore.WithLogger(logging.Named(app.log, "editstore")))
	if err := es.Reload(ctx); err != nil {
		return nil, nil, err
	}
	return es, repo, nil
}
