package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/oerhub/oerhub-server/internal/config"
	"github.com/oerhub/oerhub-server/internal/logger"
	"github.com/oerhub/oerhub-server/internal/store"
	"github.com/oerhub/oerhub-server/internal/store/badgerdb"
	"github.com/oerhub/oerhub-server/internal/store/mongodb"
	"github.com/oerhub/oerhub-server/internal/store/pgsql"
	"github.com/oerhub/oerhub-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the store selected by configuration.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := OpenStore(context.Background(), cfg, log.Logger)
	if err != nil {
		return nil, err
	}

	log.WithField("backend", cfg.Storage.Backend).Info("Store initialized")

	return &StoreHandle{Store: st}, nil
}

// OpenStore opens the configured backend. The caller owns the returned store.
func OpenStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendBadger:
		return badgerdb.Open(cfg.BadgerPath(), log, badgerdb.Options{})
	case config.BackendSQLite:
		return sqlite.Open(cfg.SQLitePath(), log)
	case config.BackendMongo:
		return mongodb.Open(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, log)
	case config.BackendPostgres:
		return pgsql.Open(cfg.Storage.PostgresDSN, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
