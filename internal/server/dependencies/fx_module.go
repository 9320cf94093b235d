package dependencies

import (
	"context"

	"github.com/zhenzou/executors"
	"go.uber.org/fx"

	"github.com/looplj/cellhub/internal/acl"
	"github.com/looplj/cellhub/internal/graph"
	"github.com/looplj/cellhub/internal/log"
	"github.com/looplj/cellhub/internal/pkg/xcache"
	"github.com/looplj/cellhub/internal/server/biz"
	"github.com/looplj/cellhub/internal/server/delivery"
	"github.com/looplj/cellhub/internal/storage"
	"github.com/looplj/cellhub/internal/storage/memstore"
	"github.com/looplj/cellhub/internal/storage/sqlstore"
	"github.com/looplj/cellhub/internal/token"
)

// NewStore opens the configured store. An empty dialect or "memory" gives
// the in-memory store, anything else goes through sqlstore.
func NewStore(lc fx.Lifecycle, cfg sqlstore.Config) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)

	if cfg.Dialect == "" || cfg.Dialect == "memory" {
		store = memstore.New()
	} else {
		store, err = sqlstore.Open(context.Background(), cfg.Dialect, cfg.DSN)
		if err != nil {
			return nil, err
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return store.Close()
		},
	})

	return store, nil
}

func NewTokenVerifier(cfg biz.Config) token.Verifier {
	return token.NewJWTVerifier(cfg.Auth.JWTSecret)
}

func NewAclCache(cfg xcache.Config) (xcache.Cache[acl.Acl], error) {
	return xcache.NewFromConfig[acl.Acl](context.Background(), cfg)
}

func NewBoxCache(cfg xcache.Config) (xcache.Cache[graph.Box], error) {
	return xcache.NewFromConfig[graph.Box](context.Background(), cfg)
}

func NewDeliverer(cfg biz.Config) delivery.Deliverer {
	return delivery.NewHTTPDeliverer(cfg.Unit.BaseURL)
}

var Module = fx.Module("dependencies",
	fx.Provide(log.New),
	fx.Provide(NewStore),
	fx.Provide(NewTokenVerifier),
	fx.Provide(NewAclCache),
	fx.Provide(NewBoxCache),
	fx.Provide(NewDeliverer),
	fx.Provide(delivery.NewDispatcher),
	fx.Provide(NewExecutors),
	fx.Invoke(func(lc fx.Lifecycle, executor executors.ScheduledExecutor) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return executor.Shutdown(ctx)
			},
		})
	}),
)
