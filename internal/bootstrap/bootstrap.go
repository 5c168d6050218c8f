package bootstrap

import (
	"context"
	"fmt"

	"github.com/crowelm/crowelm/internal/config"
	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/crowelm/crowelm/pkg/middleware/db"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/middleware/redis"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/repo/backend"
	"github.com/crowelm/crowelm/pkg/repo/credential"
	"github.com/crowelm/crowelm/pkg/repo/kvstore"
	"github.com/crowelm/crowelm/pkg/repo/migrate"
	"github.com/crowelm/crowelm/pkg/web/views/health"
	r "github.com/redis/go-redis/v9"
)

const redisPrefix = "crowelm:"

// Resources are the process-wide stores chosen by CACHE_STORE.
type Resources struct {
	Store      repo.KVStore
	Credential repo.Credential
	Backend    repo.Backend
	Datastore  *db.Datastore
	Redis      *r.Client
	Checks     map[string]health.Check
}

// Open connects the configured store, migrating SQL backends, and builds the
// backend client on top of the stored credentials.
func Open(ctx context.Context, conf *config.GlobalConfig) (*Resources, error) {
	res := &Resources{Checks: map[string]health.Check{}}

	switch conf.Cache.Store {
	case config.StoreMemory:
		res.Store = kvstore.NewMemory()
	case config.StoreRedis:
		redis.InitRedis(ctx, &redis.Redis{
			Host: conf.Redis.Host, Port: conf.Redis.Port,
			Password: conf.Redis.Password, DB: conf.Redis.DB,
		})
		res.Redis = redis.GetClient()
		res.Store = kvstore.NewRedis(res.Redis, redisPrefix)
		res.Checks["redis"] = func(ctx context.Context) error {
			return res.Redis.Ping(ctx).Err()
		}
	case config.StoreSQLite, config.StorePostgres:
		ds, err := OpenDatastore(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := migrate.Table(ctx, ds); err != nil {
			ds.Close(ctx)
			return nil, err
		}
		res.Datastore = ds
		res.Store = kvstore.NewGorm(ds)
		res.Checks["database"] = ds.Ping
	default:
		return nil, fmt.Errorf("unknown cache store: %s", conf.Cache.Store)
	}

	res.Credential = credential.New(res.Store)
	res.Backend = backend.New(&backend.Config{
		Addr:    conf.Backend.Addr,
		Timeout: conf.Backend.Timeout,
	}, res.Credential.AccessToken)
	logger.Infof(ctx, "cache store: %s, backend: %s", conf.Cache.Store, conf.Backend.Addr)
	return res, nil
}

func OpenDatastore(ctx context.Context, conf *config.GlobalConfig) (*db.Datastore, error) {
	driver := db.DriverSQLite
	if conf.Cache.Store == config.StorePostgres {
		driver = db.DriverPostgres
	}
	return db.Open(ctx, &db.Config{
		Driver: driver,
		Host:   conf.Database.Host, Port: conf.Database.Port,
		User: conf.Database.User, PW: conf.Database.Password,
		DBName:     conf.Database.Name,
		SQLitePath: conf.Database.SQLitePath,
		LogConf:    db.LogConf{Level: conf.Log.LogLevel},
	})
}

func NewEngine(conf *config.GlobalConfig) (*molecule.Engine, error) {
	return molecule.NewEngine(&molecule.EngineConfig{
		BondRule:      conf.Molecule.BondRule,
		BondTolerance: conf.Molecule.BondTolerance,
		PalettePath:   conf.Molecule.PalettePath,
		DefaultMode:   conf.Molecule.DefaultMode,
	})
}

func (res *Resources) Close(ctx context.Context) {
	if res.Datastore != nil {
		res.Datastore.Close(ctx)
	}
	if res.Redis != nil {
		redis.CloseRedis(ctx)
	}
}
