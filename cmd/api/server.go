package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/crowelm/crowelm/docs" // swagger generated docs

	"github.com/crowelm/crowelm/internal/bootstrap"
	"github.com/crowelm/crowelm/internal/config"
	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/crowelm/crowelm/pkg/core/notify"
	"github.com/crowelm/crowelm/pkg/core/notify/events"
	"github.com/crowelm/crowelm/pkg/core/notify/local"
	"github.com/crowelm/crowelm/pkg/core/offline"
	"github.com/crowelm/crowelm/pkg/core/offline/netwatch"
	"github.com/crowelm/crowelm/pkg/core/offline/queue"
	"github.com/crowelm/crowelm/pkg/core/offline/syncer"
	researchImpl "github.com/crowelm/crowelm/pkg/core/research/research"
	cgrpc "github.com/crowelm/crowelm/pkg/grpc"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/middleware/trace"
	"github.com/crowelm/crowelm/pkg/repo/backend"
	"github.com/crowelm/crowelm/pkg/repo/migrate"
	"github.com/crowelm/crowelm/pkg/utils"
	"github.com/crowelm/crowelm/pkg/web"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"
)

// gateway holds what apiserver opens in PreRunE and releases in PostRunE.
// Each command owns its own gateway.
type gateway struct {
	res     *bootstrap.Resources
	engine  *molecule.Engine
	pool    *ants.Pool
	monitor *netwatch.Monitor
	syncer  *syncer.Syncer
	center  notify.MsgCenter
}

func NewWeb() *cobra.Command {
	gw := &gateway{}
	return &cobra.Command{
		Use:          "apiserver",
		Long:         "Start the gateway (HTTP + gRPC health)",
		SilenceUsage: true,
		PreRunE:      gw.initWeb,
		RunE:         gw.newRouter,
		PostRunE:     gw.cleanWebResource,
	}
}

func NewMigrate() *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Long:         "Create the cache tables for the sqlite or postgres store",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := config.Global()
			if conf.Cache.Store != config.StoreSQLite && conf.Cache.Store != config.StorePostgres {
				return code.ParamErr.WithMsgf("cache store %s has no tables", conf.Cache.Store)
			}
			ds, err := bootstrap.OpenDatastore(cmd.Context(), conf)
			if err != nil {
				return err
			}
			defer ds.Close(cmd.Context())
			return migrate.Table(cmd.Root().Context(), ds)
		},
	}
}

func (gw *gateway) initWeb(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	conf := config.Global()
	trace.InitTrace(ctx, &trace.InitConfig{
		ServiceName:    web.ServiceName(conf.Server.Platform, conf.Server.Service),
		Version:        conf.Trace.Version,
		TraceEndpoint:  conf.Trace.TraceEndpoint,
		MetricEndpoint: conf.Trace.MetricEndpoint,
	})

	res, err := bootstrap.Open(ctx, conf)
	if err != nil {
		return err
	}
	gw.res = res

	if gw.engine, err = bootstrap.NewEngine(conf); err != nil {
		return err
	}
	if gw.pool, err = ants.NewPool(conf.Cache.PoolSize, ants.WithNonblocking(true)); err != nil {
		return err
	}

	if res.Redis != nil {
		gw.center = events.NewEvents(res.Redis, conf.Server.Service)
	} else {
		gw.center = local.New()
	}

	gw.monitor = netwatch.New(backend.Client(res.Backend), netwatch.Options{
		HealthPath: conf.Backend.HealthPath,
		Interval:   conf.Cache.ReachabilityPoll,
		Timeout:    conf.Backend.Timeout,
	})
	gw.syncer = syncer.New(queue.New(res.Store, res.Backend))
	gw.syncer.OnSynced = func(ctx context.Context, result *offline.SyncResult) {
		logger.Infof(ctx, "sync pending attempted: %d, synced: %d, remaining: %d",
			result.Attempted, result.Synced, result.Remaining)
		if err := gw.center.Broadcast(ctx, &notify.SendMsg{Channel: notify.SyncDone, Data: result}); err != nil {
			logger.Warnf(ctx, "broadcast sync result err: %+v", err)
		}
	}
	return nil
}

func (gw *gateway) newRouter(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Root().Context()
	conf := config.Global()

	svc := researchImpl.New(&researchImpl.Deps{
		Backend:      gw.res.Backend,
		Credential:   gw.res.Credential,
		Store:        gw.res.Store,
		Pool:         gw.pool,
		Syncer:       gw.syncer,
		Connectivity: gw.monitor,
		Center:       gw.center,
		Engine:       gw.engine,
		FetchTimeout: conf.Cache.FetchTimeout,
		ActivityTTL:  conf.Cache.DefaultTTL,
	})

	if conf.Server.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	feeds := web.NewRouter(ctx, router, &web.Deps{
		ServiceName: web.ServiceName(conf.Server.Platform, conf.Server.Service),
		Research:    svc,
		Engine:      gw.engine,
		Credential:  gw.res.Credential,
		Center:      gw.center,
		Checks:      gw.res.Checks,
	})

	grpcServer, err := cgrpc.NewServer(ctx, conf.Server.GrpcPort)
	if err != nil {
		logger.Errorf(ctx, "start gRPC server err: %+v", err)
	} else {
		fmt.Printf("gRPC health server starting on port %d\n", conf.Server.GrpcPort)
	}

	unsub := gw.monitor.Subscribe(func(online bool) {
		if grpcServer != nil {
			grpcServer.SetOnline(online)
		}
		if err := gw.center.Broadcast(ctx, &notify.SendMsg{
			Channel: notify.Connectivity,
			Data:    map[string]bool{"online": online},
		}); err != nil {
			logger.Warnf(ctx, "broadcast connectivity err: %+v", err)
		}
	})
	defer unsub()
	gw.syncer.Watch(ctx, gw.monitor)
	gw.monitor.Start(ctx)

	port := conf.Server.Port
	httpServer := http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           router,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       30 * time.Second,
		TLSNextProto:      make(map[string]func(*http.Server, *tls.Conn, http.Handler)),
	}

	fmt.Printf("Gateway starting on http://0.0.0.0:%d\n", port)
	utils.SafelyGo(func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "start server err: %v", err)
		}
	}, func(err error) {
		logger.Errorf(ctx, "run http server err: %+v", err)
		os.Exit(1)
	})

	fmt.Printf("Server started. Press Ctrl+C to shutdown.\n")
	<-ctx.Done()

	gw.monitor.Stop()
	gw.syncer.Close()
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := feeds.Close(); err != nil {
		logger.Warnf(shutdownCtx, "close feeds err: %+v", err)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("shut down server err: %+v", err)
	}
	return nil
}

func (gw *gateway) cleanWebResource(cmd *cobra.Command, _ []string) error {
	ctx := context.WithoutCancel(cmd.Context())
	if gw.center != nil {
		if err := gw.center.Close(ctx); err != nil {
			logger.Warnf(ctx, "close notify center err: %+v", err)
		}
	}
	if gw.pool != nil {
		gw.pool.Release()
	}
	if gw.res != nil {
		gw.res.Close(ctx)
	}
	trace.CloseTrace()
	return nil
}
