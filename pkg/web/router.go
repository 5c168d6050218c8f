package web

import (
	"context"
	"fmt"

	"github.com/crowelm/crowelm/pkg/core/molecule"
	"github.com/crowelm/crowelm/pkg/core/notify"
	"github.com/crowelm/crowelm/pkg/core/research"
	"github.com/crowelm/crowelm/pkg/middleware/auth"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/repo"
	"github.com/crowelm/crowelm/pkg/web/views/health"
	moleculeView "github.com/crowelm/crowelm/pkg/web/views/molecule"
	researchView "github.com/crowelm/crowelm/pkg/web/views/research"
	"github.com/crowelm/crowelm/pkg/web/views/sse"
	"github.com/crowelm/crowelm/pkg/web/views/stream"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	ServiceName string
	Research    research.Service
	Engine      *molecule.Engine
	Credential  repo.Credential
	Center      notify.MsgCenter
	Checks      map[string]health.Check
}

// Feeds are the long-lived client connections opened by the router.
type Feeds struct {
	Stream *stream.Handle
	SSE    *sse.Handle
}

// Close ends every websocket and event stream.
func (f *Feeds) Close() error {
	f.SSE.Close()
	return f.Stream.Close()
}

// publish fans one notification out to both feeds.
func (f *Feeds) publish(ctx context.Context, msg string) error {
	_ = f.SSE.Publish(ctx, msg)
	return f.Stream.Publish(ctx, msg)
}

// NewRouter installs middleware and routes on g. The returned feeds must be
// closed on shutdown.
func NewRouter(ctx context.Context, g *gin.Engine, d *Deps) *Feeds {
	installMiddleware(g, d.ServiceName)
	return installURL(ctx, g, d)
}

func installMiddleware(g *gin.Engine, serviceName string) {
	g.ContextWithFallback = true
	g.Use(cors.Default())
	if serviceName != "" {
		g.Use(otelgin.Middleware(serviceName))
	}
	g.Use(logger.LogWithWriter())
}

func installURL(ctx context.Context, g *gin.Engine, d *Deps) *Feeds {
	hHandle := health.NewHandle(d.Checks)
	api := g.Group("/api")
	api.GET("/health", health.Health)
	api.GET("/health/live", health.Live)
	api.GET("/health/ready", hHandle.Ready)
	api.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	rHandle := researchView.NewResearchHandle(d.Research)
	mHandle := moleculeView.NewMoleculeHandle(d.Engine)
	feeds := &Feeds{
		Stream: stream.NewStreamHandle(d.Engine),
		SSE:    sse.NewSSEHandle(),
	}
	if d.Center != nil {
		for _, action := range []notify.Action{notify.CacheUpdate, notify.SyncDone, notify.Connectivity} {
			if err := d.Center.Registry(ctx, action, feeds.publish); err != nil {
				logger.Errorf(ctx, "router registry %s err: %+v", action, err)
			}
		}
	}

	v1 := api.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/login", rHandle.Login)
		authGroup.POST("/logout", rHandle.Logout)
		authGroup.POST("/refresh", rHandle.Refresh)
		authGroup.GET("/profile", auth.AuthWeb(d.Credential), rHandle.Profile)
	}

	// Local geometry work needs no backend session.
	{
		moleculeRouter := v1.Group("/molecule")
		moleculeRouter.POST("/parse", mHandle.Parse)
		moleculeRouter.POST("/scene", mHandle.Scene)
		moleculeRouter.POST("/frames", mHandle.Frames)
	}

	{
		v1.GET("/ws/stream", feeds.Stream.Stream)
		v1.GET("/events", feeds.SSE.Notify)
	}

	{
		researchRouter := v1.Group("", auth.AuthWeb(d.Credential))
		researchRouter.GET("/activity", rHandle.RecentActivity)
		researchRouter.GET("/target/:target_id", rHandle.Target)
		researchRouter.POST("/cache/refresh", rHandle.RefreshCache)
		researchRouter.DELETE("/cache", rHandle.ClearCache)

		researchRouter.POST("/molecules/generate", rHandle.GenerateMolecules)
		researchRouter.POST("/molecules/properties", rHandle.Properties)
		researchRouter.POST("/structure/predict", rHandle.PredictStructure)

		researchRouter.POST("/pipeline/run", rHandle.RunPipeline)
		researchRouter.GET("/pipeline/:job_id/status", rHandle.PipelineStatus)
		researchRouter.GET("/pipeline/:job_id/results", rHandle.PipelineResults)

		researchRouter.POST("/chat", rHandle.Chat)

		researchRouter.GET("/sync", rHandle.SyncStatus)
		researchRouter.POST("/sync", rHandle.Sync)
	}
	return feeds
}

func ServiceName(platform, service string) string {
	return fmt.Sprintf("%s-%s", platform, service)
}
