package health

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// Check probes one downstream dependency.
type Check func(ctx context.Context) error

type Handle struct {
	checks map[string]Check
}

func NewHandle(checks map[string]Check) *Handle {
	return &Handle{checks: checks}
}

// Health is a simple health check.
func Health(g *gin.Context) {
	g.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Live is a lightweight liveness probe.
func Live(g *gin.Context) {
	g.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready runs every registered check. The research backend being down does
// not make the gateway unready; reads are served from cache.
//
// @Summary	Readiness of the local stores
// @Tags		health
// @Produce	json
// @Success	200
// @Failure	503
// @Router		/health/ready [get]
func (h *Handle) Ready(g *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := gin.H{}
	healthy := true
	for _, name := range names {
		if err := h.checks[name](g.Request.Context()); err != nil {
			checks[name] = "unhealthy"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	msg := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		msg = "not_ready"
	}
	g.JSON(status, gin.H{
		"status": msg,
		"checks": checks,
	})
}
