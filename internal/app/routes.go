package app

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studyhub/core/internal/middleware"
	"github.com/studyhub/core/internal/modules/content/document"
	"github.com/studyhub/core/internal/modules/processing/ai"
	"github.com/studyhub/core/internal/modules/processing/artifact"
	"github.com/studyhub/core/internal/pkg/response"
	"github.com/studyhub/core/internal/pkg/taskqueue"
)

const (
	apiPrefix       = "/api/v1"
	rateLimitMax    = 30
	rateLimitWindow = time.Minute
)

func (a *App) registerRoutes() error {
	r := a.router

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})

	handles, err := ai.BuildHandles(a.cfg)
	if err != nil {
		return fmt.Errorf("ai providers: %w", err)
	}
	if len(handles) == 0 {
		a.logger.Warn("no ai providers enabled, every generation will use the offline fallback")
	}

	var store artifact.Store = artifact.NewGormStore(a.db)
	if ttl := a.cfg.Generation.CacheTTL; ttl > 0 {
		store = artifact.NewCachedStore(store, a.rc, ttl, a.logger.Named("ArtifactCache"))
	}

	genLogger := a.logger.Named("Generation")
	orch := artifact.NewOrchestrator(
		document.NewService(a.db, a.cfg.Generation.MaxSourceChars),
		store,
		artifact.NewChain(handles, genLogger),
		genLogger,
		a.cfg.Generation.MaxOutputTokens,
	)
	tasks := artifact.NewTaskRunner(taskqueue.NewService(a.rc), orch, genLogger.Named("Task"))

	api := r.Group(apiPrefix)
	api.GET("/ping", func(c *gin.Context) {
		response.OK(c, gin.H{
			"pong":      true,
			"providers": len(handles),
			"redis":     a.rc.Ping(c.Request.Context()) == nil,
		})
	})

	auth := []gin.HandlerFunc{
		middleware.Auth(),
		middleware.RateLimit(a.rc.Raw(), rateLimitMax, rateLimitWindow),
	}
	artifact.NewHandler(orch, tasks).RegisterRoutes(api, auth, middleware.Idempotence(a.rc.Raw()))
	return nil
}
