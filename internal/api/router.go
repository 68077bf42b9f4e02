package api

import (
	"time"

	"sprint-mcp/internal/config"
	"sprint-mcp/internal/jobs"
	"sprint-mcp/internal/report"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// scheduler is the part of the sync cron the admin routes use.
type scheduler interface {
	LastRun() *jobs.LastRun
	RunNow()
}

// NewRouter exposes the reports as JSON. sched may be nil when no sync
// schedule is configured.
func NewRouter(assembler *report.Assembler, team *config.Team, sched scheduler, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "HEAD"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("m", c.Request.Method).
			Str("p", c.FullPath()).
			Int("s", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	})

	h := NewHandlers(assembler, team, sched)

	r.GET("/healthz", h.Healthz)
	r.GET("/worklogs", h.Worklogs)
	r.GET("/teams", h.Teams)

	sprints := r.Group("/sprints")
	sprints.GET("", h.Sprints)
	sprints.GET("/synced", h.SyncedSprints)
	sprints.GET("/:id/report", h.SprintReport)
	sprints.GET("/:id/issues", h.SprintIssues)
	sprints.POST("/:id/sync", h.SyncSprint)

	r.POST("/issues/:key/fields", h.SetIssueField)
	r.POST("/cache/clear", h.ClearCache)

	r.GET("/admin/last-run", h.LastRun)
	r.POST("/admin/run", h.RunNow)

	return r
}
