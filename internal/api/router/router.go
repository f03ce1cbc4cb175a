package router

import (
	"github.com/cuongbtq/video-intake/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// Options holds the optional router features
type Options struct {
	Metrics   *Metrics
	RateLimit *RateLimitConfig // nil disables rate limiting
}

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, opts Options) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	healthHandler := handler.NewHealthHandler(deps)
	r.GET("/health", healthHandler.Health)

	jobHandler := handler.NewJobHandler(deps)

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			submit := []gin.HandlerFunc{}
			if opts.RateLimit != nil {
				submit = append(submit, RateLimitMiddleware(*opts.RateLimit))
			}
			submit = append(submit, jobHandler.CreateJob)

			// POST /api/v1/jobs - Submit a video job
			jobs.POST("", submit...)

			// GET /api/v1/jobs/:job_id - Get the caller's job
			jobs.GET("/:job_id", jobHandler.GetJob)
		}
	}

	return r
}
