package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func() error

// RouterConfig controls the outer HTTP surface.
type RouterConfig struct {
	AllowedOrigins []string
	MetricsEnabled bool
	MetricsPath    string
	Checks         map[string]HealthCheck
}

// NewRouter registers every dashboard route behind the auth middleware.
func NewRouter(handler *Handler, verifier *TokenVerifier, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", healthHandler(cfg.Checks))
	if cfg.MetricsEnabled {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api/v1")
	api.Use(AuthMiddleware(verifier))
	{
		api.GET("/levels", handler.GetLevels)

		me := api.Group("/me")
		me.POST("/session", handler.StartSession)
		me.GET("/progress", handler.GetProgress)
		me.GET("/stats", handler.GetStats)
		me.GET("/activities", handler.GetActivities)
		me.GET("/heatmap", handler.GetHeatmap)
		me.GET("/radar", handler.GetRadar)
		me.GET("/funnel", handler.GetFunnel)
		me.POST("/xp", handler.AwardXP)
		me.POST("/problems", handler.RecordProblemSolved)
		me.POST("/assessments", handler.RecordAssessment)
		me.GET("/applications", handler.ListApplications)
		me.POST("/applications", handler.CreateApplication)
		me.PATCH("/applications/:id/status", handler.MoveApplication)
		me.GET("/reminders", handler.ListReminders)
		me.POST("/reminders", handler.CreateReminder)
		me.DELETE("/reminders/:id", handler.DeleteReminder)
	}

	return r
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		state := "healthy"
		if status != http.StatusOK {
			state = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":    state,
			"checks":    results,
			"timestamp": time.Now().UTC(),
		})
	}
}
