package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	ginpprof "github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the transport level settings of the API
type RouterConfig struct {
	// CORSOrigins lists allowed origins. Empty or "*" allows any.
	CORSOrigins []string
	// Profiling mounts pprof under /debug/pprof
	Profiling bool
}

// NewRouter builds the gin engine serving h
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	engine := gin.New()
	engine.Use(requestID(), requestLogger(h.logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORSOrigins) == 0 || slices.Contains(cfg.CORSOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.CORSOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", requestIDHeader)
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	engine.Use(cors.New(corsConfig))

	// K8s probe
	engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	// Prometheus metrics
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Profiling {
		ginpprof.Register(engine, "debug/pprof")
		h.logger.Info().Msg("pprof enabled at /debug/pprof/")
	}

	lib := engine.Group("/api/lib")
	{
		// catalog lookups are anonymous
		lib.GET("/", h.book)
		lib.GET("/search/", h.search)

		// login reads basic auth itself and always starts a fresh session
		lib.GET("/login/", h.login)

		student := lib.Group("", h.requireLibLogin())
		student.GET("/me/", h.loans)
		student.POST("/renew/", h.renew)
		student.POST("/create_atten/", h.createWatch)
		student.GET("/get_atten/", h.listWatches)
		student.DELETE("/del_atten/", h.deleteWatch)
	}

	return engine
}
