package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tempoview/tempoview/internal/app"
	"github.com/tempoview/tempoview/internal/dbservice"
	"github.com/tempoview/tempoview/internal/middleware"
	"github.com/tempoview/tempoview/internal/store"
)

// NewRouter builds the Gin engine, wires middleware and registers the
// connector, connection and query routes.
func NewRouter(st *store.Store, services *dbservice.Factory, cfg *app.Config) (*gin.Engine, error) {
	if st == nil {
		return nil, fmt.Errorf("store must be provided")
	}
	if services == nil {
		return nil, fmt.Errorf("database service factory must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"success":    true,
				"status":     "ok",
				"checked_at": time.Now().UTC(),
			})
		})
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")

	connections := &connectionHandler{store: st, services: services}

	registerConnectorRoutes(api)
	registerConnectionRoutes(api, connections)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
