package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ontology-mapper/internal/config"
	"ontology-mapper/internal/handlers"
	"ontology-mapper/internal/middlewares"
	"ontology-mapper/internal/routes"
	"ontology-mapper/internal/storage"
)

// NewServer wires the read API around an injected document store and returns
// a configured HTTP server ready for ListenAndServe.
func NewServer(cfg config.AppConfig, store *storage.Store, logger *zap.Logger) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.RequestLogger(logger))
	router.Use(cors.Default())

	ontologyHandler := handlers.NewOntologyHandler(store, logger)
	routes.RegisterRoutes(router, ontologyHandler)

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
