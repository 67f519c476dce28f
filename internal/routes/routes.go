package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ontology-mapper/internal/handlers"
)

func RegisterRoutes(router *gin.Engine, ontologyHandler *handlers.OntologyHandler) {
	api := router.Group("/api")

	ontologyRoutes := NewOntologyRoutes(ontologyHandler)
	ontologyRoutes.RegisterRoutes(api)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})
}
