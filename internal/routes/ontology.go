package routes

import (
	"github.com/gin-gonic/gin"

	"ontology-mapper/internal/handlers"
)

type OntologyRoutes struct {
	handler *handlers.OntologyHandler
}

func NewOntologyRoutes(handler *handlers.OntologyHandler) *OntologyRoutes {
	return &OntologyRoutes{handler: handler}
}

func (r *OntologyRoutes) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ontology", r.handler.GetOntology)
	router.GET("/databases", r.handler.ListDatabases)
	router.GET("/databases/:name", r.handler.GetDatabase)
	router.GET("/databases/:name/tables/:table", r.handler.GetTable)
	router.GET("/relationships", r.handler.ListRelationships)
	router.GET("/search", r.handler.Search)
	router.GET("/stats", r.handler.GetStats)
	router.POST("/reload", r.handler.Reload)
}
