package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ontology-mapper/internal/models"
	"ontology-mapper/internal/responses"
	"ontology-mapper/internal/storage"
)

const msgNotExtracted = "Ontology not found. Please run extraction first."

type OntologyHandler struct {
	store  *storage.Store
	logger *zap.Logger
}

func NewOntologyHandler(store *storage.Store, logger *zap.Logger) *OntologyHandler {
	return &OntologyHandler{
		store:  store,
		logger: logger,
	}
}

// loadDocument fetches the document or writes the error response. Missing
// and corrupt documents are reported distinctly.
func (h *OntologyHandler) loadDocument(c *gin.Context) (*models.Ontology, bool) {
	doc, err := h.store.Get()
	if err == nil {
		return doc, true
	}

	if errors.Is(err, storage.ErrNotFound) {
		responses.Fail(c, http.StatusNotFound, nil, msgNotExtracted)
		return nil, false
	}

	h.logger.Error("failed to load ontology document", zap.Error(err))
	responses.Fail(c, http.StatusInternalServerError, err, "Failed to load ontology document")
	return nil, false
}

// GetOntology handles GET /api/ontology
func (h *OntologyHandler) GetOntology(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}
	responses.Success(c, http.StatusOK, doc, "Ontology retrieved successfully")
}

type databaseSummary struct {
	Name       string `json:"name"`
	Host       string `json:"host"`
	Port       int    `json:"port"`
	TableCount int    `json:"table_count"`
}

// ListDatabases handles GET /api/databases
func (h *OntologyHandler) ListDatabases(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	summaries := make([]databaseSummary, 0, len(doc.Databases))
	for _, db := range doc.Databases {
		summaries = append(summaries, databaseSummary{
			Name:       db.Name,
			Host:       db.Host,
			Port:       db.Port,
			TableCount: len(db.Tables),
		})
	}
	responses.Success(c, http.StatusOK, gin.H{
		"databases": summaries,
		"count":     len(summaries),
	}, "Databases retrieved successfully")
}

// GetDatabase handles GET /api/databases/:name
func (h *OntologyHandler) GetDatabase(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	db := doc.GetDatabase(c.Param("name"))
	if db == nil {
		responses.Fail(c, http.StatusNotFound, nil, "Database not found")
		return
	}
	responses.Success(c, http.StatusOK, db, "Database retrieved successfully")
}

// GetTable handles GET /api/databases/:name/tables/:table
func (h *OntologyHandler) GetTable(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	db := doc.GetDatabase(c.Param("name"))
	if db == nil {
		responses.Fail(c, http.StatusNotFound, nil, "Database not found")
		return
	}

	table := doc.GetTable(db.Name, c.Param("table"))
	if table == nil {
		responses.Fail(c, http.StatusNotFound, nil, "Table not found")
		return
	}
	responses.Success(c, http.StatusOK, table, "Table retrieved successfully")
}

// ListRelationships handles GET /api/relationships
func (h *OntologyHandler) ListRelationships(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}
	responses.Success(c, http.StatusOK, gin.H{
		"relationships": doc.Relationships,
		"count":         len(doc.Relationships),
	}, "Relationships retrieved successfully")
}

type databaseMatch struct {
	Name string `json:"name"`
	Host string `json:"host"`
}

type tableMatch struct {
	Database     string  `json:"database"`
	Name         string  `json:"name"`
	TableComment *string `json:"table_comment"`
}

type columnMatch struct {
	Database      string  `json:"database"`
	Table         string  `json:"table"`
	Name          string  `json:"name"`
	DataType      string  `json:"data_type"`
	ColumnComment *string `json:"column_comment"`
}

// Search handles GET /api/search?q= with a case-insensitive substring match
// over database, table and column names.
func (h *OntologyHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		responses.Fail(c, http.StatusBadRequest, nil, "Query parameter 'q' is required")
		return
	}

	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	needle := strings.ToLower(query)
	databases := make([]databaseMatch, 0)
	tables := make([]tableMatch, 0)
	columns := make([]columnMatch, 0)

	for _, db := range doc.Databases {
		if strings.Contains(strings.ToLower(db.Name), needle) {
			databases = append(databases, databaseMatch{Name: db.Name, Host: db.Host})
		}
		for _, table := range db.Tables {
			if strings.Contains(strings.ToLower(table.Name), needle) {
				tables = append(tables, tableMatch{
					Database:     db.Name,
					Name:         table.Name,
					TableComment: table.TableComment,
				})
			}
			for _, column := range table.Columns {
				if strings.Contains(strings.ToLower(column.Name), needle) {
					columns = append(columns, columnMatch{
						Database:      db.Name,
						Table:         table.Name,
						Name:          column.Name,
						DataType:      column.DataType,
						ColumnComment: column.ColumnComment,
					})
				}
			}
		}
	}

	responses.Success(c, http.StatusOK, gin.H{
		"query":     query,
		"databases": databases,
		"tables":    tables,
		"columns":   columns,
	}, "Search completed successfully")
}

// GetStats handles GET /api/stats
func (h *OntologyHandler) GetStats(c *gin.Context) {
	doc, ok := h.loadDocument(c)
	if !ok {
		return
	}

	tableCount := 0
	columnCount := 0
	for _, db := range doc.Databases {
		tableCount += len(db.Tables)
		for _, table := range db.Tables {
			columnCount += len(table.Columns)
		}
	}

	responses.Success(c, http.StatusOK, gin.H{
		"database_count":     len(doc.Databases),
		"table_count":        tableCount,
		"column_count":       columnCount,
		"relationship_count": len(doc.Relationships),
		"metadata":           doc.Metadata,
	}, "Statistics retrieved successfully")
}

// Reload handles POST /api/reload, re-reading the document from disk.
func (h *OntologyHandler) Reload(c *gin.Context) {
	doc, err := h.store.Reload()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			responses.Fail(c, http.StatusNotFound, nil, msgNotExtracted)
			return
		}
		h.logger.Error("failed to reload ontology document", zap.Error(err))
		responses.Fail(c, http.StatusInternalServerError, err, "Failed to reload ontology document")
		return
	}

	responses.Success(c, http.StatusOK, gin.H{
		"databases":     len(doc.Databases),
		"relationships": len(doc.Relationships),
	}, "Ontology document reloaded")
}
