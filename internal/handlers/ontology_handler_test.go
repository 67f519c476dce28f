package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-mapper/internal/handlers"
	"ontology-mapper/internal/models"
	"ontology-mapper/internal/routes"
	"ontology-mapper/internal/storage"
)

func sampleOntology() *models.Ontology {
	o := models.NewOntology()
	o.Databases = append(o.Databases, models.Database{
		Name: "commerce",
		Host: "db1.internal",
		Port: 3306,
		Tables: []models.Table{
			{
				Name:      "orders",
				TableType: "BASE TABLE",
				Columns: []models.Column{
					{Name: "id", DataType: "bigint"},
					{Name: "shipment_ref", DataType: "varchar"},
				},
				PrimaryKeyColumns: []string{"id"},
			},
			{
				Name:      "customers",
				TableType: "BASE TABLE",
				Columns: []models.Column{
					{Name: "id", DataType: "bigint"},
				},
			},
		},
	})
	o.Relationships = append(o.Relationships, models.Relationship{
		SourceDatabase:   "commerce",
		SourceTable:      "orders",
		SourceColumn:     "customer_id",
		TargetDatabase:   "commerce",
		TargetTable:      "customers",
		TargetColumn:     "id",
		ConstraintName:   "fk_orders_customer",
		RelationshipType: models.RelationshipTypeForeignKey,
	})
	o.Metadata = models.Metadata{ExtractionDate: "2026-08-28T12:00:00Z", DatabaseCount: 1}
	return o
}

// newTestRouter stands up the full route surface over a store backed by a
// temp document. A nil ontology leaves the document missing.
func newTestRouter(t *testing.T, ontology *models.Ontology) (*gin.Engine, *storage.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "ontology.json")
	if ontology != nil {
		require.NoError(t, storage.Save(ontology, path))
	}
	store := storage.NewStore(path, zap.NewNop())

	router := gin.New()
	routes.RegisterRoutes(router, handlers.NewOntologyHandler(store, zap.NewNop()))
	return router, store
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, router *gin.Engine, method, target string) (int, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(rec, req)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestGetDatabase(t *testing.T) {
	router, _ := newTestRouter(t, sampleOntology())

	code, body := doRequest(t, router, http.MethodGet, "/api/databases/commerce")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body.Status)

	var db models.Database
	require.NoError(t, json.Unmarshal(body.Data, &db))
	assert.Equal(t, "commerce", db.Name)
	assert.Len(t, db.Tables, 2)
}

func TestGetDatabaseNotFound(t *testing.T) {
	router, _ := newTestRouter(t, sampleOntology())

	code, body := doRequest(t, router, http.MethodGet, "/api/databases/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "Database not found", body.Message)
}

func TestGetTableNotFoundIsDistinct(t *testing.T) {
	router, _ := newTestRouter(t, sampleOntology())

	code, body := doRequest(t, router, http.MethodGet, "/api/databases/commerce/tables/ghost")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Table not found", body.Message)

	code, body = doRequest(t, router, http.MethodGet, "/api/databases/ghost/tables/orders")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Database not found", body.Message)
}

func TestMissingDocumentYields404(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	for _, target := range []string{"/api/ontology", "/api/databases", "/api/stats"} {
		code, body := doRequest(t, router, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, code, target)
		assert.Contains(t, body.Message, "run extraction first", target)
	}
}

func TestSearchSingleColumnMatch(t *testing.T) {
	router, _ := newTestRouter(t, sampleOntology())

	// "shipment" appears in exactly one column name and in no table or
	// database name.
	code, body := doRequest(t, router, http.MethodGet, "/api/search?q=SHIPMENT")
	require.Equal(t, http.StatusOK, code)

	var result struct {
		Query     string `json:"query"`
		Databases []struct {
			Name string `json:"name"`
		} `json:"databases"`
		Tables []struct {
			Name string `json:"name"`
		} `json:"tables"`
		Columns []struct {
			Database string `json:"database"`
			Table    string `json:"table"`
			Name     string `json:"name"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &result))

	assert.Empty(t, result.Databases)
	assert.Empty(t, result.Tables)
	require.Len(t, result.Columns, 1)
	assert.Equal(t, "shipment_ref", result.Columns[0].Name)
	assert.Equal(t, "orders", result.Columns[0].Table)
	assert.Equal(t, "commerce", result.Columns[0].Database)
}

func TestSearchRequiresQuery(t *testing.T) {
	router, _ := newTestRouter(t, sampleOntology())

	code, body := doRequest(t, router, http.MethodGet, "/api/search?q=+")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "error", body.Status)
}

func TestGetStats(t *testing.T) {
	router, _ := newTestRouter(t, sampleOntology())

	code, body := doRequest(t, router, http.MethodGet, "/api/stats")
	require.Equal(t, http.StatusOK, code)

	var stats struct {
		DatabaseCount     int             `json:"database_count"`
		TableCount        int             `json:"table_count"`
		ColumnCount       int             `json:"column_count"`
		RelationshipCount int             `json:"relationship_count"`
		Metadata          models.Metadata `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &stats))

	assert.Equal(t, 1, stats.DatabaseCount)
	assert.Equal(t, 2, stats.TableCount)
	assert.Equal(t, 3, stats.ColumnCount)
	assert.Equal(t, 1, stats.RelationshipCount)
	assert.Equal(t, "2026-08-28T12:00:00Z", stats.Metadata.ExtractionDate)
}

func TestReloadPicksUpNewDocument(t *testing.T) {
	router, store := newTestRouter(t, sampleOntology())

	code, _ := doRequest(t, router, http.MethodGet, "/api/databases")
	require.Equal(t, http.StatusOK, code)

	updated := sampleOntology()
	updated.Databases = append(updated.Databases, models.Database{Name: "crm", Host: "db2.internal", Port: 3306})
	require.NoError(t, storage.Save(updated, store.Path()))

	code, body := doRequest(t, router, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body.Status)

	code, body = doRequest(t, router, http.MethodGet, "/api/databases")
	require.Equal(t, http.StatusOK, code)

	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &list))
	assert.Equal(t, 2, list.Count)
}
