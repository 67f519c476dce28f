package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-mapper/internal/config"
	"ontology-mapper/internal/database"
	"ontology-mapper/internal/models"
)

// newMockConn prepares a sqlmock-backed connection whose expectations the
// test sets up before handing it to the orchestrator.
func newMockConn(t *testing.T, cfg config.ServerConfig) (*database.Conn, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	return database.NewConn(sqlx.NewDb(mockDB, "mysql"), cfg, zap.NewNop()), mock
}

func fixedClockService(connect Connector) *OntologyService {
	return &OntologyService{
		connect: connect,
		logger:  zap.NewNop(),
		now:     func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) },
	}
}

func TestBuildOntologyPartialFailure(t *testing.T) {
	unreachable := config.ServerConfig{ID: 1, Host: "down.internal", Port: 3306, Name: "legacy"}
	reachable := config.ServerConfig{ID: 2, Host: "db2.internal", Port: 3306, Name: "commerce"}

	conn, mock := newMockConn(t, reachable)
	expectSchemaInfo(mock, "commerce", "utf8mb4", "utf8mb4_unicode_ci")
	mock.ExpectQuery("FROM INFORMATION_SCHEMA\\.TABLES").
		WithArgs("commerce").
		WillReturnRows(sqlmock.NewRows([]string{
			"TABLE_NAME", "TABLE_TYPE", "ENGINE", "TABLE_ROWS", "DATA_LENGTH", "INDEX_LENGTH", "TABLE_COMMENT",
		}))
	mock.ExpectClose()

	dialErr := errors.New("dial tcp: connection refused")
	svc := fixedClockService(func(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) (*database.Conn, error) {
		if cfg.Host == "down.internal" {
			return nil, dialErr
		}
		return conn, nil
	})

	ontology, outcomes := svc.BuildOntology(context.Background(), []config.ServerConfig{unreachable, reachable})

	require.Len(t, outcomes, 2)
	assert.Equal(t, StatusConnectFailed, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, dialErr)
	assert.Nil(t, outcomes[0].Database)
	assert.Equal(t, StatusSuccess, outcomes[1].Status)

	require.Len(t, ontology.Databases, 1, "the unreachable server contributes nothing")
	assert.Equal(t, "commerce", ontology.Databases[0].Name)
	assert.Equal(t, 2, ontology.Metadata.DatabaseCount, "metadata counts configured servers, not successes")
	assert.Equal(t, "2026-08-28T12:00:00Z", ontology.Metadata.ExtractionDate)

	require.NoError(t, mock.ExpectationsWereMet(), "the connection must be torn down")
}

func TestBuildOntologyExtractFailureDiscardsServer(t *testing.T) {
	cfg := config.ServerConfig{ID: 1, Host: "db1.internal", Port: 3306, Name: "commerce"}

	conn, mock := newMockConn(t, cfg)
	mock.ExpectQuery("FROM INFORMATION_SCHEMA\\.SCHEMATA").
		WithArgs("commerce").
		WillReturnError(errors.New("server has gone away"))
	mock.ExpectClose()

	svc := fixedClockService(func(ctx context.Context, c config.ServerConfig, logger *zap.Logger) (*database.Conn, error) {
		return conn, nil
	})

	ontology, outcomes := svc.BuildOntology(context.Background(), []config.ServerConfig{cfg})

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusExtractFailed, outcomes[0].Status)
	var extractErr *ExtractionError
	assert.ErrorAs(t, outcomes[0].Err, &extractErr)

	assert.Empty(t, ontology.Databases)
	assert.Empty(t, ontology.Relationships)
	assert.Equal(t, 1, ontology.Metadata.DatabaseCount)
	assert.NotEmpty(t, ontology.Metadata.ExtractionDate, "a failed run still yields a valid document")

	require.NoError(t, mock.ExpectationsWereMet(), "teardown must run even when extraction fails")
}

func TestBuildRelationships(t *testing.T) {
	databases := []models.Database{
		{
			Name: "commerce",
			Tables: []models.Table{
				{
					Name: "orders",
					ForeignKeys: []models.ForeignKey{
						{
							ConstraintName:        "fk_orders_customer",
							ColumnName:            "customer_id",
							ReferencedTableSchema: "crm",
							ReferencedTableName:   "customers",
							ReferencedColumnName:  "id",
						},
						{
							ConstraintName:        "fk_orders_region",
							ColumnName:            "region_id",
							ReferencedTableSchema: "geo",
							ReferencedTableName:   "regions",
							ReferencedColumnName:  "id",
						},
					},
				},
				{Name: "audit_log"},
			},
		},
		{
			Name: "crm",
			Tables: []models.Table{
				{
					Name: "customers",
					ForeignKeys: []models.ForeignKey{
						{
							ConstraintName:        "fk_customers_tier",
							ColumnName:            "tier_id",
							ReferencedTableSchema: "crm",
							ReferencedTableName:   "tiers",
							ReferencedColumnName:  "id",
						},
					},
				},
			},
		},
	}

	relationships := BuildRelationships(databases)
	require.Len(t, relationships, 3, "one edge per foreign key row")

	first := relationships[0]
	assert.Equal(t, "commerce", first.SourceDatabase)
	assert.Equal(t, "orders", first.SourceTable)
	assert.Equal(t, "customer_id", first.SourceColumn)
	assert.Equal(t, "crm", first.TargetDatabase)
	assert.Equal(t, "customers", first.TargetTable)
	assert.Equal(t, "id", first.TargetColumn)
	assert.Equal(t, models.RelationshipTypeForeignKey, first.RelationshipType)

	assert.Equal(t, "geo", relationships[1].TargetDatabase,
		"targets outside the configured set are kept, not validated")
	assert.Equal(t, "fk_customers_tier", relationships[2].ConstraintName)
}

func TestBuildRelationshipsEmpty(t *testing.T) {
	relationships := BuildRelationships(nil)
	require.NotNil(t, relationships, "must serialize as [], never null")
	assert.Empty(t, relationships)
}
