package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ontology-mapper/internal/config"
	"ontology-mapper/internal/database"
	"ontology-mapper/internal/models"
	"ontology-mapper/internal/repositories"
)

// Status is the terminal state of one configured server's extraction.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusConnectFailed Status = "connect_failed"
	StatusExtractFailed Status = "extract_failed"
)

// Outcome records how one configured server fared. Database is set only on
// success; Err only on failure.
type Outcome struct {
	Config   config.ServerConfig
	Status   Status
	Database *models.Database
	Err      error
}

// Connector opens a verified connection to one configured server. It exists
// as a seam so tests can substitute a pool of their own.
type Connector func(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) (*database.Conn, error)

// OntologyService runs the full extraction: one server at a time, each with
// its own connection, failures isolated per server.
type OntologyService struct {
	connect Connector
	logger  *zap.Logger
	now     func() time.Time
}

func NewOntologyService(logger *zap.Logger) *OntologyService {
	return &OntologyService{
		connect: database.Connect,
		logger:  logger,
		now:     time.Now,
	}
}

// BuildOntology extracts every configured server in order and assembles the
// final document. A server that fails to connect or extract contributes
// nothing; the run always completes and always returns a valid document.
// Metadata counts configured servers, not successful ones.
func (s *OntologyService) BuildOntology(ctx context.Context, configs []config.ServerConfig) (*models.Ontology, []Outcome) {
	logger := s.logger.With(zap.String("run_id", uuid.NewString()))
	logger.Info("starting ontology extraction", zap.Int("servers", len(configs)))

	outcomes := make([]Outcome, 0, len(configs))
	for _, cfg := range configs {
		outcomes = append(outcomes, s.extractServer(ctx, cfg, logger))
	}

	ontology := models.NewOntology()
	for _, outcome := range outcomes {
		if outcome.Status == StatusSuccess {
			ontology.Databases = append(ontology.Databases, *outcome.Database)
		}
	}
	ontology.Relationships = BuildRelationships(ontology.Databases)
	ontology.Metadata = models.Metadata{
		ExtractionDate: s.now().Format(time.RFC3339),
		DatabaseCount:  len(configs),
	}

	logger.Info("ontology extraction finished",
		zap.Int("extracted", len(ontology.Databases)),
		zap.Int("relationships", len(ontology.Relationships)),
	)
	return ontology, outcomes
}

func (s *OntologyService) extractServer(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) Outcome {
	logger.Info("connecting to server",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	conn, err := s.connect(ctx, cfg, logger)
	if err != nil {
		logger.Warn("skipping unreachable server",
			zap.String("host", cfg.Host),
			zap.String("database", cfg.Name),
			zap.Error(err),
		)
		return Outcome{Config: cfg, Status: StatusConnectFailed, Err: err}
	}
	defer conn.Close()

	extractor := NewExtractionService(repositories.NewCatalogRepository(conn.DB()), logger)
	db, err := extractor.ExtractDatabase(ctx, cfg)
	if err != nil {
		logger.Error("extraction failed, discarding partial results",
			zap.String("host", cfg.Host),
			zap.String("database", cfg.Name),
			zap.Error(err),
		)
		return Outcome{Config: cfg, Status: StatusExtractFailed, Err: err}
	}

	logger.Info("database extracted",
		zap.String("database", cfg.Name),
		zap.Int("tables", len(db.Tables)),
	)
	return Outcome{Config: cfg, Status: StatusSuccess, Database: db}
}

// BuildRelationships derives one edge per foreign-key row across all
// extracted databases. Targets are not checked for existence: a foreign key
// may point at a schema that was never configured. Composite constraints
// yield one edge per participating column.
func BuildRelationships(databases []models.Database) []models.Relationship {
	relationships := make([]models.Relationship, 0)
	for _, db := range databases {
		for _, table := range db.Tables {
			for _, fk := range table.ForeignKeys {
				relationships = append(relationships, models.Relationship{
					SourceDatabase:   db.Name,
					SourceTable:      table.Name,
					SourceColumn:     fk.ColumnName,
					TargetDatabase:   fk.ReferencedTableSchema,
					TargetTable:      fk.ReferencedTableName,
					TargetColumn:     fk.ReferencedColumnName,
					ConstraintName:   fk.ConstraintName,
					RelationshipType: models.RelationshipTypeForeignKey,
				})
			}
		}
	}
	return relationships
}
