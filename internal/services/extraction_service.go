package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ontology-mapper/internal/config"
	"ontology-mapper/internal/models"
	"ontology-mapper/internal/repositories"
)

// ExtractionError reports a catalog read failure while assembling one
// database. The database's partial results are discarded; the run continues
// with the next configured server.
type ExtractionError struct {
	Database string
	Stage    string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract database %s (%s): %v", e.Database, e.Stage, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ExtractionService assembles the full document for one database from its
// server's catalog. One instance is bound to one connection.
type ExtractionService struct {
	repo   *repositories.CatalogRepository
	logger *zap.Logger
}

func NewExtractionService(repo *repositories.CatalogRepository, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		repo:   repo,
		logger: logger,
	}
}

// ExtractDatabase reads the schema's character set, its table list, and the
// columns, indexes, foreign keys and primary key of every table. Any single
// catalog failure aborts the whole database; no partial entity is returned.
func (s *ExtractionService) ExtractDatabase(ctx context.Context, cfg config.ServerConfig) (*models.Database, error) {
	info, err := s.repo.GetSchemaInfo(ctx, cfg.Name)
	if err != nil {
		return nil, &ExtractionError{Database: cfg.Name, Stage: "schema info", Err: err}
	}

	tables, err := s.repo.GetTables(ctx, cfg.Name)
	if err != nil {
		return nil, &ExtractionError{Database: cfg.Name, Stage: "table list", Err: err}
	}

	for i := range tables {
		table := &tables[i]

		table.Columns, err = s.repo.GetColumns(ctx, cfg.Name, table.Name)
		if err != nil {
			return nil, &ExtractionError{Database: cfg.Name, Stage: "columns of " + table.Name, Err: err}
		}

		table.Indexes, err = s.repo.GetIndexes(ctx, cfg.Name, table.Name)
		if err != nil {
			return nil, &ExtractionError{Database: cfg.Name, Stage: "indexes of " + table.Name, Err: err}
		}

		table.ForeignKeys, err = s.repo.GetForeignKeys(ctx, cfg.Name, table.Name)
		if err != nil {
			return nil, &ExtractionError{Database: cfg.Name, Stage: "foreign keys of " + table.Name, Err: err}
		}

		table.PrimaryKeyColumns, err = s.repo.GetPrimaryKey(ctx, cfg.Name, table.Name)
		if err != nil {
			return nil, &ExtractionError{Database: cfg.Name, Stage: "primary key of " + table.Name, Err: err}
		}

		s.logger.Debug("table extracted",
			zap.String("database", cfg.Name),
			zap.String("table", table.Name),
			zap.Int("columns", len(table.Columns)),
			zap.Int("foreign_keys", len(table.ForeignKeys)),
		)
	}

	return &models.Database{
		Name:         cfg.Name,
		Host:         cfg.Host,
		Port:         cfg.Port,
		Tables:       tables,
		CharacterSet: info.CharacterSet,
		Collation:    info.Collation,
	}, nil
}
