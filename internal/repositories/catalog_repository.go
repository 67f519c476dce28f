package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"ontology-mapper/internal/models"
	"ontology-mapper/internal/utils"
)

// queryTimeout bounds each catalog round trip.
const queryTimeout = 10 * time.Second

// CatalogRepository reads schema metadata from one server's
// information_schema. It never retries; a failed query propagates to the
// caller as an extraction failure.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// SchemaInfo is the database-level character set and collation. Both fields
// are nil when the catalog has no row for the schema.
type SchemaInfo struct {
	CharacterSet *string
	Collation    *string
}

type tableRow struct {
	Name        string         `db:"TABLE_NAME"`
	TableType   string         `db:"TABLE_TYPE"`
	Engine      sql.NullString `db:"ENGINE"`
	TableRows   sql.NullInt64  `db:"TABLE_ROWS"`
	DataLength  sql.NullInt64  `db:"DATA_LENGTH"`
	IndexLength sql.NullInt64  `db:"INDEX_LENGTH"`
	Comment     sql.NullString `db:"TABLE_COMMENT"`
}

// GetTables returns every table and view of the schema ordered by name.
// Column, index and constraint lists are filled in by the assembler.
func (r *CatalogRepository) GetTables(ctx context.Context, schema string) ([]models.Table, error) {
	query := `
		SELECT TABLE_NAME, TABLE_TYPE, ENGINE, TABLE_ROWS, DATA_LENGTH, INDEX_LENGTH, TABLE_COMMENT
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME
	`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []tableRow
	if err := r.db.SelectContext(ctx, &rows, query, schema); err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}

	tables := make([]models.Table, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, models.Table{
			Name:         row.Name,
			TableType:    row.TableType,
			Engine:       utils.StringPtr(row.Engine),
			RowCount:     utils.Int64Ptr(row.TableRows),
			DataLength:   utils.Int64Ptr(row.DataLength),
			IndexLength:  utils.Int64Ptr(row.IndexLength),
			TableComment: utils.NonEmptyStringPtr(row.Comment),
		})
	}
	return tables, nil
}

type columnRow struct {
	Name             string         `db:"COLUMN_NAME"`
	DataType         string         `db:"DATA_TYPE"`
	IsNullable       string         `db:"IS_NULLABLE"`
	Default          sql.NullString `db:"COLUMN_DEFAULT"`
	CharMaxLength    sql.NullInt64  `db:"CHARACTER_MAXIMUM_LENGTH"`
	NumericPrecision sql.NullInt64  `db:"NUMERIC_PRECISION"`
	NumericScale     sql.NullInt64  `db:"NUMERIC_SCALE"`
	ColumnKey        sql.NullString `db:"COLUMN_KEY"`
	Extra            sql.NullString `db:"EXTRA"`
	Comment          sql.NullString `db:"COLUMN_COMMENT"`
}

// GetColumns returns the table's columns ordered by ordinal position.
// Empty-string key/extra/comment values are reported as absent; an empty
// default is kept, DEFAULT '' is a real default.
func (r *CatalogRepository) GetColumns(ctx context.Context, schema, table string) ([]models.Column, error) {
	query := `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, COLUMN_DEFAULT,
			CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION, NUMERIC_SCALE,
			COLUMN_KEY, EXTRA, COLUMN_COMMENT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []columnRow
	if err := r.db.SelectContext(ctx, &rows, query, schema, table); err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}

	columns := make([]models.Column, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, models.Column{
			Name:                   row.Name,
			DataType:               row.DataType,
			IsNullable:             row.IsNullable == "YES",
			DefaultValue:           utils.StringPtr(row.Default),
			CharacterMaximumLength: utils.Int64Ptr(row.CharMaxLength),
			NumericPrecision:       utils.Int64Ptr(row.NumericPrecision),
			NumericScale:           utils.Int64Ptr(row.NumericScale),
			ColumnKey:              utils.NonEmptyStringPtr(row.ColumnKey),
			Extra:                  utils.NonEmptyStringPtr(row.Extra),
			ColumnComment:          utils.NonEmptyStringPtr(row.Comment),
		})
	}
	return columns, nil
}

type indexRow struct {
	Name      string `db:"INDEX_NAME"`
	Columns   string `db:"COLUMNS"`
	NonUnique int64  `db:"NON_UNIQUE"`
	IndexType string `db:"INDEX_TYPE"`
}

// GetIndexes returns the table's secondary indexes. Rows are grouped per
// index with columns concatenated in sequence order; an index is unique
// only when every member row is. The PRIMARY group is excluded, its
// columns come from GetPrimaryKey.
func (r *CatalogRepository) GetIndexes(ctx context.Context, schema, table string) ([]models.Index, error) {
	query := `
		SELECT INDEX_NAME,
			GROUP_CONCAT(COLUMN_NAME ORDER BY SEQ_IN_INDEX SEPARATOR ',') AS COLUMNS,
			MAX(NON_UNIQUE) AS NON_UNIQUE,
			INDEX_TYPE
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND INDEX_NAME != 'PRIMARY'
		GROUP BY INDEX_NAME, INDEX_TYPE
	`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []indexRow
	if err := r.db.SelectContext(ctx, &rows, query, schema, table); err != nil {
		return nil, fmt.Errorf("query indexes: %w", err)
	}

	indexes := make([]models.Index, 0, len(rows))
	for _, row := range rows {
		indexes = append(indexes, models.Index{
			Name:        row.Name,
			ColumnNames: strings.Split(row.Columns, ","),
			IsUnique:    row.NonUnique == 0,
			IndexType:   row.IndexType,
		})
	}
	return indexes, nil
}

// GetPrimaryKey returns the table's primary key column names in key order.
// Tables without a primary key yield an empty list.
func (r *CatalogRepository) GetPrimaryKey(ctx context.Context, schema, table string) ([]string, error) {
	query := `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND INDEX_NAME = 'PRIMARY'
		ORDER BY SEQ_IN_INDEX
	`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	columns := make([]string, 0, 2)
	if err := r.db.SelectContext(ctx, &columns, query, schema, table); err != nil {
		return nil, fmt.Errorf("query primary key: %w", err)
	}
	return columns, nil
}

type foreignKeyRow struct {
	ConstraintName   string `db:"CONSTRAINT_NAME"`
	ColumnName       string `db:"COLUMN_NAME"`
	ReferencedSchema string `db:"REFERENCED_TABLE_SCHEMA"`
	ReferencedTable  string `db:"REFERENCED_TABLE_NAME"`
	ReferencedColumn string `db:"REFERENCED_COLUMN_NAME"`
	UpdateRule       string `db:"UPDATE_RULE"`
	DeleteRule       string `db:"DELETE_RULE"`
}

// GetForeignKeys returns one row per constraint column. Constraints without
// a referential-constraints entry report NO ACTION for both rules.
func (r *CatalogRepository) GetForeignKeys(ctx context.Context, schema, table string) ([]models.ForeignKey, error) {
	query := `
		SELECT kcu.CONSTRAINT_NAME, kcu.COLUMN_NAME,
			kcu.REFERENCED_TABLE_SCHEMA, kcu.REFERENCED_TABLE_NAME, kcu.REFERENCED_COLUMN_NAME,
			COALESCE(rc.UPDATE_RULE, 'NO ACTION') AS UPDATE_RULE,
			COALESCE(rc.DELETE_RULE, 'NO ACTION') AS DELETE_RULE
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		LEFT JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
			ON kcu.CONSTRAINT_NAME = rc.CONSTRAINT_NAME
			AND kcu.TABLE_SCHEMA = rc.CONSTRAINT_SCHEMA
		WHERE kcu.TABLE_SCHEMA = ? AND kcu.TABLE_NAME = ?
			AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.ORDINAL_POSITION
	`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []foreignKeyRow
	if err := r.db.SelectContext(ctx, &rows, query, schema, table); err != nil {
		return nil, fmt.Errorf("query foreign keys: %w", err)
	}

	keys := make([]models.ForeignKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, models.ForeignKey{
			ConstraintName:        row.ConstraintName,
			ColumnName:            row.ColumnName,
			ReferencedTableSchema: row.ReferencedSchema,
			ReferencedTableName:   row.ReferencedTable,
			ReferencedColumnName:  row.ReferencedColumn,
			UpdateRule:            row.UpdateRule,
			DeleteRule:            row.DeleteRule,
		})
	}
	return keys, nil
}

type schemaRow struct {
	CharacterSet sql.NullString `db:"DEFAULT_CHARACTER_SET_NAME"`
	Collation    sql.NullString `db:"DEFAULT_COLLATION_NAME"`
}

// GetSchemaInfo returns the schema's default character set and collation.
// A schema without a catalog row is not an error, both fields come back
// absent.
func (r *CatalogRepository) GetSchemaInfo(ctx context.Context, schema string) (SchemaInfo, error) {
	query := `
		SELECT DEFAULT_CHARACTER_SET_NAME, DEFAULT_COLLATION_NAME
		FROM INFORMATION_SCHEMA.SCHEMATA
		WHERE SCHEMA_NAME = ?
	`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var row schemaRow
	if err := r.db.GetContext(ctx, &row, query, schema); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SchemaInfo{}, nil
		}
		return SchemaInfo{}, fmt.Errorf("query schema info: %w", err)
	}

	return SchemaInfo{
		CharacterSet: utils.NonEmptyStringPtr(row.CharacterSet),
		Collation:    utils.NonEmptyStringPtr(row.Collation),
	}, nil
}

// ListDatabases returns every schema name the connected account can see.
func (r *CatalogRepository) ListDatabases(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var names []string
	if err := r.db.SelectContext(ctx, &names, "SHOW DATABASES"); err != nil {
		return nil, fmt.Errorf("list databases: %w", err)
	}
	return names, nil
}
