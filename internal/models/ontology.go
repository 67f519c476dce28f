package models

// RelationshipTypeForeignKey is the kind tag for relationships derived from
// foreign key constraints. It is the only relationship type produced today.
const RelationshipTypeForeignKey = "foreign_key"

// Column describes one column of a table. Optional fields are pointers so
// absent values serialize as explicit JSON null.
type Column struct {
	Name                   string  `json:"name"`
	DataType               string  `json:"data_type"`
	IsNullable             bool    `json:"is_nullable"`
	DefaultValue           *string `json:"default_value"`
	CharacterMaximumLength *int64  `json:"character_maximum_length"`
	NumericPrecision       *int64  `json:"numeric_precision"`
	NumericScale           *int64  `json:"numeric_scale"`
	ColumnKey              *string `json:"column_key"`
	Extra                  *string `json:"extra"`
	ColumnComment          *string `json:"column_comment"`
}

// Index describes one secondary index. The primary key is not listed here;
// its columns live in Table.PrimaryKeyColumns.
type Index struct {
	Name        string   `json:"name"`
	ColumnNames []string `json:"column_names"`
	IsUnique    bool     `json:"is_unique"`
	IndexType   string   `json:"index_type"`
}

// ForeignKey describes one column of a foreign key constraint. Composite
// constraints appear as multiple entries sharing a constraint name.
type ForeignKey struct {
	ConstraintName        string `json:"constraint_name"`
	ColumnName            string `json:"column_name"`
	ReferencedTableSchema string `json:"referenced_table_schema"`
	ReferencedTableName   string `json:"referenced_table_name"`
	ReferencedColumnName  string `json:"referenced_column_name"`
	UpdateRule            string `json:"update_rule"`
	DeleteRule            string `json:"delete_rule"`
}

// Table describes one table or view with its full column, index and
// constraint inventory. Size and engine fields are nil for views.
type Table struct {
	Name              string       `json:"name"`
	TableType         string       `json:"table_type"`
	Engine            *string      `json:"engine"`
	RowCount          *int64       `json:"row_count"`
	DataLength        *int64       `json:"data_length"`
	IndexLength       *int64       `json:"index_length"`
	TableComment      *string      `json:"table_comment"`
	Columns           []Column     `json:"columns"`
	Indexes           []Index      `json:"indexes"`
	ForeignKeys       []ForeignKey `json:"foreign_keys"`
	PrimaryKeyColumns []string     `json:"primary_key_columns"`
}

// Database is the extracted schema of one configured server.
type Database struct {
	Name         string  `json:"name"`
	Host         string  `json:"host"`
	Port         int     `json:"port"`
	Tables       []Table `json:"tables"`
	CharacterSet *string `json:"character_set"`
	Collation    *string `json:"collation"`
}

// Relationship is one derived edge between a foreign key column and the
// column it references. Targets are not guaranteed to exist in the ontology;
// a foreign key may point at a schema that was not configured.
type Relationship struct {
	SourceDatabase   string `json:"source_database"`
	SourceTable      string `json:"source_table"`
	SourceColumn     string `json:"source_column"`
	TargetDatabase   string `json:"target_database"`
	TargetTable      string `json:"target_table"`
	TargetColumn     string `json:"target_column"`
	ConstraintName   string `json:"constraint_name"`
	RelationshipType string `json:"relationship_type"`
}

// Metadata carries run-level annotations. DatabaseCount is the number of
// configured servers, which may exceed the number actually extracted.
type Metadata struct {
	ExtractionDate string `json:"extraction_date"`
	DatabaseCount  int    `json:"database_count"`
}

// Ontology is the root document: every extracted database plus the derived
// relationship list. It is built fresh per extraction run and read-only
// afterwards.
type Ontology struct {
	Databases     []Database     `json:"databases"`
	Relationships []Relationship `json:"relationships"`
	Metadata      Metadata       `json:"metadata"`
}

// NewOntology returns an empty document with initialized collections so
// they serialize as [] rather than null.
func NewOntology() *Ontology {
	return &Ontology{
		Databases:     make([]Database, 0),
		Relationships: make([]Relationship, 0),
	}
}

// GetDatabase returns the first database with the given name, or nil. When
// two servers expose the same schema name the first configured one wins;
// use FindDatabase to disambiguate by host.
func (o *Ontology) GetDatabase(name string) *Database {
	for i := range o.Databases {
		if o.Databases[i].Name == name {
			return &o.Databases[i]
		}
	}
	return nil
}

// FindDatabase returns the database with the given host and name, or nil.
func (o *Ontology) FindDatabase(host, name string) *Database {
	for i := range o.Databases {
		if o.Databases[i].Host == host && o.Databases[i].Name == name {
			return &o.Databases[i]
		}
	}
	return nil
}

// GetTable returns the named table of the named database, or nil when
// either is absent.
func (o *Ontology) GetTable(databaseName, tableName string) *Table {
	db := o.GetDatabase(databaseName)
	if db == nil {
		return nil
	}
	for i := range db.Tables {
		if db.Tables[i].Name == tableName {
			return &db.Tables[i]
		}
	}
	return nil
}
