package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ontology-mapper/internal/models"
)

func sampleOntology() *models.Ontology {
	charset := "utf8mb4"
	o := models.NewOntology()
	o.Databases = append(o.Databases, models.Database{
		Name:         "commerce",
		Host:         "db1.internal",
		Port:         3306,
		CharacterSet: &charset,
		Tables: []models.Table{
			{
				Name:      "orders",
				TableType: "BASE TABLE",
				Columns: []models.Column{
					{Name: "id", DataType: "bigint"},
				},
				Indexes:           []models.Index{},
				ForeignKeys:       []models.ForeignKey{},
				PrimaryKeyColumns: []string{"id"},
			},
		},
	})
	o.Metadata = models.Metadata{ExtractionDate: "2026-08-28T12:00:00Z", DatabaseCount: 1}
	return o
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ontology.json")

	original := sampleOntology()
	require.NoError(t, Save(original, path), "Save must create the parent directory")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded, "round-trip must reproduce the exact entity graph")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "  \"databases\"", "document is pretty-printed")
	assert.Contains(t, string(data), "\"collation\": null", "absent fields serialize as explicit null")
}

func TestLoadMissingDocument(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "ontology.json"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ontology.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	require.NotErrorIs(t, err, ErrNotFound, "corrupt and missing must stay distinct")

	var corrupt *CorruptError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, path, corrupt.Path)
}

func TestStoreCachesUntilReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ontology.json")
	require.NoError(t, Save(sampleOntology(), path))

	store := NewStore(path, zap.NewNop())

	doc, err := store.Get()
	require.NoError(t, err)
	require.Len(t, doc.Databases, 1)

	// Replace the file on disk; the cached document must survive until an
	// explicit reload.
	updated := sampleOntology()
	updated.Databases = append(updated.Databases, models.Database{Name: "crm", Host: "db2.internal", Port: 3306})
	require.NoError(t, Save(updated, path))

	cached, err := store.Get()
	require.NoError(t, err)
	assert.Len(t, cached.Databases, 1)

	reloaded, err := store.Reload()
	require.NoError(t, err)
	assert.Len(t, reloaded.Databases, 2)

	fresh, err := store.Get()
	require.NoError(t, err)
	assert.Len(t, fresh.Databases, 2)
}

func TestStoreGetMissingDocument(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "ontology.json"), zap.NewNop())

	_, err := store.Get()
	require.ErrorIs(t, err, ErrNotFound)
}
