package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pharmstock/internal/core/entity"
	"pharmstock/internal/core/id"
)

type testCatalog struct {
	entity.BaseCatalog
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

type testAudited struct {
	entity.AuditedEntity
	BatchNumber string `db:"batch_number" json:"batchNumber"`
	Internal    string `db:"-" json:"-"`
}

func TestExtractDBColumns_EmbeddedFields(t *testing.T) {
	cols := ExtractDBColumns[testCatalog]()

	expectedCols := []string{"id", "deletion_mark", "version", "code", "name"}
	for _, expected := range expectedCols {
		assert.Contains(t, cols, expected)
	}
	assert.Len(t, cols, len(expectedCols))
}

func TestExtractDBColumns_SkipsIgnoredFields(t *testing.T) {
	cols := ExtractDBColumns[testAudited]()

	assert.Contains(t, cols, "batch_number")
	assert.Contains(t, cols, "created_at")
	assert.Contains(t, cols, "updated_at")
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "Internal")
}

func TestStructToMap_EmbeddedFields(t *testing.T) {
	cat := testCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
		},
		Code: "MED-0001",
		Name: "Paracetamol 500mg",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "MED-0001", m["code"])
	assert.Equal(t, "Paracetamol 500mg", m["name"])
}

func TestStructToMap_AuditedEntity(t *testing.T) {
	now := time.Now().UTC()
	b := testAudited{
		AuditedEntity: entity.AuditedEntity{
			BaseEntity: entity.NewBaseEntity(),
			CreatedAt:  now,
			UpdatedAt:  now,
			CreatedBy:  "pharmacist-1",
		},
		BatchNumber: "PCM-2026-114",
		Internal:    "not persisted",
	}

	m := StructToMap(&b)

	assert.Equal(t, now, m["created_at"])
	assert.Equal(t, "pharmacist-1", m["created_by"])
	assert.Equal(t, "PCM-2026-114", m["batch_number"])
	_, hasIgnored := m["-"]
	assert.False(t, hasIgnored)
}
