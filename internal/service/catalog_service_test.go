package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-signal-board/internal/models"
)

func TestCatalogListOrderedByPriority(t *testing.T) {
	catalog := NewCatalogService(nil, true)
	list := catalog.List()
	require.Len(t, list, 6)

	types := make([]string, len(list))
	for i, def := range list {
		types[i] = def.Type
	}
	assert.Equal(t, []string{"urgent", "needHelp", "notFeelingWell", "restroom", "didntUnderstand", "understood"}, types)

	list[0].Message = "changed"
	def, _ := catalog.Lookup("urgent")
	assert.Equal(t, "Urgent!", def.Message)
}

func TestCatalogLookup(t *testing.T) {
	catalog := NewCatalogService(nil, true)
	def, ok := catalog.Lookup("notFeelingWell")
	require.True(t, ok)
	assert.Equal(t, "🤒", def.Icon)
	assert.Equal(t, 3, def.Priority)
	assert.Equal(t, models.CategoryRequest, def.Category)

	_, ok = catalog.Lookup("Urgent")
	assert.False(t, ok)
}

func TestCatalogAckOnlyWithUrgentException(t *testing.T) {
	catalog := NewCatalogService(nil, true)
	assert.True(t, catalog.AckOnly("urgent"))
	assert.True(t, catalog.AckOnly("needHelp"))
	assert.False(t, catalog.AckOnly("notFeelingWell"))
	assert.False(t, catalog.AckOnly("restroom"))
	assert.True(t, catalog.AckOnly("didntUnderstand"))
	assert.True(t, catalog.AckOnly("understood"))
}

func TestCatalogAckOnlyWithoutUrgentException(t *testing.T) {
	catalog := NewCatalogService(nil, false)
	assert.False(t, catalog.AckOnly("urgent"))
	assert.False(t, catalog.AckOnly("needHelp"))
	assert.True(t, catalog.AckOnly("understood"))
}

func TestCatalogActionsFor(t *testing.T) {
	catalog := NewCatalogService(nil, false)
	assert.Equal(t, []string{"accept", "reject"}, catalog.ActionsFor(models.RequestRecord{Type: "urgent", Category: models.CategoryRequest}))
	assert.Equal(t, []string{"seen"}, catalog.ActionsFor(models.RequestRecord{Type: "understood", Category: models.CategoryStatus}))
	assert.Equal(t, []string{"seen"}, catalog.ActionsFor(models.RequestRecord{Type: "legacy", Category: models.CategoryStatus}))
	assert.Equal(t, []string{"accept", "reject"}, catalog.ActionsFor(models.RequestRecord{Type: "legacy", Category: models.CategoryRequest}))
}
