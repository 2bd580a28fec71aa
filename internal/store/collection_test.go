package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muni-digital/gestion-api/internal/models"
)

func sampleRequest(id string, t models.RequestType, status models.Status) models.Request {
	return models.Request{ID: id, Type: t, Status: status, CategoryRef: "alumbrado"}
}

func TestCollectionReplacePreservesOrder(t *testing.T) {
	c := NewCollection()
	c.Replace(sampleRequest("r-1", models.TypeReclamo, models.StatusNuevo))
	c.Replace(sampleRequest("r-2", models.TypeReclamo, models.StatusRecibido))
	c.Replace(sampleRequest("t-1", models.TypeTramite, models.StatusIniciado))

	updated := sampleRequest("r-1", models.TypeReclamo, models.StatusRecibido)
	c.Replace(updated)

	items, total := c.List(models.RequestFilter{})
	require.Equal(t, 3, total)
	assert.Equal(t, "r-1", items[0].ID)
	assert.Equal(t, models.StatusRecibido, items[0].Status)
	assert.Equal(t, "t-1", items[2].ID)
}

func TestCollectionGetReturnsCopy(t *testing.T) {
	c := NewCollection()
	comment := "ver en sitio"
	c.Replace(models.Request{
		ID:         "r-1",
		Type:       models.TypeReclamo,
		Status:     models.StatusAsignado,
		Assignment: &models.Assignment{AssigneeID: "emp-7", Comment: comment},
	})

	got, ok := c.Get("r-1")
	require.True(t, ok)
	got.Assignment.Comment = "mutated"
	got.Status = models.StatusResuelto

	again, ok := c.Get("r-1")
	require.True(t, ok)
	assert.Equal(t, models.StatusAsignado, again.Status)
	assert.Equal(t, comment, again.Assignment.Comment)
}

func TestCollectionListFilters(t *testing.T) {
	c := NewCollection()
	c.Replace(sampleRequest("r-1", models.TypeReclamo, models.StatusNuevo))
	c.Replace(sampleRequest("r-2", models.TypeReclamo, models.StatusResuelto))
	c.Replace(sampleRequest("t-1", models.TypeTramite, models.StatusIniciado))

	items, total := c.List(models.RequestFilter{Type: models.TypeReclamo})
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	items, total = c.List(models.RequestFilter{Status: models.StatusIniciado})
	assert.Equal(t, 1, total)
	assert.Equal(t, "t-1", items[0].ID)

	items, total = c.List(models.RequestFilter{Page: 2, PageSize: 2})
	assert.Equal(t, 3, total)
	assert.Len(t, items, 1)
}

func TestCollectionReset(t *testing.T) {
	c := NewCollection()
	c.Replace(sampleRequest("r-1", models.TypeReclamo, models.StatusNuevo))
	require.Equal(t, 1, c.Len())

	c.Reset()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("r-1")
	assert.False(t, ok)
}
