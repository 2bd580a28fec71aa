// Package store owns the in-memory mirror of the upstream Request collection.
// The mutation controller is the only writer; every reader gets copies, never
// live references.
package store

import (
	"strings"
	"sync"

	"github.com/muni-digital/gestion-api/internal/models"
)

// Collection is an order-preserving, mutex-guarded request mirror.
type Collection struct {
	mu    sync.RWMutex
	order []string
	items map[string]models.Request
}

// NewCollection builds an empty collection.
func NewCollection() *Collection {
	return &Collection{items: make(map[string]models.Request)}
}

// Get returns a copy of the entity and whether it exists.
func (c *Collection) Get(id string) (models.Request, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return models.Request{}, false
	}
	return item.Clone(), true
}

// Replace atomically inserts or overwrites one entity's slot. Insertion order
// is preserved for existing entities.
func (c *Collection) Replace(entity models.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[entity.ID]; !ok {
		c.order = append(c.order, entity.ID)
	}
	c.items[entity.ID] = entity.Clone()
}

// ReplaceAll swaps the full mirror for a freshly fetched listing.
func (c *Collection) ReplaceAll(entities []models.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = make([]string, 0, len(entities))
	c.items = make(map[string]models.Request, len(entities))
	for _, entity := range entities {
		if _, ok := c.items[entity.ID]; ok {
			continue
		}
		c.order = append(c.order, entity.ID)
		c.items[entity.ID] = entity.Clone()
	}
}

// List returns matching entities in insertion order plus the unpaged total.
func (c *Collection) List(filter models.RequestFilter) ([]models.Request, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matched := make([]models.Request, 0, len(c.order))
	for _, id := range c.order {
		item := c.items[id]
		if filter.Type != "" && item.Type != filter.Type {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !matchesSearch(item, filter.Search) {
			continue
		}
		matched = append(matched, item.Clone())
	}

	total := len(matched)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start >= total {
			return []models.Request{}, total
		}
		end := start + filter.PageSize
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total
}

// Len reports the number of mirrored entities.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Reset empties the collection. Intended for test isolation.
func (c *Collection) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	c.items = make(map[string]models.Request)
}

func matchesSearch(item models.Request, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(item.ID), term) ||
		strings.Contains(strings.ToLower(item.Description), term) ||
		strings.Contains(strings.ToLower(item.Address), term) ||
		strings.Contains(strings.ToLower(item.CategoryRef), term)
}
