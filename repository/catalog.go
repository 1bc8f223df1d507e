package repository

import (
	"context"
	"fmt"

	"github.com/berajelin/routia/models"
)

// LineLoader is any source of the reference dataset
type LineLoader interface {
	LoadLines(ctx context.Context) ([]models.Line, error)
}

// Catalog is the immutable in-memory snapshot of the reference dataset.
// It is safe for concurrent use.
type Catalog struct {
	order []string
	lines map[string]models.Line
}

// NewCatalog builds a catalog from lines, keeping their order.
// A duplicated line code keeps the last occurrence in the first position.
func NewCatalog(lines []models.Line) *Catalog {
	c := &Catalog{
		order: make([]string, 0, len(lines)),
		lines: make(map[string]models.Line, len(lines)),
	}
	for _, l := range lines {
		if _, exists := c.lines[l.Code]; !exists {
			c.order = append(c.order, l.Code)
		}
		stops := make([]models.Stop, len(l.Stops))
		copy(stops, l.Stops)
		l.Stops = stops
		c.lines[l.Code] = l
	}
	return c
}

// LoadCatalog loads every line from loader into a new catalog
func LoadCatalog(ctx context.Context, loader LineLoader) (*Catalog, error) {
	lines, err := loader.LoadLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}
	return NewCatalog(lines), nil
}

// Get returns the line for code
func (c *Catalog) Get(code string) (models.Line, bool) {
	l, ok := c.lines[code]
	return l, ok
}

// Summaries lists the lines in catalog order
func (c *Catalog) Summaries() []models.LineSummary {
	out := make([]models.LineSummary, 0, len(c.order))
	for _, code := range c.order {
		l := c.lines[code]
		out = append(out, l.Summary())
	}
	return out
}

// Len returns the number of lines
func (c *Catalog) Len() int {
	return len(c.order)
}
