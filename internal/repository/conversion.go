package repository

import (
	"context"

	"storyforge/internal/model"
)

// ConversionRepository persists conversion history records.
// No business logic here; strictly persistence operations.
type ConversionRepository interface {
	// Create inserts a new conversion record and returns the stored row.
	Create(ctx context.Context, c *model.Conversion) (*model.Conversion, error)

	// FindByID returns a conversion by its ID. Missing rows yield sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Conversion, error)

	// List returns a page of conversions, newest first, and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Conversion], error)

	// Delete removes a conversion by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
