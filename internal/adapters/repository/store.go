// Package repository persists the records of prior generations.
package repository

import (
	"context"

	"github.com/okian/recapdeck/internal/domain/model"
)

// Store provides read/write access to batch records.
type Store interface {
	// List returns every record in insertion order. Read failures yield an
	// empty list, never an error.
	List(ctx context.Context) []model.BatchRecord

	// Get returns the most recent record named name.
	// Returns ErrNotFound if no record carries that name.
	Get(ctx context.Context, name string) (model.BatchRecord, error)

	// Append adds a record and persists the list.
	Append(ctx context.Context, rec model.BatchRecord) error

	// Count returns the number of stored records.
	Count(ctx context.Context) int
}
