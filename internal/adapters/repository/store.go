// Package repository stores imported datasets.
package repository

import (
	"context"

	"github.com/okian/hirepulse/internal/domain/model"
)

// Store provides read/write access to imported datasets. Datasets returned by
// Get share their collections with the store and must be treated as read-only.
type Store interface {
	// Put saves ds, assigning an ID and import time when they are unset.
	// An existing dataset with the same ID is replaced.
	Put(ctx context.Context, ds *model.Dataset) error

	// Get returns the dataset with id or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Dataset, error)

	// List returns summaries ordered by import time, oldest first.
	List(ctx context.Context) ([]model.DatasetSummary, error)

	// Delete removes the dataset with id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored datasets.
	Count(ctx context.Context) int

	// Close releases any resources held by the store.
	Close() error
}
