// Package repository keeps finished assessments until clients collect them.
package repository

import (
	"context"

	"github.com/okian/dyscreen/internal/domain/model"
)

// Store provides read/write access to finished assessments.
type Store interface {
	// Put stores an assessment, replacing any earlier one with the same id.
	Put(ctx context.Context, a model.Assessment) error

	// Get returns the assessment for a submission id.
	// Returns ErrNotFound if the id is unknown or was evicted.
	Get(ctx context.Context, submissionID string) (model.Assessment, error)

	// Len returns the number of stored assessments.
	Len(ctx context.Context) int
}
