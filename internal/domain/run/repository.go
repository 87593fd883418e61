package run

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for run history access
type Repository interface {
	Create(ctx context.Context, r *Run) error
	Update(ctx context.Context, r *Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRecent(ctx context.Context, ticker string, limit int) ([]Run, error)
}

// NoopRepository discards runs; used when Postgres is not configured
type NoopRepository struct{}

func (NoopRepository) Create(context.Context, *Run) error { return nil }
func (NoopRepository) Update(context.Context, *Run) error { return nil }

func (NoopRepository) GetByID(context.Context, uuid.UUID) (*Run, error) {
	return nil, ErrHistoryDisabled
}

func (NoopRepository) ListRecent(context.Context, string, int) ([]Run, error) {
	return nil, ErrHistoryDisabled
}
