package repo

import (
	"context"

	"github.com/hamed0406/storecheck/internal/domain"
)

// ReportStore keeps the history of probe runs.
type ReportStore interface {
	Append(ctx context.Context, r *domain.Report) error
	// Latest returns nil, nil when no run has been stored yet.
	Latest(ctx context.Context) (*domain.Report, error)
	// Recent returns up to limit reports, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.Report, error)
}
