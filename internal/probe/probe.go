package probe

import (
	"context"

	"github.com/hamed0406/storecheck/internal/domain"
)

// Runner performs one full probe sequence against a data store.
type Runner interface {
	Run(ctx context.Context) *domain.Report
}

// TableInspector answers whether the probe table exists without going
// through the REST layer (e.g. a direct Postgres connection).
type TableInspector interface {
	TableExists(ctx context.Context, table string) (bool, error)
}
