package drift

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Run is a recorded reconciliation: the fleet summary at a point in time
// and the tolerance it was computed with. Per-account results are not
// kept; they are always recomputed from the ledger.
type Run struct {
	ID        string
	Tolerance decimal.Decimal
	Summary   Summary
	CreatedAt time.Time
}

// NewRun stamps a summary with a fresh id and the current time.
func NewRun(summary Summary, tolerance decimal.Decimal) Run {
	return Run{
		ID:        uuid.NewString(),
		Tolerance: ClampTolerance(tolerance),
		Summary:   summary,
		CreatedAt: time.Now().UTC(),
	}
}
