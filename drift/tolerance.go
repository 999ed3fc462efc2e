package drift

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-drift/ledger"
)

const defaultTolerance = 5

// DefaultTolerance returns the tolerance used when the caller gives none.
func DefaultTolerance() decimal.Decimal {
	return decimal.NewFromInt(defaultTolerance)
}

// ClampTolerance returns 0 for negative tolerances.
func ClampTolerance(tolerance decimal.Decimal) decimal.Decimal {
	if tolerance.IsNegative() {
		return decimal.Zero
	}
	return tolerance
}

// ParseTolerance reads a user-supplied tolerance. An empty input returns
// fallback; non-numeric, out-of-range or negative input returns 0.
func ParseTolerance(s string, fallback decimal.Decimal) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return ClampTolerance(fallback)
	}
	d, ok := ledger.ParseDecimal(s)
	if !ok {
		return decimal.Zero
	}
	return ClampTolerance(d)
}
