package drift

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/warp/ledger-drift/ledger"
)

// =============================================================================
// SUMMARIZE - Fleet-wide counts
// =============================================================================

// Summarize tallies statuses. With no accounts the result is OverallIdle,
// which callers must not confuse with OverallOK.
func Summarize(accounts []Account) Summary {
	s := Summary{Total: len(accounts)}
	for _, acc := range accounts {
		switch acc.Status {
		case StatusInBalance:
			s.InBalance++
		case StatusMinorDrift:
			s.MinorDrift++
		case StatusMaterialMismatch:
			s.MaterialMismatch++
		}
	}

	switch {
	case s.Total == 0:
		s.Overall = OverallIdle
	case s.MaterialMismatch > 0:
		s.Overall = OverallFail
	case s.MinorDrift > 0:
		s.Overall = OverallWarn
	default:
		s.Overall = OverallOK
	}
	return s
}

// Text is the one-line description of the summary.
func (s Summary) Text() string {
	if s.Overall == OverallIdle {
		return "No accounts found."
	}
	return fmt.Sprintf("%d accounts checked: %d in balance, %d with minor drift, %d with material mismatches.",
		s.Total, s.InBalance, s.MinorDrift, s.MaterialMismatch)
}

// =============================================================================
// FILTER - Presentation view over the reconciled set
// =============================================================================

// StatusFilter is a Status or StatusAll.
type StatusFilter string

const StatusAll StatusFilter = "all"

// ParseStatusFilter accepts "all", an empty string (same as "all") or one of
// the drift statuses.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch v := strings.TrimSpace(s); v {
	case "", string(StatusAll):
		return StatusAll, nil
	case string(StatusInBalance), string(StatusMinorDrift), string(StatusMaterialMismatch):
		return StatusFilter(v), nil
	default:
		return "", fmt.Errorf("%w: %q", ledger.ErrInvalidStatusFilter, s)
	}
}

func (f StatusFilter) matches(status Status) bool {
	return f == StatusAll || f == "" || Status(f) == status
}

// Filter returns the accounts whose id contains text (case-insensitive,
// surrounding whitespace ignored) and whose status matches. The result is a
// new slice in input order; the input is not modified.
func Filter(accounts []Account, text string, status StatusFilter) []Account {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(text))

	out := make([]Account, 0, len(accounts))
	for _, acc := range accounts {
		if !status.matches(acc.Status) {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(acc.AccountID), needle) {
			continue
		}
		out = append(out, acc)
	}
	return out
}

// Find returns the account with exactly the given id.
func Find(accounts []Account, accountID string) (Account, error) {
	for _, acc := range accounts {
		if acc.AccountID == accountID {
			return acc, nil
		}
	}
	return Account{}, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, accountID)
}
