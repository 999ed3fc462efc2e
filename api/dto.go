/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Response: Complex response wrappers

NUMBERS:
  Balances and diffs are exact decimals written as bare JSON numbers.
  points_delta echoes the raw value from the ledger document, so a client
  sees "oops" where the engine counted 0; delta is what was counted.

TYPES:
  Reconciliation:
    ReconciliationResponse, SummaryDTO, AccountDTO

  Account detail:
    AccountDetailDTO, EventDTO

  Runs:
    RunDTO

  Errors:
    ErrorResponse

SEE ALSO:
  - handlers.go: Uses these types
  - drift/detail.go: Labels and narrative text
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/ledger-drift/drift"
	"github.com/warp/ledger-drift/ledger"
)

// =============================================================================
// RECONCILIATION
// =============================================================================

// SummaryDTO is the fleet summary.
type SummaryDTO struct {
	Total            int    `json:"total"`
	InBalance        int    `json:"in_balance"`
	MinorDrift       int    `json:"minor_drift"`
	MaterialMismatch int    `json:"material_mismatch"`
	Overall          string `json:"overall"`
	OverallLabel     string `json:"overall_label"`
	Text             string `json:"text"`
}

// AccountDTO is one row of the reconciliation table.
type AccountDTO struct {
	AccountID       string      `json:"account_id"`
	SnapshotBalance json.Number `json:"snapshot_balance"`
	ComputedBalance json.Number `json:"computed_balance"`
	Diff            json.Number `json:"diff"`
	DiffText        string      `json:"diff_text"`
	Status          string      `json:"status"`
	StatusLabel     string      `json:"status_label"`
	HasSnapshot     bool        `json:"has_snapshot"`
	EventCount      int         `json:"event_count"`
}

// ReconciliationResponse is the dashboard payload. Accounts is the filtered
// view; Summary always covers the full reconciled set.
type ReconciliationResponse struct {
	Tolerance json.Number  `json:"tolerance"`
	Summary   SummaryDTO   `json:"summary"`
	Accounts  []AccountDTO `json:"accounts"`
}

// =============================================================================
// ACCOUNT DETAIL
// =============================================================================

// EventDTO is a ledger event with its running balance.
type EventDTO struct {
	AccountID      string          `json:"account_id"`
	Timestamp      string          `json:"timestamp"`
	Type           string          `json:"type"`
	PointsDelta    json.RawMessage `json:"points_delta"`
	Description    string          `json:"description"`
	Delta          json.Number     `json:"delta"`
	RunningBalance json.Number     `json:"running_balance"`
}

// AccountDetailDTO is the drill-down for one account.
type AccountDetailDTO struct {
	AccountDTO
	Headline  string     `json:"headline"`
	Narrative string     `json:"narrative"`
	Events    []EventDTO `json:"events"`
}

// =============================================================================
// RUNS
// =============================================================================

// RunDTO is a recorded reconciliation run.
type RunDTO struct {
	ID        string      `json:"id"`
	Tolerance json.Number `json:"tolerance"`
	Summary   SummaryDTO  `json:"summary"`
	CreatedAt string      `json:"created_at"`
}

// =============================================================================
// IMPORTS AND ERRORS
// =============================================================================

// ImportResponse reports how many records were appended.
type ImportResponse struct {
	Imported int `json:"imported"`
}

// ErrorResponse is the body of every non-2xx response. Overall is set to
// "unavailable" when the ledger data could not be loaded.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Overall string `json:"overall,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// Number writes a decimal as a bare JSON number.
func Number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func ToSummaryDTO(s drift.Summary) SummaryDTO {
	return SummaryDTO{
		Total:            s.Total,
		InBalance:        s.InBalance,
		MinorDrift:       s.MinorDrift,
		MaterialMismatch: s.MaterialMismatch,
		Overall:          string(s.Overall),
		OverallLabel:     s.Overall.Label(),
		Text:             s.Text(),
	}
}

func ToAccountDTO(acc drift.Account) AccountDTO {
	return AccountDTO{
		AccountID:       acc.AccountID,
		SnapshotBalance: Number(acc.SnapshotBalance),
		ComputedBalance: Number(acc.ComputedBalance),
		Diff:            Number(acc.Diff),
		DiffText:        drift.FormatDiff(acc.Diff),
		Status:          string(acc.Status),
		StatusLabel:     acc.Status.Label(),
		HasSnapshot:     acc.HasSnapshot,
		EventCount:      len(acc.Events),
	}
}

func ToAccountDTOs(accounts []drift.Account) []AccountDTO {
	dtos := make([]AccountDTO, len(accounts))
	for i, acc := range accounts {
		dtos[i] = ToAccountDTO(acc)
	}
	return dtos
}

func ToAccountDetailDTO(acc drift.Account) AccountDetailDTO {
	detail := drift.Describe(acc)

	events := make([]EventDTO, len(acc.Events))
	for i, e := range acc.Events {
		events[i] = EventDTO{
			AccountID:      e.AccountID,
			Timestamp:      e.Timestamp,
			Type:           e.Type,
			PointsDelta:    rawPoints(e.PointsDelta),
			Description:    e.Description,
			Delta:          Number(e.Delta),
			RunningBalance: Number(e.RunningBalance),
		}
	}

	return AccountDetailDTO{
		AccountDTO: ToAccountDTO(acc),
		Headline:   detail.Headline,
		Narrative:  detail.Narrative,
		Events:     events,
	}
}

// rawPoints echoes the original JSON value, or null when the field was
// missing.
func rawPoints(p ledger.Points) json.RawMessage {
	if raw := p.Raw(); len(raw) > 0 {
		return raw
	}
	if p.Valid() {
		return json.RawMessage(p.Value.String())
	}
	return json.RawMessage("null")
}

func ToRunDTO(run drift.Run) RunDTO {
	return RunDTO{
		ID:        run.ID,
		Tolerance: Number(run.Tolerance),
		Summary:   ToSummaryDTO(run.Summary),
		CreatedAt: run.CreatedAt.UTC().Format(time.RFC3339),
	}
}
