/*
Package ledger defines the inputs of the drift reconciliation engine.

PURPOSE:
  Two independently captured collections describe every account:
  - Event:    a point-balance delta recorded in the per-account ledger
  - Snapshot: a balance captured by another system at some point

  The engine replays events into a balance and compares it against the
  snapshot. This package only models the inputs; it computes nothing.

KEY CONCEPTS IN THIS FILE (types.go):
  - Points:   a decimal quantity decoded with total, lossy coercion
  - Event:    immutable ledger entry (account, timestamp, delta)
  - Snapshot: externally reported balance for one account

COERCION POLICY:
  Ledger documents are produced by other systems and are not trusted to be
  well-typed. Decoding never fails on a malformed value:

    number          -> exact decimal
    "12.5"          -> 12.5 (trimmed string parsed as decimal)
    "0x10", "0b11"  -> 16, 3 (radix prefixes 0x, 0o, 0b)
    "", "abc"       -> 0
    true / false    -> 1 / 0
    [5], ["7"]      -> 5, 7 (one element converts as its text)
    null, {}, []    -> 0
    [1,2], [true]   -> 0
    missing field   -> 0

  Decimals have no infinity, so "Infinity" and any value whose exponent
  exceeds +/-1000 (1e5000, "1e-2000") are not numbers and count as 0.

  The raw JSON is kept so the original value can be shown next to the
  coerced one.

SEE ALSO:
  - time.go:   timestamp parsing
  - source.go: where the collections come from
  - drift/:    the reconciliation engine
*/
package ledger

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POINTS - Decimal quantity with lossy decoding
// =============================================================================

type Points struct {
	Value decimal.Decimal

	raw   json.RawMessage
	valid bool
}

func NewPoints(value float64) Points {
	return Points{Value: decimal.NewFromFloat(value), valid: true}
}

func NewPointsFromInt(value int64) Points {
	return Points{Value: decimal.NewFromInt(value), valid: true}
}

// PointsFromRaw decodes a raw JSON value with the coercion policy.
// A nil or empty input is treated as a missing field.
func PointsFromRaw(raw []byte) Points {
	var p Points
	if len(bytes.TrimSpace(raw)) == 0 {
		return p
	}
	_ = p.UnmarshalJSON(raw)
	return p
}

// UnmarshalJSON never returns an error; see the coercion policy above.
func (p *Points) UnmarshalJSON(b []byte) error {
	p.raw = append(json.RawMessage(nil), b...)
	p.Value, p.valid = coerce(b)
	return nil
}

// MarshalJSON writes the coerced value as a bare JSON number.
func (p Points) MarshalJSON() ([]byte, error) {
	return []byte(p.Value.String()), nil
}

// Raw returns the JSON the value was decoded from, or nil when the value was
// built in code or the field was missing.
func (p Points) Raw() json.RawMessage { return p.raw }

// Valid reports whether the value was a JSON number (or built in code), i.e.
// no coercion was needed.
func (p Points) Valid() bool { return p.valid }

func (p Points) IsZero() bool { return p.Value.IsZero() }

func (p Points) String() string { return p.Value.String() }

// maxExponent bounds the decimal exponent of a numeric value. Adding a value
// rescales both operands to the smaller exponent, so 1e50000000 would build
// a fifty-million-digit integer.
const maxExponent = 1000

func coerce(b []byte) (decimal.Decimal, bool) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return decimal.Zero, false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return decimal.Zero, false
		}
		return coerceString(s), false
	case 't':
		if bytes.Equal(trimmed, []byte("true")) {
			return decimal.NewFromInt(1), false
		}
		return decimal.Zero, false
	case '[':
		return coerceArray(trimmed), false
	case 'f', 'n', '{':
		return decimal.Zero, false
	}

	d, ok := ParseDecimal(string(trimmed))
	return d, ok
}

// coerceString parses text the way a numeric conversion of a string does:
// trimmed, empty is 0, 0x/0o/0b prefixes select a radix.
func coerceString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			digits := s[2:]
			if digits[0] == '+' || digits[0] == '-' {
				return decimal.Zero
			}
			n, ok := new(big.Int).SetString(digits, base)
			if !ok || n.BitLen() > maxRadixBits {
				return decimal.Zero
			}
			return decimal.NewFromBigInt(n, 0)
		}
	}
	d, _ := ParseDecimal(s)
	return d
}

// maxRadixBits keeps radix literals within the range of a float64.
const maxRadixBits = 1024

// coerceArray converts an array through its text form: [] is 0, a single
// element converts as its own text, anything longer is not a number.
func coerceArray(b []byte) decimal.Decimal {
	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return decimal.Zero
	}
	switch len(items) {
	case 0:
		return decimal.Zero
	case 1:
		item := bytes.TrimSpace(items[0])
		if len(item) == 0 {
			return decimal.Zero
		}
		switch item[0] {
		case '"':
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return decimal.Zero
			}
			return coerceString(s)
		case '[':
			return coerceArray(item)
		case 't', 'f', 'n', '{':
			// "true", "false" and "[object Object]" are not numbers; null is ""
			return decimal.Zero
		}
		d, _ := ParseDecimal(string(item))
		return d
	}
	return decimal.Zero
}

// parseDecimal parses a decimal literal. Values with an exponent beyond
// maxExponent are treated as not numeric.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, false
	}
	return d, true
}

// =============================================================================
// EVENT - One ledger entry
// =============================================================================

// Event is a single point-balance delta for an account. Events carry no
// identity; several events for the same account and instant are expected.
type Event struct {
	AccountID   string `json:"account_id"`
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
	PointsDelta Points `json:"points_delta"`
	Description string `json:"description"`
}

// UnmarshalJSON accepts any JSON object. Text fields holding numbers or
// booleans keep their literal text; null or missing fields become "".
func (e *Event) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*e = Event{
		AccountID:   text(fields["account_id"]),
		Timestamp:   text(fields["timestamp"]),
		Type:        text(fields["type"]),
		PointsDelta: PointsFromRaw(fields["points_delta"]),
		Description: text(fields["description"]),
	}
	return nil
}

// =============================================================================
// SNAPSHOT - Externally captured balance
// =============================================================================

// Snapshot is the balance another system reports for an account. Only one
// snapshot per account is meaningful; when a collection repeats an account
// the later entry wins.
type Snapshot struct {
	AccountID       string `json:"account_id"`
	SnapshotBalance Points `json:"snapshot_balance"`
}

func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*s = Snapshot{
		AccountID:       text(fields["account_id"]),
		SnapshotBalance: PointsFromRaw(fields["snapshot_balance"]),
	}
	return nil
}

// text renders a scalar JSON value as a string. Objects and arrays keep
// their compact JSON form.
func text(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}
