package ledger_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-drift/ledger"
)

// =============================================================================
// POINTS COERCION
// =============================================================================

func TestPoints_UnmarshalJSON_Coercion(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      string
		wantValid bool
	}{
		{name: "integer", raw: `100`, want: "100", wantValid: true},
		{name: "negative", raw: `-20`, want: "-20", wantValid: true},
		{name: "fraction", raw: `12.5`, want: "12.5", wantValid: true},
		{name: "exponent", raw: `1e3`, want: "1000", wantValid: true},
		{name: "numeric string", raw: `"42"`, want: "42"},
		{name: "padded numeric string", raw: `"  7 "`, want: "7"},
		{name: "empty string", raw: `""`, want: "0"},
		{name: "garbage string", raw: `"abc"`, want: "0"},
		{name: "true", raw: `true`, want: "1"},
		{name: "false", raw: `false`, want: "0"},
		{name: "null", raw: `null`, want: "0"},
		{name: "object", raw: `{"v":1}`, want: "0"},
		{name: "single element array", raw: `[5]`, want: "5"},
		{name: "single string element array", raw: `[" 7 "]`, want: "7"},
		{name: "nested single element array", raw: `[[2.5]]`, want: "2.5"},
		{name: "empty array", raw: `[]`, want: "0"},
		{name: "multi element array", raw: `[1,2]`, want: "0"},
		{name: "boolean element array", raw: `[true]`, want: "0"},
		{name: "hex string", raw: `"0x10"`, want: "16"},
		{name: "octal string", raw: `"0o17"`, want: "15"},
		{name: "binary string", raw: `"0b101"`, want: "5"},
		{name: "negative hex string", raw: `"-0x10"`, want: "0"},
		{name: "bad hex digits", raw: `"0xZZ"`, want: "0"},
		{name: "signed hex digits", raw: `"0x-10"`, want: "0"},
		{name: "infinity string", raw: `"Infinity"`, want: "0"},
		{name: "exponent at bound", raw: `2e1000`, want: "2e1000", wantValid: true},
		{name: "huge exponent", raw: `1e50000000`, want: "0"},
		{name: "huge negative exponent", raw: `1e-50000000`, want: "0"},
		{name: "huge exponent string", raw: `"1e50000000"`, want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ledger.Points
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))

			assert.True(t, p.Value.Equal(decimal.RequireFromString(tt.want)), "got %s", p.Value)
			assert.Equal(t, tt.wantValid, p.Valid())
			assert.Equal(t, tt.raw, string(p.Raw()))
		})
	}
}

func TestEvent_DecodeMalformedRecord(t *testing.T) {
	// GIVEN: a record with a numeric id, a numeric type and no delta
	raw := `{"account_id":123,"timestamp":"nope","type":7,"description":null}`

	// WHEN: decoding into an Event
	var evt ledger.Event
	require.NoError(t, json.Unmarshal([]byte(raw), &evt))

	// THEN: text fields keep their literal text and the delta coerces to 0
	assert.Equal(t, "123", evt.AccountID)
	assert.Equal(t, "nope", evt.Timestamp)
	assert.Equal(t, "7", evt.Type)
	assert.Equal(t, "", evt.Description)
	assert.True(t, evt.PointsDelta.IsZero())
	assert.False(t, evt.PointsDelta.Valid())
	assert.Nil(t, evt.PointsDelta.Raw())
}

func TestEvent_DecodeRejectsNonObject(t *testing.T) {
	var evt ledger.Event
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &evt))
}

func TestSnapshot_Decode(t *testing.T) {
	var snaps []ledger.Snapshot
	require.NoError(t, json.Unmarshal([]byte(`[{"account_id":"A1","snapshot_balance":"85"},{"account_id":"A2"}]`), &snaps))

	require.Len(t, snaps, 2)
	assert.Equal(t, "A1", snaps[0].AccountID)
	assert.True(t, snaps[0].SnapshotBalance.Value.Equal(decimal.NewFromInt(85)))
	assert.True(t, snaps[1].SnapshotBalance.IsZero())
}

func TestPoints_MarshalJSON(t *testing.T) {
	p := ledger.PointsFromRaw([]byte(`"15"`))
	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, "15", string(out))

	missing := ledger.PointsFromRaw(nil)
	assert.True(t, missing.IsZero())
	assert.Nil(t, missing.Raw())
}

// =============================================================================
// TIMESTAMPS
// =============================================================================

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{in: "2024-01-01T00:00:00Z", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), wantOK: true},
		{in: "2024-01-01T02:00:00+02:00", want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), wantOK: true},
		{in: "2024-01-01T00:00:00.250Z", want: time.Date(2024, 1, 1, 0, 0, 0, 250_000_000, time.UTC), wantOK: true},
		{in: "2024-03-05T10:30:00", want: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC), wantOK: true},
		{in: "2024-03-05 10:30:00", want: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC), wantOK: true},
		{in: "2024-03-05", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), wantOK: true},
		{in: ""},
		{in: "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ledger.ParseTimestamp(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}
