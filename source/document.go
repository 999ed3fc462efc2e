/*
Package source acquires the two input collections.

PURPOSE:
  The engine must not run until both collections are fully materialized.
  This package fetches them (from disk or over HTTP), checks the document
  shape and decodes them with the ledger coercion policy.

DOCUMENT SHAPE:
  Both documents are JSON arrays of objects (see schema/). A document that
  is not an array of objects is rejected as a whole; individual records with
  missing or mistyped fields are accepted and coerced.

CONCURRENCY:
  Load fetches both documents at the same time and returns only when both
  are available. A failure on either side fails the whole load with
  ledger.ErrSourceUnavailable; there are no partial datasets.

SEE ALSO:
  - ledger/types.go: coercion policy
  - ledger/source.go: Source interface
*/
package source

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/warp/ledger-drift/ledger"
)

//go:embed schema/events.schema.json
var eventsSchemaJSON string

//go:embed schema/snapshots.schema.json
var snapshotsSchemaJSON string

var (
	eventsSchema    = jsonschema.MustCompileString("events.schema.json", eventsSchemaJSON)
	snapshotsSchema = jsonschema.MustCompileString("snapshots.schema.json", snapshotsSchemaJSON)
)

// DecodeEvents validates and decodes a ledger events document. name
// identifies the document in errors.
func DecodeEvents(name string, raw []byte) ([]ledger.Event, error) {
	if err := validate(eventsSchema, raw); err != nil {
		return nil, &ledger.DocumentError{Source: name, Err: err}
	}
	events := []ledger.Event{}
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, &ledger.DocumentError{Source: name, Err: err}
	}
	return events, nil
}

// DecodeSnapshots validates and decodes a balance snapshots document.
func DecodeSnapshots(name string, raw []byte) ([]ledger.Snapshot, error) {
	if err := validate(snapshotsSchema, raw); err != nil {
		return nil, &ledger.DocumentError{Source: name, Err: err}
	}
	snapshots := []ledger.Snapshot{}
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, &ledger.DocumentError{Source: name, Err: err}
	}
	return snapshots, nil
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return schema.Validate(payload)
}
