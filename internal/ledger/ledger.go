// Package ledger implements the hospital visit ledger: a mapping from
// lowercased patient name to the ordered list of that patient's visits.
//
// Every VisitRecord carries a SHA-256 Digest over its fields. The digest is
// a display stamp only. Records are never chained to each other and nothing
// re-checks a digest after insert.
//
// Two implementations of the Store interface are provided:
//   - MemoryStore: in-process, the default. Contents are lost on restart.
//   - PostgresStore: optional durable backend.
package ledger

import (
	"context"
	"errors"
)

// ErrNotFound is returned by FindVisits when no visit was ever recorded
// under the patient key.
var ErrNotFound = errors.New("patient not found")

// Store is the interface for the append-only visit ledger.
// Both MemoryStore and PostgresStore implement this interface.
type Store interface {
	// AddVisit appends a record for v under PatientKey(v.PatientName).
	// It performs no validation; callers check presence of fields first.
	AddVisit(ctx context.Context, v Visit) (*AddResult, error)

	// FindVisits returns the patient's records oldest first, or ErrNotFound.
	FindVisits(ctx context.Context, name string) ([]*VisitRecord, error)

	// Stats returns the number of distinct patient keys and total visits.
	Stats(ctx context.Context) (patients, visits int, err error)
}
