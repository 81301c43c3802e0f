package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AddStatus reports whether AddVisit started a new patient history or
// extended an existing one. It is informational only.
type AddStatus string

const (
	StatusCreated  AddStatus = "created"
	StatusAppended AddStatus = "appended"
)

// Visit holds the caller-supplied fields of one treatment event.
type Visit struct {
	PatientName string
	Treatment   string
	Cost        float64
	DateOfVisit string // YYYY-MM-DD
}

// VisitRecord is a stored visit together with its digest.
type VisitRecord struct {
	ID          uuid.UUID `json:"id"`
	PatientKey  string    `json:"patient_key"`
	Treatment   string    `json:"treatment"`
	Cost        float64   `json:"cost"`
	DateOfVisit string    `json:"date_of_visit"`
	Digest      string    `json:"digest"` // SHA-256 of name|treatment|cost|date
}

// AddResult is returned by Store.AddVisit.
type AddResult struct {
	Record *VisitRecord `json:"record"`
	Status AddStatus    `json:"status"`
}

// PatientKey returns the identity key for a patient name.
// Only case is folded; surrounding whitespace is significant.
func PatientKey(name string) string {
	return strings.ToLower(name)
}

// ComputeDigest returns the hex SHA-256 of the canonical visit string
//
//	key|treatment|cost|date
//
// where key is PatientKey(name), backslash and '|' inside the text fields
// are escaped with a backslash, and cost is formatted by FormatCost.
func ComputeDigest(name, treatment string, cost float64, date string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s",
		escapeField(PatientKey(name)), escapeField(treatment),
		FormatCost(cost), escapeField(date),
	)
	return hex.EncodeToString(h.Sum(nil))
}

// FormatCost renders cost as the shortest decimal that round-trips,
// always with a fractional part: 150 → "150.0", 20.5 → "20.5".
// Negative zero renders as "0.0".
func FormatCost(cost float64) string {
	if cost == 0 {
		cost = 0
	}
	s := strconv.FormatFloat(cost, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

var fieldEscaper = strings.NewReplacer(`\`, `\\`, `|`, `\|`)

func escapeField(s string) string {
	return fieldEscaper.Replace(s)
}

// newRecord builds the record for v. The ID is random; everything else is
// a pure function of v.
func newRecord(v Visit) *VisitRecord {
	return &VisitRecord{
		ID:          uuid.New(),
		PatientKey:  PatientKey(v.PatientName),
		Treatment:   v.Treatment,
		Cost:        v.Cost,
		DateOfVisit: v.DateOfVisit,
		Digest:      ComputeDigest(v.PatientName, v.Treatment, v.Cost, v.DateOfVisit),
	}
}
