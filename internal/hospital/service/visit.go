package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmerrifield20/HospitalLedger/internal/ledger"
	"go.uber.org/zap"
)

// DateLayout is the accepted form of a visit date.
const DateLayout = "2006-01-02"

var (
	// ErrMissingField is returned when a required visit field is absent.
	// By default a cost of exactly 0 counts as absent.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidCost is returned for a negative cost.
	ErrInvalidCost = errors.New("cost must not be negative")

	// ErrInvalidDate is returned when the visit date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("date_of_visit must be YYYY-MM-DD")
)

// VisitInput is the caller-facing form of a new visit.
type VisitInput struct {
	PatientName string  `json:"patient_name"`
	Treatment   string  `json:"treatment"`
	Cost        float64 `json:"cost"`
	DateOfVisit string  `json:"date_of_visit"`
}

// Config controls caller-side validation.
type Config struct {
	// RejectZeroCost treats cost == 0 as a missing field, matching the
	// form this ledger was first built behind. Disable it to accept
	// free visits.
	RejectZeroCost bool
}

// DefaultConfig returns the validation settings used when none are configured.
func DefaultConfig() Config {
	return Config{RejectZeroCost: true}
}

// AddedFunc is an optional callback invoked after every successful append.
type AddedFunc func(status ledger.AddStatus)

// LookupFunc is an optional callback invoked after every lookup.
type LookupFunc func(found bool)

// VisitService validates visits and forwards them to the ledger store.
type VisitService struct {
	store    ledger.Store
	cfg      Config
	onAdded  AddedFunc  // nil = no metrics
	onLookup LookupFunc // nil = no metrics
	logger   *zap.Logger
}

// NewVisitService creates a new VisitService.
func NewVisitService(store ledger.Store, cfg Config, logger *zap.Logger) *VisitService {
	return &VisitService{store: store, cfg: cfg, logger: logger}
}

// SetMetricsHooks configures the callbacks used to record add and lookup outcomes.
func (s *VisitService) SetMetricsHooks(added AddedFunc, lookup LookupFunc) {
	s.onAdded = added
	s.onLookup = lookup
}

// Validate runs the presence checks for in. Missing fields are reported
// before malformed ones, in form order.
func (s *VisitService) Validate(in VisitInput) error {
	switch {
	case in.PatientName == "":
		return fmt.Errorf("%w: patient_name", ErrMissingField)
	case in.Treatment == "":
		return fmt.Errorf("%w: treatment", ErrMissingField)
	case in.Cost == 0 && s.cfg.RejectZeroCost:
		return fmt.Errorf("%w: cost", ErrMissingField)
	case in.DateOfVisit == "":
		return fmt.Errorf("%w: date_of_visit", ErrMissingField)
	}
	if in.Cost < 0 {
		return ErrInvalidCost
	}
	if _, err := time.Parse(DateLayout, in.DateOfVisit); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// AddVisit validates in and appends it to the ledger.
// Nothing is appended when validation fails.
func (s *VisitService) AddVisit(ctx context.Context, in VisitInput) (*ledger.AddResult, error) {
	if err := s.Validate(in); err != nil {
		return nil, err
	}

	res, err := s.store.AddVisit(ctx, ledger.Visit{
		PatientName: in.PatientName,
		Treatment:   in.Treatment,
		Cost:        in.Cost,
		DateOfVisit: in.DateOfVisit,
	})
	if err != nil {
		return nil, fmt.Errorf("add visit: %w", err)
	}

	if res.Status == ledger.StatusCreated {
		s.logger.Info("adding new visit record", zap.String("patient_key", res.Record.PatientKey))
	} else {
		s.logger.Info("updating visit record", zap.String("patient_key", res.Record.PatientKey))
	}
	s.logger.Info("visit added",
		zap.String("patient_key", res.Record.PatientKey),
		zap.String("date_of_visit", res.Record.DateOfVisit),
		zap.String("treatment", res.Record.Treatment),
		zap.Float64("cost", res.Record.Cost),
		zap.String("digest", res.Record.Digest),
	)

	if s.onAdded != nil {
		s.onAdded(res.Status)
	}
	return res, nil
}

// FindVisits returns the patient's visits oldest first.
// ledger.ErrNotFound is passed through unwrapped.
func (s *VisitService) FindVisits(ctx context.Context, name string) ([]*ledger.VisitRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}

	recs, err := s.store.FindVisits(ctx, name)
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		s.logger.Debug("patient not found in the ledger", zap.String("patient_key", ledger.PatientKey(name)))
		s.recordLookup(false)
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("find visits: %w", err)
	}
	s.recordLookup(true)
	return recs, nil
}

// Stats returns the number of patients and visits in the ledger.
func (s *VisitService) Stats(ctx context.Context) (patients, visits int, err error) {
	return s.store.Stats(ctx)
}

func (s *VisitService) recordLookup(found bool) {
	if s.onLookup != nil {
		s.onLookup(found)
	}
}
