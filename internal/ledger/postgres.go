package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStore persists visit records to a PostgreSQL database.
// It implements the Store interface. The schema lives in
// migrations/001_visits.up.sql.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a PostgresStore backed by the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// AddVisit implements Store.
// A transaction-scoped advisory lock on the patient key makes the
// created/appended status exact under concurrent inserts for the same patient.
func (s *PostgresStore) AddVisit(ctx context.Context, v Visit) (*AddResult, error) {
	rec := newRecord(v)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", rec.PatientKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM visits WHERE patient_key = $1)", rec.PatientKey,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check patient: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO visits (id, patient_key, treatment, cost, date_of_visit, digest)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.PatientKey, rec.Treatment, rec.Cost, rec.DateOfVisit, rec.Digest,
	); err != nil {
		return nil, fmt.Errorf("insert visit: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit visit tx: %w", err)
	}

	status := StatusCreated
	if exists {
		status = StatusAppended
	}
	s.logger.Debug("visit appended",
		zap.String("patient_key", rec.PatientKey),
		zap.String("status", string(status)),
	)
	return &AddResult{Record: rec, Status: status}, nil
}

// FindVisits implements Store. Rows come back in insertion order.
func (s *PostgresStore) FindVisits(ctx context.Context, name string) ([]*VisitRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, patient_key, treatment, cost, date_of_visit, digest
		 FROM visits WHERE patient_key = $1 ORDER BY seq ASC`, PatientKey(name),
	)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var out []*VisitRecord
	for rows.Next() {
		r := &VisitRecord{}
		if err := rows.Scan(&r.ID, &r.PatientKey, &r.Treatment, &r.Cost, &r.DateOfVisit, &r.Digest); err != nil {
			return nil, fmt.Errorf("scan visit row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Stats implements Store.
func (s *PostgresStore) Stats(ctx context.Context) (int, int, error) {
	var patients, visits int
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(DISTINCT patient_key), COUNT(*) FROM visits",
	).Scan(&patients, &visits); err != nil {
		return 0, 0, fmt.Errorf("count visits: %w", err)
	}
	return patients, visits, nil
}
