package report

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-rir/rt"
)

// Measurement is one analyzed recording as stored in the summary
// database.
type Measurement struct {
	ID         int64
	Source     string
	SampleRate int
	PeakIndex  int
	CreatedAt  time.Time
	Fits       map[string]rt.Result
}

// Store keeps the cross-recording T60 summary in a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the summary database at path and applies
// the schema.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS measurements (
			id INTEGER PRIMARY KEY,
			source TEXT NOT NULL,
			sample_rate INTEGER NOT NULL,
			peak_index INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS measurement_fits (
			measurement_id INTEGER NOT NULL,
			range_name TEXT NOT NULL,
			t60 REAL,
			slope REAL,
			intercept REAL,
			PRIMARY KEY (measurement_id, range_name)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_measurements_created_at
			ON measurements(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertMeasurement stores one analyzed recording with its per-range
// fits and returns the new row ID. Invalid fits are stored as NULLs so
// they stay distinguishable from genuine estimates.
func (s *Store) InsertMeasurement(ctx context.Context, m Measurement) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO measurements (source, sample_rate, peak_index, created_at)
		 VALUES (?, ?, ?, ?)`,
		m.Source, m.SampleRate, m.PeakIndex, createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO measurement_fits (measurement_id, range_name, t60, slope, intercept)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for name, fit := range m.Fits {
		var t60, slope, intercept any
		if fit.Valid {
			t60, slope, intercept = fit.T60, fit.Slope, fit.Intercept
		}
		if _, err = stmt.ExecContext(ctx, id, name, t60, slope, intercept); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListMeasurements returns all stored measurements, newest first, with
// their per-range fits attached.
func (s *Store) ListMeasurements(ctx context.Context) ([]Measurement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, sample_rate, peak_index, created_at
		 FROM measurements ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Measurement
	index := make(map[int64]int)
	for rows.Next() {
		var m Measurement
		var created string
		if err := rows.Scan(&m.ID, &m.Source, &m.SampleRate, &m.PeakIndex, &created); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, err
		}
		m.CreatedAt = ts
		m.Fits = make(map[string]rt.Result)
		index[m.ID] = len(result)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fitRows, err := s.db.QueryContext(ctx,
		`SELECT measurement_id, range_name, t60, slope, intercept
		 FROM measurement_fits`)
	if err != nil {
		return nil, err
	}
	defer fitRows.Close()

	for fitRows.Next() {
		var id int64
		var name string
		var t60, slope, intercept sql.NullFloat64
		if err := fitRows.Scan(&id, &name, &t60, &slope, &intercept); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			continue
		}
		fit := rt.Result{}
		if t60.Valid {
			fit = rt.Result{
				T60:       t60.Float64,
				Slope:     slope.Float64,
				Intercept: intercept.Float64,
				Valid:     true,
			}
		}
		result[i].Fits[name] = fit
	}
	if err := fitRows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
