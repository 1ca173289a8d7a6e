package profile

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // postgres driver
)

// Store persists profiler results to PostgreSQL.
type Store struct {
	db *sql.DB
}

// OpenStore connects to the database described by a lib/pq connection
// string and verifies the connection.
func OpenStore(connString string) (*Store, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResults persists the monthly energy totals and average daily
// profiles of one run. A rerun with the same run ID replaces its rows.
func (s *Store) SaveResults(ctx context.Context, runID string, results []*MonthResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM production_months WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete existing months: %w", err)
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM production_profiles WHERE run_id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete existing profiles: %w", err)
	}

	monthStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO production_months (
			run_id,
			month,
			window_start,
			window_end,
			energy_kwh
		) VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare month statement: %w", err)
	}
	defer monthStmt.Close()

	profileStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO production_profiles (
			run_id,
			month,
			hour,
			avg_ac_power
		) VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare profile statement: %w", err)
	}
	defer profileStmt.Close()

	for _, mr := range results {
		_, err := monthStmt.ExecContext(ctx,
			runID,
			int(mr.Month),
			mr.Window.Start,
			mr.Window.End,
			mr.EnergyKWh,
		)
		if err != nil {
			return fmt.Errorf("failed to insert month %s: %w", mr.Month, err)
		}

		for hour, power := range mr.Profile {
			_, err := profileStmt.ExecContext(ctx,
				runID,
				int(mr.Month),
				hour,
				power,
			)
			if err != nil {
				return fmt.Errorf("failed to insert profile hour %d of %s: %w",
					hour, mr.Month, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
