package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/ashaboard/ashaboard/pkg/dataset"
	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// PostgresLoader reads workers, cases and water sources from an existing
// Postgres database. It only ever issues SELECT statements.
//
// Rows come back ordered by id, which fixes the first-seen order the ranking
// uses to break ties.
type PostgresLoader struct {
	db *sql.DB
}

// NewPostgresLoader opens and pings the database.
func NewPostgresLoader(ctx context.Context, databaseURL string) (*PostgresLoader, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres seed requires a database url")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresLoader{db: db}, nil
}

// NewPostgresLoaderFromDB wraps an already open handle.
func NewPostgresLoaderFromDB(db *sql.DB) *PostgresLoader {
	return &PostgresLoader{db: db}
}

func (l *PostgresLoader) Close() error {
	return l.db.Close()
}

func (l *PostgresLoader) Load(ctx context.Context) (*dataset.Dataset, error) {
	workers, err := l.workers(ctx)
	if err != nil {
		return nil, err
	}
	cases, err := l.cases(ctx)
	if err != nil {
		return nil, err
	}
	sources, err := l.sources(ctx)
	if err != nil {
		return nil, err
	}
	return &dataset.Dataset{Workers: workers, Cases: cases, Sources: sources}, nil
}

func (l *PostgresLoader) workers(ctx context.Context) ([]dataset.Worker, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, status, COALESCE(village, '')
		 FROM workers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query workers: %w", err)
	}
	defer rows.Close()

	var out []dataset.Worker
	for rows.Next() {
		var w dataset.Worker
		if err := rows.Scan(&w.ID, &w.Name, &w.Status, &w.Village); err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (l *PostgresLoader) cases(ctx context.Context) ([]ranking.Case, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, patient_name, COALESCE(age, 0), COALESCE(gender, ''),
		        COALESCE(issue, ''), COALESCE(worker_id, ''),
		        status, COALESCE(CAST(date AS TEXT), ''), village
		 FROM cases ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query cases: %w", err)
	}
	defer rows.Close()

	var out []ranking.Case
	for rows.Next() {
		var c ranking.Case
		if err := rows.Scan(&c.ID, &c.PatientName, &c.Age, &c.Gender, &c.Issue, &c.WorkerID, &c.Status, &c.Date, &c.Village); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (l *PostgresLoader) sources(ctx context.Context) ([]ranking.WaterSource, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, status, COALESCE(CAST(last_tested AS TEXT), ''),
		        COALESCE(location, ''), village
		 FROM water_sources ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query water sources: %w", err)
	}
	defer rows.Close()

	var out []ranking.WaterSource
	for rows.Next() {
		var s ranking.WaterSource
		if err := rows.Scan(&s.ID, &s.Name, &s.Status, &s.LastTested, &s.Location, &s.Village); err != nil {
			return nil, fmt.Errorf("scan water source: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
