// Package store archives extracted lamp test tables in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ccollicutt/lamptest/pkg/table"
)

// ErrUnknownSource is returned by Load when nothing was archived for a source.
var ErrUnknownSource = errors.New("source not archived")

// Store manages the archive database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database at path and creates the schema
// if it does not exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS imports (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			labels TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			imported_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_imports_source ON imports(source)`,
		`CREATE TABLE IF NOT EXISTS observations (
			source TEXT NOT NULL,
			dtm_ori TEXT NOT NULL,
			lamp TEXT NOT NULL,
			dtm TEXT NOT NULL,
			temperature REAL NOT NULL,
			import_id TEXT NOT NULL REFERENCES imports(id),
			PRIMARY KEY (source, dtm_ori, lamp)
		)`,
		`CREATE TABLE IF NOT EXISTS measurements (
			source TEXT NOT NULL,
			dtm_ori TEXT NOT NULL,
			lamp TEXT NOT NULL,
			block INTEGER NOT NULL,
			label TEXT NOT NULL,
			v1 REAL, v2 REAL, v3 REAL,
			mean REAL, n REAL, n_ref REAL, dn REAL,
			PRIMARY KEY (source, dtm_ori, lamp, block),
			FOREIGN KEY (source, dtm_ori, lamp)
				REFERENCES observations(source, dtm_ori, lamp) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveSummary holds counts from one archive run.
type SaveSummary struct {
	ImportID string
	Inserted int
	Updated  int
}

// Total returns the number of rows written.
func (s SaveSummary) Total() int {
	return s.Inserted + s.Updated
}

// Save upserts every row of tbl keyed on (source, dtm_ori, lamp), so saving
// the same extraction twice leaves the archive unchanged apart from the
// import record.
func (s *Store) Save(ctx context.Context, tbl *table.Table) (SaveSummary, error) {
	summary := SaveSummary{ImportID: uuid.NewString()}
	if tbl == nil || !tbl.HasSchema() || tbl.Len() == 0 {
		return summary, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO imports (id, source, labels, row_count, imported_at) VALUES (?, ?, ?, ?, ?)`,
		summary.ImportID, tbl.Rows[0].Source, strings.Join(tbl.Labels(), ","), tbl.Len(),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return summary, fmt.Errorf("recording import: %w", err)
	}

	exists, err := tx.PrepareContext(ctx,
		`SELECT count(*) FROM observations WHERE source = ? AND dtm_ori = ? AND lamp = ?`)
	if err != nil {
		return summary, fmt.Errorf("preparing lookup: %w", err)
	}
	defer exists.Close()

	observation, err := tx.PrepareContext(ctx,
		`INSERT INTO observations (source, dtm_ori, lamp, dtm, temperature, import_id)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source, dtm_ori, lamp) DO UPDATE SET
			dtm=excluded.dtm, temperature=excluded.temperature, import_id=excluded.import_id`)
	if err != nil {
		return summary, fmt.Errorf("preparing observation insert: %w", err)
	}
	defer observation.Close()

	measurement, err := tx.PrepareContext(ctx,
		`INSERT INTO measurements (source, dtm_ori, lamp, block, label, v1, v2, v3, mean, n, n_ref, dn)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(source, dtm_ori, lamp, block) DO UPDATE SET
			label=excluded.label, v1=excluded.v1, v2=excluded.v2, v3=excluded.v3,
			mean=excluded.mean, n=excluded.n, n_ref=excluded.n_ref, dn=excluded.dn`)
	if err != nil {
		return summary, fmt.Errorf("preparing measurement insert: %w", err)
	}
	defer measurement.Close()

	for _, r := range tbl.Rows {
		var n int
		if err := exists.QueryRowContext(ctx, r.Source, r.Original, r.Lamp).Scan(&n); err != nil {
			return summary, fmt.Errorf("looking up %s: %w", r.Original, err)
		}

		_, err := observation.ExecContext(ctx,
			r.Source, r.Original, r.Lamp, r.Time.UTC().Format(time.RFC3339Nano), r.Temperature, summary.ImportID)
		if err != nil {
			return summary, fmt.Errorf("writing observation %s: %w", r.Original, err)
		}

		for b, m := range r.Tests {
			v := m.Values
			_, err := measurement.ExecContext(ctx,
				r.Source, r.Original, r.Lamp, b, m.Label,
				v[0], v[1], v[2], v[3], v[4], v[5], v[6])
			if err != nil {
				return summary, fmt.Errorf("writing measurement %s block %d: %w", r.Original, b+1, err)
			}
		}

		if n > 0 {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing: %w", err)
	}
	return summary, nil
}

// Sources lists every archived source in name order.
func (s *Store) Sources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT source FROM observations ORDER BY source`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// Load rebuilds the archived table for source, sorted by dtm. Columns are
// named after the labels of the most recent import.
func (s *Store) Load(ctx context.Context, source string) (*table.Table, error) {
	var labels string
	err := s.db.QueryRowContext(ctx,
		`SELECT labels FROM imports WHERE source = ? ORDER BY imported_at DESC LIMIT 1`, source,
	).Scan(&labels)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	if err != nil {
		return nil, fmt.Errorf("querying imports: %w", err)
	}

	parts := strings.Split(labels, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("import for %s has malformed labels %q", source, labels)
	}
	tbl := table.New([3]string{parts[0], parts[1], parts[2]})

	rows, err := s.db.QueryContext(ctx,
		`SELECT o.dtm, o.dtm_ori, o.lamp, o.temperature,
			m.block, m.label, m.v1, m.v2, m.v3, m.mean, m.n, m.n_ref, m.dn
		 FROM observations o
		 JOIN measurements m
			ON m.source = o.source AND m.dtm_ori = o.dtm_ori AND m.lamp = o.lamp
		 WHERE o.source = ?
		 ORDER BY o.dtm, o.dtm_ori, o.lamp, m.block`, source)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var current *table.Row
	for rows.Next() {
		var (
			dtm, original, lamp, label string
			temperature                float64
			block                      int
			v                          [7]float64
		)
		if err := rows.Scan(&dtm, &original, &lamp, &temperature,
			&block, &label, &v[0], &v[1], &v[2], &v[3], &v[4], &v[5], &v[6]); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		if block < 0 || block > 2 {
			return nil, fmt.Errorf("observation %s has block %d", original, block)
		}

		if current == nil || current.Original != original || current.Lamp != lamp {
			ts, err := time.Parse(time.RFC3339Nano, dtm)
			if err != nil {
				return nil, fmt.Errorf("parsing archived dtm %q: %w", dtm, err)
			}
			tbl.Rows = append(tbl.Rows, table.Row{
				Time:        ts,
				Original:    original,
				Lamp:        lamp,
				Temperature: temperature,
				Source:      source,
			})
			current = &tbl.Rows[len(tbl.Rows)-1]
		}
		current.Tests[block] = table.Measurement{Label: label, Values: v}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading observations: %w", err)
	}

	return tbl, nil
}
