package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/MJE43/arcs-odds/internal/dice"
	"github.com/MJE43/arcs-odds/internal/engine"
	"github.com/MJE43/arcs-odds/internal/export"
)

// ErrNotFound is returned when a snapshot id does not exist.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one exported joint table. Rows is only filled by GetSnapshot.
type Snapshot struct {
	ID               string       `json:"id"`
	Pool             dice.Pool    `json:"pool"`
	TotalMicrostates uint64       `json:"total_microstates"`
	RowCount         int          `json:"row_count"`
	EngineVersion    string       `json:"engine_version"`
	CreatedAt        time.Time    `json:"created_at"`
	Rows             []engine.Row `json:"rows,omitempty"`
}

// Table rebuilds the engine table held by the snapshot.
func (s *Snapshot) Table() *engine.Table {
	return &engine.Table{Pool: s.Pool, TotalMicrostates: s.TotalMicrostates, Rows: s.Rows}
}

// SnapshotsQuery selects a page of snapshots, newest first.
type SnapshotsQuery struct {
	PoolKey string `json:"pool_key,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

// SnapshotsList is one page of snapshots.
type SnapshotsList struct {
	Snapshots  []Snapshot `json:"snapshots"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalPages int        `json:"total_pages"`
}

// Store writes table snapshots to a SQLite file. Snapshots are append-only.
type Store struct {
	db            *sql.DB
	engineVersion string
}

// Open opens or creates the SQLite file at path. Use ":memory:" in tests.
func Open(path, engineVersion string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes
	return &Store{db: db, engineVersion: engineVersion}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the snapshot tables.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			pool_key TEXT NOT NULL,
			skirmish INTEGER NOT NULL,
			assault INTEGER NOT NULL,
			raid INTEGER NOT NULL,
			fresh_targets INTEGER NOT NULL,
			convert_intercepts INTEGER NOT NULL,
			total_microstates TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			engine_version TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_pool ON snapshots(pool_key, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at DESC);`,

		// microstate counts can exceed int64, so they are kept as text
		`CREATE TABLE IF NOT EXISTS snapshot_rows (
			snapshot_id TEXT NOT NULL,
			hits INTEGER NOT NULL,
			damage INTEGER NOT NULL,
			building_hits INTEGER NOT NULL,
			keys INTEGER NOT NULL,
			microstates TEXT NOT NULL,
			prob REAL NOT NULL,
			prob_exact TEXT NOT NULL,
			PRIMARY KEY (snapshot_id, hits, damage, building_hits, keys),
			FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
		);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return tx.Commit()
}

// SaveTable stores t as a new snapshot and returns its id.
func (s *Store) SaveTable(ctx context.Context, t *engine.Table) (string, error) {
	id := uuid.New().String()
	p := t.Pool

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (
			id, pool_key, skirmish, assault, raid, fresh_targets, convert_intercepts,
			total_microstates, row_count, engine_version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Key(), p.Skirmish, p.Assault, p.Raid, p.FreshTargets, boolToInt(p.ConvertIntercepts),
		strconv.FormatUint(t.TotalMicrostates, 10), len(t.Rows), s.engineVersion, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_rows (snapshot_id, hits, damage, building_hits, keys, microstates, prob, prob_exact)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, r := range t.Rows {
		_, err := stmt.ExecContext(ctx, id, r.Hits, r.Damage, r.BuildingHits, r.Keys,
			strconv.FormatUint(r.Microstates, 10), r.Prob, export.ExactProb(r.Microstates, t.TotalMicrostates))
		if err != nil {
			return "", fmt.Errorf("failed to insert row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

const snapshotColumns = `id, skirmish, assault, raid, fresh_targets, convert_intercepts,
	total_microstates, row_count, engine_version, created_at`

func scanSnapshot(row interface{ Scan(...any) error }) (Snapshot, error) {
	var snap Snapshot
	var convert int
	var total string
	err := row.Scan(&snap.ID, &snap.Pool.Skirmish, &snap.Pool.Assault, &snap.Pool.Raid,
		&snap.Pool.FreshTargets, &convert, &total, &snap.RowCount, &snap.EngineVersion, &snap.CreatedAt)
	if err != nil {
		return snap, err
	}
	snap.Pool.ConvertIntercepts = convert == 1
	snap.TotalMicrostates, err = strconv.ParseUint(total, 10, 64)
	return snap, err
}

// GetSnapshot loads a snapshot with its rows in table order.
func (s *Store) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	snap, err := scanSnapshot(s.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT hits, damage, building_hits, keys, microstates, prob
		FROM snapshot_rows WHERE snapshot_id = ?
		ORDER BY hits, damage, building_hits, keys`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap.Rows = make([]engine.Row, 0, snap.RowCount)
	for rows.Next() {
		var r engine.Row
		var micro string
		if err := rows.Scan(&r.Hits, &r.Damage, &r.BuildingHits, &r.Keys, &micro, &r.Prob); err != nil {
			return nil, err
		}
		if r.Microstates, err = strconv.ParseUint(micro, 10, 64); err != nil {
			return nil, fmt.Errorf("bad microstate count %q: %w", micro, err)
		}
		snap.Rows = append(snap.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshots returns a page of snapshot headers, newest first.
func (s *Store) ListSnapshots(ctx context.Context, query SnapshotsQuery) (*SnapshotsList, error) {
	whereClause := ""
	args := []any{}
	if query.PoolKey != "" {
		whereClause = "WHERE pool_key = ?"
		args = append(args, query.PoolKey)
	}

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	args = append(args, query.PerPage, offset)
	rows, err := s.db.QueryContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots `+whereClause+`
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	list := &SnapshotsList{
		Snapshots:  []Snapshot{},
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		list.Snapshots = append(list.Snapshots, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}
	return list, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
