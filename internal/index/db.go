package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/skirt-timeline/internal/parse"
	"github.com/Zuo-Peng/skirt-timeline/internal/timeline"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA cache_size = -64000;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    run_key       TEXT PRIMARY KEY,
    dir           TEXT NOT NULL,
    prefix        TEXT NOT NULL,
    host          TEXT NOT NULL DEFAULT '',
    started_at    TEXT NOT NULL DEFAULT '',
    processes     INTEGER NOT NULL DEFAULT 0,
    total         REAL NOT NULL DEFAULT 0,
    setup         REAL NOT NULL DEFAULT 0,
    stellar       REAL NOT NULL DEFAULT 0,
    spectra       REAL NOT NULL DEFAULT 0,
    dust          REAL NOT NULL DEFAULT 0,
    dustem        REAL,
    writing       REAL NOT NULL DEFAULT 0,
    communication REAL NOT NULL DEFAULT 0,
    waiting       REAL NOT NULL DEFAULT 0,
    other         REAL NOT NULL DEFAULT 0,
    serial        REAL NOT NULL DEFAULT 0,
    parallel      REAL NOT NULL DEFAULT 0,
    overhead      REAL NOT NULL DEFAULT 0,
    mtime         INTEGER NOT NULL DEFAULT 0,
    size          INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS timeline_rows (
    run_key  TEXT NOT NULL,
    row_id   INTEGER NOT NULL,
    process  INTEGER NOT NULL,
    phase    TEXT NOT NULL,
    start_s  REAL NOT NULL,
    end_s    REAL NOT NULL,
    PRIMARY KEY (run_key, row_id)
);

CREATE INDEX IF NOT EXISTS runs_started ON runs(started_at);
`

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	db.Exec("CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)")
	d := &DB{db: db}
	d.migrateSchemaVersion()

	return d, nil
}

// schemaVersion should be bumped whenever the phase rules or the
// reconciliation change, so that every run is extracted again.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		d.db.Exec("UPDATE runs SET mtime = 0, size = 0")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type RunInfo struct {
	Mtime int64
	Size  int64
}

// GetRunInfo returns the file stamp a run was indexed with, or nil when the
// run is not indexed.
func (d *DB) GetRunInfo(runKey string) (*RunInfo, error) {
	var info RunInfo
	err := d.db.QueryRow(
		"SELECT mtime, size FROM runs WHERE run_key = ?",
		runKey,
	).Scan(&info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllRunKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT run_key FROM runs")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteRun(runKey string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM timeline_rows WHERE run_key = ?", runKey); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM runs WHERE run_key = ?", runKey); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) RunCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n)
	return n, err
}

func (d *DB) RowCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM timeline_rows").Scan(&n)
	return n, err
}

// RunRow is one indexed run with the aggregates of its timeline.
type RunRow struct {
	RunKey    string
	Dir       string
	Prefix    string
	Host      string
	StartedAt string
	Summary   timeline.Summary
}

// RunColumns lists the runs columns in the order ScanRun expects them.
const RunColumns = `run_key, dir, prefix, host, started_at, processes,
	total, setup, stellar, spectra, dust, dustem, writing, communication,
	waiting, other, serial, parallel, overhead`

type scanner interface {
	Scan(dest ...any) error
}

// ScanRun reads a row selected with RunColumns.
func ScanRun(row scanner) (*RunRow, error) {
	var r RunRow
	var dustem sql.NullFloat64
	s := &r.Summary
	err := row.Scan(
		&r.RunKey, &r.Dir, &r.Prefix, &r.Host, &r.StartedAt, &s.Processes,
		&s.Total, &s.Setup, &s.Stellar, &s.Spectra, &s.Dust, &dustem, &s.Writing, &s.Communication,
		&s.Waiting, &s.Other, &s.Serial, &s.Parallel, &s.Overhead,
	)
	if err != nil {
		return nil, err
	}
	s.DustEm, s.HasDustEm = dustem.Float64, dustem.Valid
	return &r, nil
}

func (d *DB) GetRunByKey(runKey string) (*RunRow, error) {
	r, err := ScanRun(d.db.QueryRow("SELECT "+RunColumns+" FROM runs WHERE run_key = ?", runKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetTimeline loads the stored timeline of a run as a table.
func (d *DB) GetTimeline(runKey string) (*timeline.Table, error) {
	rows, err := d.db.Query(
		"SELECT process, phase, start_s, end_s FROM timeline_rows WHERE run_key = ? ORDER BY row_id",
		runKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []timeline.Row
	for rows.Next() {
		var r timeline.Row
		var phase string
		if err := rows.Scan(&r.Process, &phase, &r.Start, &r.End); err != nil {
			return nil, err
		}
		p, ok := parse.ParsePhase(phase)
		if !ok {
			return nil, fmt.Errorf("run %s: unknown phase %q", runKey, phase)
		}
		r.Phase = p
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return timeline.NewTable(result)
}
