/*
Package sqlite provides a SQLite-backed implementation of the persistence port.

PURPOSE:
  Durable storage for the ledger: employee roster, per-category balances,
  and (when history persistence is enabled) the full record sequence.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  employees:     name, email, department
  balances:      one row per (employee, category)
  leave_records: the record history, ordered by seq

WRITE MODEL:
  The engine hands over a full snapshot after every mutation, so each save
  is a transactional rewrite: delete-all + insert-all inside one database
  transaction. At this system's scale (tens of employees, single process)
  that is simpler and no less safe than diffing.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - leave/port.go: Interface definition
  - store/jsonfile: File-based alternative
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/leave-ledger/leave"
)

// Store implements the persistence port using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		name TEXT PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS balances (
		employee TEXT NOT NULL REFERENCES employees(name),
		category TEXT NOT NULL,
		days INTEGER NOT NULL CHECK (days >= 0),
		PRIMARY KEY (employee, category)
	);

	CREATE TABLE IF NOT EXISTS leave_records (
		id TEXT PRIMARY KEY,
		employee TEXT NOT NULL REFERENCES employees(name),
		category TEXT NOT NULL,
		days INTEGER NOT NULL CHECK (days > 0),
		start_date TEXT NOT NULL,
		status TEXT NOT NULL,
		requested_at TEXT NOT NULL,
		seq INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_records_employee_seq
		ON leave_records(employee, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PORT IMPLEMENTATION
// =============================================================================

// SaveSnapshot rewrites the stored state in full, transactionally.
func (s *Store) SaveSnapshot(ctx context.Context, snap leave.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"leave_records", "balances", "employees"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, es := range snap.Employees {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO employees (name, email, department) VALUES (?, ?, ?)`,
			es.Name, es.Email, es.Department); err != nil {
			return fmt.Errorf("failed to insert employee %s: %w", es.Name, err)
		}
		for cat, days := range es.Balances {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO balances (employee, category, days) VALUES (?, ?, ?)`,
				es.Name, string(cat), days); err != nil {
				return fmt.Errorf("failed to insert balance %s/%s: %w", es.Name, cat, err)
			}
		}
	}

	for name, states := range snap.Records {
		for seq, rs := range states {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO leave_records (id, employee, category, days, start_date, status, requested_at, seq)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				rs.ID, name, string(rs.Category), rs.Days,
				rs.Start.String(), string(rs.Status), rs.RequestedAt.String(), seq); err != nil {
				return fmt.Errorf("failed to insert record %s: %w", rs.ID, err)
			}
		}
	}

	return tx.Commit()
}

// Load reads the stored state back into a snapshot. Records is nil when
// no history rows exist.
func (s *Store) Load(ctx context.Context) (leave.Snapshot, error) {
	snap := leave.Snapshot{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, email, department FROM employees ORDER BY rowid`)
	if err != nil {
		return snap, fmt.Errorf("failed to load employees: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var es leave.EmployeeState
		if err := rows.Scan(&es.Name, &es.Email, &es.Department); err != nil {
			return snap, err
		}
		es.Balances = make(map[leave.Category]int)
		snap.Employees = append(snap.Employees, es)
	}
	if err := rows.Err(); err != nil {
		return snap, err
	}

	index := make(map[string]int, len(snap.Employees))
	for i, es := range snap.Employees {
		index[es.Name] = i
	}

	balRows, err := s.db.QueryContext(ctx,
		`SELECT employee, category, days FROM balances`)
	if err != nil {
		return snap, fmt.Errorf("failed to load balances: %w", err)
	}
	defer balRows.Close()

	for balRows.Next() {
		var employee, category string
		var days int
		if err := balRows.Scan(&employee, &category, &days); err != nil {
			return snap, err
		}
		if i, ok := index[employee]; ok {
			snap.Employees[i].Balances[leave.Category(category)] = days
		}
	}
	if err := balRows.Err(); err != nil {
		return snap, err
	}

	recRows, err := s.db.QueryContext(ctx,
		`SELECT id, employee, category, days, start_date, status, requested_at
		 FROM leave_records ORDER BY employee, seq`)
	if err != nil {
		return snap, fmt.Errorf("failed to load records: %w", err)
	}
	defer recRows.Close()

	for recRows.Next() {
		var rs leave.RecordState
		var employee, startDate, requestedAt string
		if err := recRows.Scan(&rs.ID, &employee, &rs.Category, &rs.Days,
			&startDate, &rs.Status, &requestedAt); err != nil {
			return snap, err
		}
		if rs.Start, err = parseDate(startDate); err != nil {
			return snap, fmt.Errorf("record %s: %w", rs.ID, err)
		}
		if rs.RequestedAt, err = parseDate(requestedAt); err != nil {
			return snap, fmt.Errorf("record %s: %w", rs.ID, err)
		}
		if snap.Records == nil {
			snap.Records = make(map[string][]leave.RecordState)
		}
		snap.Records[employee] = append(snap.Records[employee], rs)
	}
	if err := recRows.Err(); err != nil {
		return snap, err
	}

	return snap, nil
}

func parseDate(s string) (leave.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return leave.Date{}, fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	return leave.DateOf(t), nil
}
