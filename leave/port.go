/*
port.go - Persistence boundary

PURPOSE:
  Defines the interface between the engine and durable storage. The engine
  writes a full snapshot of balances on every successful mutating
  operation; whether record history is included is a configuration choice,
  not an assumption.

DURABILITY MODEL:
  Persistence is a best-effort mirror of the in-memory ledger. A failed
  save is reported as PersistenceError but the committed mutation stands.
  A crash between commit and a successful save therefore loses that
  mutation on restart. Strengthening this would mean a write-ahead log in
  front of the port; the structure here keeps the gap explicit rather than
  accidental.

IMPLEMENTATIONS:
  - leave/store.Memory:  in-memory, failure-injectable (tests/dev)
  - store/jsonfile:      the employees.json layout
  - store/sqlite:        SQLite via mattn/go-sqlite3

SEE ALSO:
  - engine.go: Calls SaveSnapshot after every commit
*/
package leave

import "context"

// =============================================================================
// SNAPSHOT - What gets persisted
// =============================================================================

// EmployeeState is one employee's persisted form. Email and Department
// round-trip unchanged; the engine never reads them.
type EmployeeState struct {
	Name       string
	Email      string
	Department string
	Balances   map[Category]int
}

// RecordState is one record's persisted form.
type RecordState struct {
	ID          string
	Category    Category
	Days        int
	Start       Date
	Status      RecordStatus
	RequestedAt Date
}

// Snapshot is a full, consistent copy of the ledger for persistence.
// Records is nil unless history persistence is enabled.
type Snapshot struct {
	Employees []EmployeeState
	Records   map[string][]RecordState
}

// =============================================================================
// PORT
// =============================================================================

// Port is the durable-storage boundary. SaveSnapshot replaces the stored
// state in full; it is called once per successful mutating operation.
type Port interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// NewLedgerFromSnapshot rebuilds a ledger from persisted state. Records,
// when present, were validated when first created and are restored as-is.
func NewLedgerFromSnapshot(snap Snapshot) *Ledger {
	l := NewLedger()
	for _, es := range snap.Employees {
		l.AddEmployee(NewEmployee(es.Name, es.Email, es.Department, es.Balances))
	}
	for name, states := range snap.Records {
		for _, rs := range states {
			l.RestoreRecord(&Record{
				ID:          rs.ID,
				Employee:    name,
				Category:    rs.Category,
				Days:        rs.Days,
				Start:       rs.Start,
				Status:      rs.Status,
				RequestedAt: rs.RequestedAt,
			})
		}
	}
	return l
}

// snapshot builds a consistent copy of the ledger. Caller holds the engine
// lock.
func (l *Ledger) snapshot(includeHistory bool) Snapshot {
	snap := Snapshot{Employees: make([]EmployeeState, 0, len(l.names))}
	for _, name := range l.names {
		e := l.employees[name]
		snap.Employees = append(snap.Employees, EmployeeState{
			Name:       e.Name,
			Email:      e.Email,
			Department: e.Department,
			Balances:   e.Balances(),
		})
	}
	if !includeHistory {
		return snap
	}
	snap.Records = make(map[string][]RecordState, len(l.records))
	for name, recs := range l.records {
		states := make([]RecordState, len(recs))
		for i, r := range recs {
			states[i] = RecordState{
				ID:          r.ID,
				Category:    r.Category,
				Days:        r.Days,
				Start:       r.Start,
				Status:      r.Status,
				RequestedAt: r.RequestedAt,
			}
		}
		snap.Records[name] = states
	}
	return snap
}
