/*
ledger.go - Balances and the append-only record history

PURPOSE:
  The Ledger owns, per employee, the current balance map and the ordered
  sequence of leave records. It is the sole authority for balances: no
  other component mutates a balance value directly, and records are never
  deleted. Cancellation is a status flip, not a removal.

CRITICAL INVARIANTS:
  1. balance(employee, category) >= 0, always
  2. balance = initial allocation - sum(days of Approved records), per
     category (cancelled records restore their days in full)
  3. No two Approved records for one employee overlap, regardless of
     category
  4. A record's employee, category, day count and start date are immutable;
     only its status transitions, exactly once, Approved -> Cancelled

CONCURRENCY:
  The Ledger itself is not synchronized. The Engine is its single logical
  owner and serializes access on one lock (see engine.go); tests that use
  a Ledger directly must do the same.

SEE ALSO:
  - engine.go: The only writer
  - port.go: Snapshot types handed to the persistence port
*/
package leave

import (
	"github.com/google/uuid"
)

// =============================================================================
// RECORD - One leave request event and its current status
// =============================================================================

type RecordStatus string

const (
	StatusApproved  RecordStatus = "approved"
	StatusCancelled RecordStatus = "cancelled"
)

// Record represents one leave request event. Created only by a successful
// request operation. Status is the only mutable field.
type Record struct {
	ID          string
	Employee    string
	Category    Category
	Days        int
	Start       Date
	Status      RecordStatus
	RequestedAt Date // the date the request was made, not the leave start
}

// End returns the inclusive last day of the leave range:
// start + (days - 1).
func (r *Record) End() Date { return r.Start.AddDays(r.Days - 1) }

// Covers reports whether the record's inclusive range contains the day.
func (r *Record) Covers(d Date) bool {
	return r.Start.BeforeOrEqual(d) && d.BeforeOrEqual(r.End())
}

func newRecord(employee string, category Category, days int, start Date, requestedAt Date) *Record {
	return &Record{
		ID:          uuid.NewString(),
		Employee:    employee,
		Category:    category,
		Days:        days,
		Start:       start,
		Status:      StatusApproved,
		RequestedAt: requestedAt,
	}
}

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee holds per-category balances plus descriptive metadata the engine
// never interprets. Employees are created at initial data load and never
// deleted during a run.
type Employee struct {
	Name       string
	Email      string
	Department string
	balances   map[Category]int
}

// NewEmployee creates an employee with the given initial allocations.
func NewEmployee(name, email, department string, balances map[Category]int) *Employee {
	b := make(map[Category]int, len(balances))
	for cat, days := range balances {
		b[cat] = days
	}
	return &Employee{Name: name, Email: email, Department: department, balances: b}
}

// Balance returns the remaining days for a category. Categories the
// employee has no allocation for read as zero.
func (e *Employee) Balance(cat Category) int { return e.balances[cat] }

// Balances returns a copy of the balance map.
func (e *Employee) Balances() map[Category]int {
	out := make(map[Category]int, len(e.balances))
	for cat, days := range e.balances {
		out[cat] = days
	}
	return out
}

// =============================================================================
// LEDGER
// =============================================================================

// Ledger holds every employee's balances and record history. Insertion
// order of records is chronological request order.
type Ledger struct {
	employees map[string]*Employee
	names     []string // load order, kept for deterministic snapshots
	records   map[string][]*Record
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		employees: make(map[string]*Employee),
		records:   make(map[string][]*Record),
	}
}

// AddEmployee registers an employee. A duplicate name replaces nothing:
// the first registration wins.
func (l *Ledger) AddEmployee(e *Employee) {
	if _, ok := l.employees[e.Name]; ok {
		return
	}
	l.employees[e.Name] = e
	l.names = append(l.names, e.Name)
}

// Employee looks up an employee by name key.
func (l *Ledger) Employee(name string) (*Employee, bool) {
	e, ok := l.employees[name]
	return e, ok
}

// EmployeeNames returns employee names in load order.
func (l *Ledger) EmployeeNames() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

// Records returns the employee's full record sequence in insertion order.
// The slice is a copy; the records are shared.
func (l *Ledger) Records(name string) []*Record {
	recs := l.records[name]
	out := make([]*Record, len(recs))
	copy(out, recs)
	return out
}

// ApprovedRecords returns only the currently-approved records.
func (l *Ledger) ApprovedRecords(name string) []*Record {
	var out []*Record
	for _, r := range l.records[name] {
		if r.Status == StatusApproved {
			out = append(out, r)
		}
	}
	return out
}

// commitRequest decrements the balance and appends a new approved record.
// The caller has already validated sufficiency and overlap.
func (l *Ledger) commitRequest(e *Employee, category Category, days int, start, requestedAt Date) *Record {
	e.balances[category] -= days
	rec := newRecord(e.Name, category, days, start, requestedAt)
	l.records[e.Name] = append(l.records[e.Name], rec)
	return rec
}

// commitCancel flips the record to cancelled and restores its days.
func (l *Ledger) commitCancel(e *Employee, rec *Record) {
	rec.Status = StatusCancelled
	e.balances[rec.Category] += rec.Days
}

// RestoreRecord re-attaches a persisted record during load. Used by stores
// only; it bypasses validation because the record was validated when first
// created.
func (l *Ledger) RestoreRecord(rec *Record) {
	l.records[rec.Employee] = append(l.records[rec.Employee], rec)
}
