/*
engine.go - The leave ledger engine

PURPOSE:
  Orchestrates the four operations (CheckBalance, RequestLeave,
  CancelLeave, ViewHistory) against the Ledger, enforcing every invariant
  and triggering persistence. Each operation is atomic with respect to the
  ledger: no interleaved mutation of an employee's state during one call.

VALIDATION ORDER (a contract, not an accident):
  RequestLeave checks in this order:
    1. employee exists          -> UnknownEmployee
    2. category in catalog      -> UnknownCategory
    3. days > 0                 -> InvalidQuantity
    4. start date normalizes    -> InvalidDate
    5. balance >= days          -> InsufficientBalance
    6. no approved overlap      -> OverlappingLeave
  A request that is both over budget and overlapping reports
  InsufficientBalance; callers rely on this precedence.

TWO-PHASE COMMIT:
  Each mutating operation validates (pure), commits (mutates the ledger),
  then attempts persistence in a separately-scoped step. A persistence
  failure does not undo the commit: the confirmation is returned together
  with a PersistenceError so the caller can surface both.

CONCURRENCY:
  One lock serializes all mutating operations, held from validation
  through the persistence trigger. Queries take the read lock and observe
  a consistent snapshot.

SEE ALSO:
  - ledger.go: The data the engine operates on
  - overlap.go: Conflict detection
  - intent.go: Structured-intent dispatch onto these operations
*/
package leave

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Engine is the single writer for a Ledger.
type Engine struct {
	mu      sync.RWMutex
	ledger  *Ledger
	catalog *Catalog

	// Port receives a full snapshot after every successful mutation.
	// Nil disables persistence entirely.
	Port Port

	// PersistHistory includes record sequences in snapshots. Off by
	// default: the reference deployment persists balances only.
	PersistHistory bool
}

// NewEngine creates an engine over the given ledger and catalog.
func NewEngine(ledger *Ledger, catalog *Catalog, port Port) *Engine {
	return &Engine{ledger: ledger, catalog: catalog, Port: port}
}

// Catalog returns the engine's closed category set.
func (e *Engine) Catalog() *Catalog { return e.catalog }

// =============================================================================
// CONFIRMATIONS - Success payloads
// =============================================================================

// CategoryBalance is one line of a balance report.
type CategoryBalance struct {
	Category Category
	Days     int
}

// BalanceReport answers a CheckBalance query.
type BalanceReport struct {
	Employee string
	Balances []CategoryBalance
}

// RequestConfirmation confirms an approved leave request.
type RequestConfirmation struct {
	RecordID   string
	Employee   string
	Category   Category
	Days       int
	Start      Date
	End        Date
	NewBalance int
}

// CancelConfirmation confirms a cancellation.
type CancelConfirmation struct {
	RecordID     string
	Employee     string
	Category     Category
	RestoredDays int
	Start        Date
	NewBalance   int
}

// =============================================================================
// QUERY OPERATIONS
// =============================================================================

// CheckBalance returns the requested balance values. Read-only; no
// persistence trigger.
func (e *Engine) CheckBalance(employee string, sel Selector) (*BalanceReport, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	emp, ok := e.ledger.Employee(employee)
	if !ok {
		return nil, &UnknownEmployeeError{Employee: employee}
	}

	categories, err := sel.Resolve(e.catalog)
	if err != nil {
		return nil, err
	}

	report := &BalanceReport{Employee: employee}
	for _, cat := range categories {
		report.Balances = append(report.Balances, CategoryBalance{
			Category: cat,
			Days:     emp.Balance(cat),
		})
	}
	return report, nil
}

// EmployeeInfo is one employee's descriptive data plus balances, as
// returned by ListEmployees.
type EmployeeInfo struct {
	Name       string
	Email      string
	Department string
	Balances   map[Category]int
}

// ListEmployees returns every employee in load order with a copy of their
// balances. Read-only.
func (e *Engine) ListEmployees() []EmployeeInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := e.ledger.EmployeeNames()
	out := make([]EmployeeInfo, 0, len(names))
	for _, name := range names {
		emp, ok := e.ledger.Employee(name)
		if !ok {
			continue
		}
		out = append(out, EmployeeInfo{
			Name:       emp.Name,
			Email:      emp.Email,
			Department: emp.Department,
			Balances:   emp.Balances(),
		})
	}
	return out
}

// ViewHistory returns the employee's full record sequence, approved and
// cancelled, in request order. Records are copied so callers cannot
// observe later status flips mid-read.
func (e *Engine) ViewHistory(employee string) ([]Record, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, ok := e.ledger.Employee(employee); !ok {
		return nil, &UnknownEmployeeError{Employee: employee}
	}

	recs := e.ledger.Records(employee)
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = *r
	}
	return out, nil
}

// =============================================================================
// REQUEST LEAVE
// =============================================================================

// RequestLeave validates, commits, and persists one leave request.
// On persistence failure the confirmation is returned together with a
// non-nil *PersistenceError; the in-memory commit stands.
func (e *Engine) RequestLeave(ctx context.Context, employee string, category Category, days int, startText string, referenceNow time.Time) (*RequestConfirmation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Phase 1: validate, in contractual order.
	emp, ok := e.ledger.Employee(employee)
	if !ok {
		return nil, &UnknownEmployeeError{Employee: employee}
	}
	if err := e.catalog.Validate(category); err != nil {
		return nil, err
	}
	if days <= 0 {
		return nil, &InvalidQuantityError{Given: strconv.Itoa(days)}
	}
	start, err := NormalizeDate(startText, referenceNow)
	if err != nil {
		return nil, err
	}
	if available := emp.Balance(category); available < days {
		return nil, &InsufficientBalanceError{
			Employee:  employee,
			Category:  category,
			Available: available,
			Requested: days,
		}
	}
	if conflict := findConflict(e.ledger.ApprovedRecords(employee), start, days); conflict != nil {
		return nil, &OverlappingLeaveError{Employee: employee, Conflict: conflict}
	}

	// Phase 2: commit.
	rec := e.ledger.commitRequest(emp, category, days, start, DateOf(referenceNow))

	confirmation := &RequestConfirmation{
		RecordID:   rec.ID,
		Employee:   employee,
		Category:   category,
		Days:       days,
		Start:      start,
		End:        rec.End(),
		NewBalance: emp.Balance(category),
	}

	// Phase 3: persist, failure-isolated.
	if err := e.persistLocked(ctx, "request"); err != nil {
		return confirmation, err
	}
	return confirmation, nil
}

// =============================================================================
// CANCEL LEAVE
// =============================================================================

// CancelLeave cancels the first approved record matching the category and
// normalized start date, restoring its days. If multiple approved records
// share the same category and start date (possible after a cancel and
// re-request cycle), only the first in request order is affected; callers
// that hold a record ID should use CancelLeaveByID instead.
func (e *Engine) CancelLeave(ctx context.Context, employee string, category Category, startText string, referenceNow time.Time) (*CancelConfirmation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	emp, ok := e.ledger.Employee(employee)
	if !ok {
		return nil, &UnknownEmployeeError{Employee: employee}
	}
	if err := e.catalog.Validate(category); err != nil {
		return nil, err
	}
	start, err := NormalizeDate(startText, referenceNow)
	if err != nil {
		return nil, err
	}

	var target *Record
	for _, rec := range e.ledger.Records(employee) {
		if rec.Status == StatusApproved && rec.Category == category && rec.Start.Equal(start) {
			target = rec
			break
		}
	}
	if target == nil {
		return nil, &NoMatchingLeaveError{
			Employee: employee,
			Category: category,
			Start:    start,
			Approved: e.ledger.ApprovedRecords(employee),
		}
	}

	return e.cancelLocked(ctx, emp, target)
}

// CancelLeaveByID cancels an approved record by its unique ID. This is the
// unambiguous cancellation path; the category+date match in CancelLeave is
// kept for callers that do not carry record IDs.
func (e *Engine) CancelLeaveByID(ctx context.Context, employee, recordID string) (*CancelConfirmation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	emp, ok := e.ledger.Employee(employee)
	if !ok {
		return nil, &UnknownEmployeeError{Employee: employee}
	}

	var target *Record
	for _, rec := range e.ledger.Records(employee) {
		if rec.ID == recordID && rec.Status == StatusApproved {
			target = rec
			break
		}
	}
	if target == nil {
		return nil, &NoMatchingLeaveError{
			Employee: employee,
			Approved: e.ledger.ApprovedRecords(employee),
		}
	}

	return e.cancelLocked(ctx, emp, target)
}

func (e *Engine) cancelLocked(ctx context.Context, emp *Employee, target *Record) (*CancelConfirmation, error) {
	e.ledger.commitCancel(emp, target)

	confirmation := &CancelConfirmation{
		RecordID:     target.ID,
		Employee:     emp.Name,
		Category:     target.Category,
		RestoredDays: target.Days,
		Start:        target.Start,
		NewBalance:   emp.Balance(target.Category),
	}

	if err := e.persistLocked(ctx, "cancel"); err != nil {
		return confirmation, err
	}
	return confirmation, nil
}

// =============================================================================
// PERSISTENCE TRIGGER
// =============================================================================

// persistLocked mirrors the ledger to the port. Caller holds the write
// lock, so the snapshot is consistent with the commit that preceded it.
func (e *Engine) persistLocked(ctx context.Context, op string) error {
	if e.Port == nil {
		return nil
	}
	snap := e.ledger.snapshot(e.PersistHistory)
	if err := e.Port.SaveSnapshot(ctx, snap); err != nil {
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}
