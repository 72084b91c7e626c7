/*
intent.go - Structured intent decoding and dispatch

PURPOSE:
  The external text-understanding service turns free-form input into a
  structured intent descriptor. This file decodes that descriptor and
  dispatches it onto one engine operation. The engine re-checks category,
  quantity, and date validity itself: the external parser is not trusted
  for domain invariants.

WIRE SHAPE:
  {"intent": "check_balance", "leave_type": "all" | "<category>" | [...]}
  {"intent": "request_leave", "leave_type": "...", "days": n, "start_date": "..."}
  {"intent": "cancel_leave",  "leave_type": "...", "start_date": "..."}
  {"intent": "view_history"}
  {"intent": "error", "message": "..."}

QUANTITY VALIDATION:
  days arrives as a JSON number and may be fractional. It is decoded as a
  decimal and must be a positive whole number; 2.5 days is InvalidQuantity,
  not a rounding candidate.

OUTCOMES:
  Dispatch always produces a human-readable outcome string, for failures
  too. The error return carries the typed kind for programmatic callers.

SEE ALSO:
  - engine.go: The operations dispatched to
  - catalog.go: Selector, resolved once here at the boundary
*/
package leave

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INTENT - Tagged descriptor from the NLP boundary
// =============================================================================

type IntentKind string

const (
	IntentCheckBalance IntentKind = "check_balance"
	IntentRequestLeave IntentKind = "request_leave"
	IntentCancelLeave  IntentKind = "cancel_leave"
	IntentViewHistory  IntentKind = "view_history"
	IntentError        IntentKind = "error"
)

// Intent is one decoded intent descriptor.
type Intent struct {
	Kind      IntentKind
	Selector  Selector        // check_balance
	Category  Category        // request_leave, cancel_leave
	Days      decimal.Decimal // request_leave, validated at dispatch
	StartDate string          // request_leave, cancel_leave; raw, normalized by the engine
	RecordID  string          // cancel_leave, optional unambiguous target
	Message   string          // error
}

// rawIntent is the wire form. leave_type is a string or a list of strings.
type rawIntent struct {
	Intent    IntentKind      `json:"intent"`
	LeaveType json.RawMessage `json:"leave_type,omitempty"`
	Days      decimal.Decimal `json:"days,omitempty"`
	StartDate string          `json:"start_date,omitempty"`
	RecordID  string          `json:"record_id,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// ParseIntent decodes an intent descriptor, resolving the string-or-list
// leave_type into a Selector exactly once.
func ParseIntent(data []byte) (Intent, error) {
	var raw rawIntent
	if err := json.Unmarshal(data, &raw); err != nil {
		return Intent{}, fmt.Errorf("malformed intent: %w", err)
	}

	intent := Intent{
		Kind:      raw.Intent,
		Days:      raw.Days,
		StartDate: raw.StartDate,
		RecordID:  raw.RecordID,
		Message:   raw.Message,
	}

	switch raw.Intent {
	case IntentCheckBalance:
		sel, err := parseSelector(raw.LeaveType)
		if err != nil {
			return Intent{}, err
		}
		intent.Selector = sel

	case IntentRequestLeave, IntentCancelLeave:
		var single string
		if err := json.Unmarshal(raw.LeaveType, &single); err != nil {
			return Intent{}, fmt.Errorf("leave_type must be a single category for %s", raw.Intent)
		}
		intent.Category = Category(single)

	case IntentViewHistory, IntentError:
		// No further fields to resolve.

	default:
		return Intent{}, fmt.Errorf("unrecognized intent %q", raw.Intent)
	}

	return intent, nil
}

// parseSelector turns the wire-level leave_type into a Selector:
// absent or "all" selects everything, a string selects one category,
// a list selects several.
func parseSelector(raw json.RawMessage) (Selector, error) {
	if len(raw) == 0 {
		return SelectAllCategories(), nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if strings.EqualFold(single, "all") {
			return SelectAllCategories(), nil
		}
		return SelectCategory(Category(single)), nil
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		cats := make([]Category, len(many))
		for i, s := range many {
			cats[i] = Category(s)
		}
		return SelectCategories(cats...), nil
	}

	return Selector{}, fmt.Errorf("leave_type must be a string or a list of strings")
}

// WholeDays converts a decimal day count into a positive int, rejecting
// zero, negative, and fractional values.
func WholeDays(d decimal.Decimal) (int, error) {
	if !d.IsInteger() || !d.IsPositive() {
		return 0, &InvalidQuantityError{Given: d.String()}
	}
	return int(d.IntPart()), nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch routes one intent to the matching engine operation and renders
// the outcome. The returned string is always set; the error, when non-nil,
// carries the typed kind.
func Dispatch(ctx context.Context, engine *Engine, employee string, intent Intent, referenceNow time.Time) (string, error) {
	switch intent.Kind {
	case IntentCheckBalance:
		report, err := engine.CheckBalance(employee, intent.Selector)
		if err != nil {
			return err.Error(), err
		}
		return formatBalanceReport(report), nil

	case IntentRequestLeave:
		days, err := WholeDays(intent.Days)
		if err != nil {
			return err.Error(), err
		}
		conf, err := engine.RequestLeave(ctx, employee, intent.Category, days, intent.StartDate, referenceNow)
		if err != nil && conf == nil {
			return err.Error(), err
		}
		msg := fmt.Sprintf("Leave request approved. %d days of %s starting from %s.",
			conf.Days, conf.Category, conf.Start)
		if err != nil {
			msg += " Warning: " + err.Error()
		}
		return msg, err

	case IntentCancelLeave:
		var conf *CancelConfirmation
		var err error
		if intent.RecordID != "" {
			conf, err = engine.CancelLeaveByID(ctx, employee, intent.RecordID)
		} else {
			conf, err = engine.CancelLeave(ctx, employee, intent.Category, intent.StartDate, referenceNow)
		}
		if err != nil && conf == nil {
			return err.Error(), err
		}
		msg := fmt.Sprintf("Leave cancelled. %d days of %s restored; new %s balance: %d days.",
			conf.RestoredDays, conf.Category, conf.Category, conf.NewBalance)
		if err != nil {
			msg += " Warning: " + err.Error()
		}
		return msg, err

	case IntentViewHistory:
		records, err := engine.ViewHistory(employee)
		if err != nil {
			return err.Error(), err
		}
		return formatHistory(employee, records), nil

	case IntentError:
		return intent.Message, nil

	default:
		return "I'm not sure what you want to do. Please try again.", fmt.Errorf("unrecognized intent %q", intent.Kind)
	}
}

func formatBalanceReport(report *BalanceReport) string {
	if len(report.Balances) == 1 {
		b := report.Balances[0]
		return fmt.Sprintf("Current %s balance for %s: %d days", b.Category, report.Employee, b.Days)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Current leave balance for %s:", report.Employee)
	for _, b := range report.Balances {
		fmt.Fprintf(&sb, "\n- %s: %d days", b.Category, b.Days)
	}
	return sb.String()
}

func formatHistory(employee string, records []Record) string {
	if len(records) == 0 {
		return fmt.Sprintf("No leave history for %s.", employee)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Leave history for %s:", employee)
	for _, r := range records {
		fmt.Fprintf(&sb, "\n- %s: %d days from %s to %s (%s, requested %s)",
			r.Category, r.Days, r.Start, r.End(), r.Status, r.RequestedAt)
	}
	return sb.String()
}
