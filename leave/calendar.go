/*
calendar.go - Calendar date normalization

PURPOSE:
  Converts heterogeneous date input into a single canonical calendar date.
  Every date stored or compared by the engine goes through NormalizeDate
  first, so "2024-03-01", "2024.03.01", "01-03-2024" and "01.03.2024" all
  land on the same Date value.

FORMAT PRIORITY:
  Formats are tried in a fixed order and the first successful parse wins:
    1. 2006-01-02  (year first, dash)
    2. 2006.01.02  (year first, dot)
    3. 02-01-2006  (day first, dash)
    4. 02.01.2006  (day first, dot)
  A string that is valid under more than one format resolves by this
  priority, it is never rejected as ambiguous. This is deliberate: the
  upstream text-understanding service already normalizes most input, and a
  hard ambiguity error would reject dates like "01.02.2024" that users mean
  day-first.

THE "today" KEYWORD:
  Resolved against the caller-supplied reference time, never the wall clock
  directly, so normalization stays deterministic under test.

SEE ALSO:
  - engine.go: All operations normalize start dates through this file
  - errors.go: InvalidDateError carries the accepted format list
*/
package leave

import (
	"strings"
	"time"
)

// =============================================================================
// DATE - Canonical day-granularity calendar date
// =============================================================================

// Date is a calendar day, normalized to midnight UTC. It is the single
// canonical representation used for storage and comparison.
type Date struct {
	t time.Time
}

// NewDate builds a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }

// String renders the canonical form.
func (d Date) String() string { return d.t.Format("2006-01-02") }

// MarshalJSON/UnmarshalJSON keep the canonical form on the wire.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	*d = DateOf(parsed)
	return nil
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// AcceptedDateFormats lists the explicit layouts NormalizeDate tries, in
// priority order. Exposed so InvalidDateError can report them verbatim.
var AcceptedDateFormats = []string{
	"2006-01-02",
	"2006.01.02",
	"02-01-2006",
	"02.01.2006",
}

// KeywordToday resolves to the reference time's calendar day.
const KeywordToday = "today"

// NormalizeDate parses a date expression into its canonical Date.
// The keyword "today" resolves against referenceNow. Explicit formats are
// tried in AcceptedDateFormats order; first parse wins.
func NormalizeDate(text string, referenceNow time.Time) (Date, error) {
	trimmed := strings.TrimSpace(text)

	if strings.EqualFold(trimmed, KeywordToday) {
		return DateOf(referenceNow), nil
	}

	for _, layout := range AcceptedDateFormats {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return DateOf(parsed), nil
		}
	}

	return Date{}, &InvalidDateError{Input: text, Accepted: AcceptedDateFormats}
}
