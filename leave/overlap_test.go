package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/leave-ledger/leave"
)

func approvedRecord(cat leave.Category, start leave.Date, days int) *leave.Record {
	return &leave.Record{
		ID:       "rec-" + start.String(),
		Employee: "Alice",
		Category: cat,
		Days:     days,
		Start:    start,
		Status:   leave.StatusApproved,
	}
}

func TestOverlaps(t *testing.T) {
	march1 := leave.NewDate(2024, time.March, 1)
	existing := []*leave.Record{
		approvedRecord(leave.CategorySick, march1, 3), // covers 03-01..03-03
	}

	tests := []struct {
		name  string
		start leave.Date
		days  int
		want  bool
	}{
		{"identical range", march1, 3, true},
		{"starts inside", march1.AddDays(1), 2, true},
		{"ends on first day", march1.AddDays(-2), 3, true},
		{"contains existing", march1.AddDays(-1), 10, true},
		{"single shared day", march1.AddDays(2), 1, true},
		{"adjacent after", march1.AddDays(3), 2, false},
		{"adjacent before", march1.AddDays(-2), 2, false},
		{"far away", march1.AddDays(30), 5, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, leave.Overlaps(existing, tc.start, tc.days))
		})
	}
}

func TestOverlaps_CancelledRecordsIgnored(t *testing.T) {
	march1 := leave.NewDate(2024, time.March, 1)
	cancelled := approvedRecord(leave.CategorySick, march1, 3)
	cancelled.Status = leave.StatusCancelled

	assert.False(t, leave.Overlaps([]*leave.Record{cancelled}, march1, 3))
}

func TestOverlaps_CrossCategory(t *testing.T) {
	// The overlap test carries no category notion at all: any approved
	// record blocks the range for that employee.
	march1 := leave.NewDate(2024, time.March, 1)
	existing := []*leave.Record{
		approvedRecord(leave.CategoryAnnual, march1, 2),
	}

	assert.True(t, leave.Overlaps(existing, march1.AddDays(1), 1))
}

func TestRecord_End(t *testing.T) {
	march1 := leave.NewDate(2024, time.March, 1)

	oneDay := approvedRecord(leave.CategorySick, march1, 1)
	assert.True(t, oneDay.End().Equal(march1), "a one-day leave ends on its start day")

	threeDays := approvedRecord(leave.CategorySick, march1, 3)
	assert.Equal(t, "2024-03-03", threeDays.End().String())
	assert.True(t, threeDays.Covers(march1.AddDays(2)))
	assert.False(t, threeDays.Covers(march1.AddDays(3)))
}
