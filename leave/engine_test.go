package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-ledger/leave"
	"github.com/warp/leave-ledger/leave/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// The reference clock for all tests: January 15, 2024.
var testNow = time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*leave.Engine, *store.Memory) {
	t.Helper()

	ledger := leave.NewLedger()
	ledger.AddEmployee(leave.NewEmployee("Alice", "alice@company.com", "Engineering", map[leave.Category]int{
		leave.CategorySick:   5,
		leave.CategoryAnnual: 10,
	}))
	ledger.AddEmployee(leave.NewEmployee("Bob", "bob@company.com", "Marketing", map[leave.Category]int{
		leave.CategorySick:   8,
		leave.CategoryAnnual: 15,
	}))

	mem := store.NewMemory()
	engine := leave.NewEngine(ledger, leave.DefaultCatalog(), mem)
	return engine, mem
}

func balanceOf(t *testing.T, engine *leave.Engine, employee string, cat leave.Category) int {
	t.Helper()
	report, err := engine.CheckBalance(employee, leave.SelectCategory(cat))
	require.NoError(t, err)
	require.Len(t, report.Balances, 1)
	return report.Balances[0].Days
}

// =============================================================================
// REQUEST LEAVE
// =============================================================================

func TestRequestLeave_ApprovesAndDecrementsBalance(t *testing.T) {
	// GIVEN: Alice has 5 sick days
	// WHEN: She requests 3 sick days from 2024-02-01
	// THEN: The request is approved, balance drops to 2, record is appended

	engine, mem := newTestEngine(t)
	ctx := context.Background()

	conf, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 3, "2024-02-01", testNow)
	require.NoError(t, err)

	assert.NotEmpty(t, conf.RecordID)
	assert.Equal(t, leave.CategorySick, conf.Category)
	assert.Equal(t, 3, conf.Days)
	assert.Equal(t, "2024-02-01", conf.Start.String())
	assert.Equal(t, "2024-02-03", conf.End.String())
	assert.Equal(t, 2, conf.NewBalance)

	assert.Equal(t, 2, balanceOf(t, engine, "Alice", leave.CategorySick))

	history, err := engine.ViewHistory("Alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, leave.StatusApproved, history[0].Status)
	assert.Equal(t, "2024-01-15", history[0].RequestedAt.String())

	// Persistence was triggered once.
	assert.Equal(t, 1, mem.Saves())
}

func TestRequestLeave_InsufficientBalance_NoStateChange(t *testing.T) {
	// GIVEN: Alice has 5 sick days
	// WHEN: She requests 6 sick days
	// THEN: InsufficientBalance reporting 5 available; nothing changes

	engine, mem := newTestEngine(t)

	conf, err := engine.RequestLeave(context.Background(), "Alice", leave.CategorySick, 6, "2024-02-01", testNow)
	assert.Nil(t, conf)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	var insufficient *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 5, insufficient.Available)
	assert.Equal(t, 6, insufficient.Requested)

	assert.Equal(t, 5, balanceOf(t, engine, "Alice", leave.CategorySick))
	history, err := engine.ViewHistory("Alice")
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, 0, mem.Saves(), "rejected request must not persist")
}

func TestRequestLeave_BalanceNeverGoesNegative(t *testing.T) {
	// GIVEN: Alice has 5 sick days
	// WHEN: Requests are made until the balance cannot cover them
	// THEN: The balance floors at >= 0, over-budget requests are rejected

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 3, "2024-02-01", testNow)
	require.NoError(t, err)
	_, err = engine.RequestLeave(ctx, "Alice", leave.CategorySick, 2, "2024-02-10", testNow)
	require.NoError(t, err)

	// 0 remaining: any further request fails.
	_, err = engine.RequestLeave(ctx, "Alice", leave.CategorySick, 1, "2024-02-20", testNow)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	assert.Equal(t, 0, balanceOf(t, engine, "Alice", leave.CategorySick))
}

func TestRequestLeave_ErrorPrecedence_InsufficientBeforeOverlap(t *testing.T) {
	// GIVEN: Alice approved for 3 sick days from 2024-03-01, 2 remaining
	// WHEN: She requests 10 sick days from 2024-03-02 (over budget AND overlapping)
	// THEN: InsufficientBalance is reported, not OverlappingLeave

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 3, "2024-03-01", testNow)
	require.NoError(t, err)

	_, err = engine.RequestLeave(ctx, "Alice", leave.CategorySick, 10, "2024-03-02", testNow)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	assert.NotErrorIs(t, err, leave.ErrOverlappingLeave)
}

func TestRequestLeave_CrossCategoryOverlap_Rejected(t *testing.T) {
	// GIVEN: Alice approved for 3 sick days covering 03-01..03-03
	// WHEN: She requests 2 annual days from 03-02 (different category)
	// THEN: OverlappingLeave - conflict detection ignores category

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 3, "2024-03-01", testNow)
	require.NoError(t, err)

	conf, err := engine.RequestLeave(ctx, "Alice", leave.CategoryAnnual, 2, "2024-03-02", testNow)
	assert.Nil(t, conf)
	assert.ErrorIs(t, err, leave.ErrOverlappingLeave)

	var overlap *leave.OverlappingLeaveError
	require.ErrorAs(t, err, &overlap)
	assert.Equal(t, leave.CategorySick, overlap.Conflict.Category)

	// Annual balance untouched.
	assert.Equal(t, 10, balanceOf(t, engine, "Alice", leave.CategoryAnnual))
}

func TestRequestLeave_AdjacentRanges_Succeed(t *testing.T) {
	// GIVEN: Alice approved for 2 sick days covering 03-01..03-02
	// WHEN: She requests 2 annual days from 03-03 (adjacent, not overlapping)
	// THEN: Both requests succeed

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 2, "2024-03-01", testNow)
	require.NoError(t, err)

	conf, err := engine.RequestLeave(ctx, "Alice", leave.CategoryAnnual, 2, "2024-03-03", testNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", conf.Start.String())
	assert.Equal(t, "2024-03-04", conf.End.String())
}

func TestRequestLeave_TodayKeyword_UsesReferenceClock(t *testing.T) {
	engine, _ := newTestEngine(t)

	conf, err := engine.RequestLeave(context.Background(), "Alice", leave.CategorySick, 1, "today", testNow)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", conf.Start.String())
}

func TestRequestLeave_ValidationErrors(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	t.Run("unknown employee", func(t *testing.T) {
		_, err := engine.RequestLeave(ctx, "Mallory", leave.CategorySick, 1, "2024-02-01", testNow)
		assert.ErrorIs(t, err, leave.ErrUnknownEmployee)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := engine.RequestLeave(ctx, "Alice", "Gardening Leave", 1, "2024-02-01", testNow)
		assert.ErrorIs(t, err, leave.ErrUnknownCategory)

		var unknown *leave.UnknownCategoryError
		require.ErrorAs(t, err, &unknown)
		assert.Contains(t, unknown.Available, leave.CategorySick)
	})

	t.Run("zero days", func(t *testing.T) {
		_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 0, "2024-02-01", testNow)
		assert.ErrorIs(t, err, leave.ErrInvalidQuantity)
	})

	t.Run("negative days", func(t *testing.T) {
		_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, -3, "2024-02-01", testNow)
		assert.ErrorIs(t, err, leave.ErrInvalidQuantity)
	})

	t.Run("unparseable date lists accepted formats", func(t *testing.T) {
		_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 1, "next Monday", testNow)
		assert.ErrorIs(t, err, leave.ErrInvalidDate)

		var invalid *leave.InvalidDateError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, leave.AcceptedDateFormats, invalid.Accepted)
	})
}

// =============================================================================
// CANCEL LEAVE
// =============================================================================

func TestCancelLeave_RestoresBalanceExactly(t *testing.T) {
	// GIVEN: Alice requested 3 sick days from 2024-02-01 (balance 5 -> 2)
	// WHEN: She cancels that leave
	// THEN: Balance returns to exactly 5; the record flips to cancelled

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 3, "2024-02-01", testNow)
	require.NoError(t, err)

	conf, err := engine.CancelLeave(ctx, "Alice", leave.CategorySick, "2024-02-01", testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, conf.RestoredDays)
	assert.Equal(t, 5, conf.NewBalance)

	assert.Equal(t, 5, balanceOf(t, engine, "Alice", leave.CategorySick))

	// Cancellation is a status flip, not a removal.
	history, err := engine.ViewHistory("Alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, leave.StatusCancelled, history[0].Status)
}

func TestCancelLeave_SecondCancelFails(t *testing.T) {
	// GIVEN: A request that was already cancelled
	// WHEN: The identical cancellation is attempted again
	// THEN: NoMatchingLeave - the scan only considers approved records

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 3, "2024-02-01", testNow)
	require.NoError(t, err)
	_, err = engine.CancelLeave(ctx, "Alice", leave.CategorySick, "2024-02-01", testNow)
	require.NoError(t, err)

	_, err = engine.CancelLeave(ctx, "Alice", leave.CategorySick, "2024-02-01", testNow)
	assert.ErrorIs(t, err, leave.ErrNoMatchingLeave)
	assert.Equal(t, 5, balanceOf(t, engine, "Alice", leave.CategorySick))
}

func TestCancelLeave_NoMatch_ReportsApprovedRecords(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategoryAnnual, 2, "2024-04-01", testNow)
	require.NoError(t, err)

	_, err = engine.CancelLeave(ctx, "Alice", leave.CategorySick, "2024-04-01", testNow)
	assert.ErrorIs(t, err, leave.ErrNoMatchingLeave)

	var noMatch *leave.NoMatchingLeaveError
	require.ErrorAs(t, err, &noMatch)
	require.Len(t, noMatch.Approved, 1)
	assert.Equal(t, leave.CategoryAnnual, noMatch.Approved[0].Category)
}

func TestCancelLeave_MatchesNormalizedDate(t *testing.T) {
	// The request used year-first dashes; the cancellation uses day-first
	// dots. Both normalize to the same canonical date.

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 2, "2024-03-01", testNow)
	require.NoError(t, err)

	_, err = engine.CancelLeave(ctx, "Alice", leave.CategorySick, "01.03.2024", testNow)
	assert.NoError(t, err)
}

func TestCancelLeave_FreesRangeForReRequest(t *testing.T) {
	// GIVEN: A cancelled leave over 03-01..03-03
	// WHEN: A new request covers the same range
	// THEN: It succeeds - cancelled records are ignored by overlap checks

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 3, "2024-03-01", testNow)
	require.NoError(t, err)
	_, err = engine.CancelLeave(ctx, "Alice", leave.CategorySick, "2024-03-01", testNow)
	require.NoError(t, err)

	_, err = engine.RequestLeave(ctx, "Alice", leave.CategoryAnnual, 3, "2024-03-01", testNow)
	assert.NoError(t, err)
}

func TestCancelLeaveByID_TargetsExactRecord(t *testing.T) {
	// GIVEN: Two approved sick leaves
	// WHEN: The second is cancelled by its record ID
	// THEN: Only that record flips; the first stays approved

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 2, "2024-03-01", testNow)
	require.NoError(t, err)
	second, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 2, "2024-04-01", testNow)
	require.NoError(t, err)

	conf, err := engine.CancelLeaveByID(ctx, "Alice", second.RecordID)
	require.NoError(t, err)
	assert.Equal(t, second.RecordID, conf.RecordID)

	history, err := engine.ViewHistory("Alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, leave.StatusApproved, history[0].Status)
	assert.Equal(t, leave.StatusCancelled, history[1].Status)
	_ = first
}

func TestCancelLeaveByID_UnknownID(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CancelLeaveByID(context.Background(), "Alice", "no-such-record")
	assert.ErrorIs(t, err, leave.ErrNoMatchingLeave)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestViewHistory_CompleteAndOrdered(t *testing.T) {
	// GIVEN: A mixed sequence of requests and one cancellation
	// WHEN: History is viewed
	// THEN: Every request appears, in call order, with its final status

	engine, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.RequestLeave(ctx, "Alice", leave.CategorySick, 2, "2024-02-01", testNow)
	require.NoError(t, err)
	_, err = engine.RequestLeave(ctx, "Alice", leave.CategoryAnnual, 3, "2024-03-01", testNow)
	require.NoError(t, err)
	_, err = engine.CancelLeave(ctx, "Alice", leave.CategorySick, "2024-02-01", testNow)
	require.NoError(t, err)
	_, err = engine.RequestLeave(ctx, "Alice", leave.CategorySick, 1, "2024-02-02", testNow)
	require.NoError(t, err)

	history, err := engine.ViewHistory("Alice")
	require.NoError(t, err)
	require.Len(t, history, 3, "cancellation flips status, it does not add or remove records")

	assert.Equal(t, leave.CategorySick, history[0].Category)
	assert.Equal(t, leave.StatusCancelled, history[0].Status)
	assert.Equal(t, leave.CategoryAnnual, history[1].Category)
	assert.Equal(t, leave.StatusApproved, history[1].Status)
	assert.Equal(t, leave.CategorySick, history[2].Category)
	assert.Equal(t, leave.StatusApproved, history[2].Status)
}

func TestViewHistory_EmptyForNewEmployee(t *testing.T) {
	engine, _ := newTestEngine(t)

	history, err := engine.ViewHistory("Bob")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestViewHistory_UnknownEmployee(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ViewHistory("Mallory")
	assert.ErrorIs(t, err, leave.ErrUnknownEmployee)
}

// =============================================================================
// CHECK BALANCE
// =============================================================================

func TestCheckBalance_Selectors(t *testing.T) {
	engine, _ := newTestEngine(t)

	t.Run("all categories", func(t *testing.T) {
		report, err := engine.CheckBalance("Alice", leave.SelectAllCategories())
		require.NoError(t, err)
		assert.Len(t, report.Balances, 4, "all catalog categories, allocated or not")
	})

	t.Run("single category", func(t *testing.T) {
		report, err := engine.CheckBalance("Alice", leave.SelectCategory(leave.CategoryAnnual))
		require.NoError(t, err)
		require.Len(t, report.Balances, 1)
		assert.Equal(t, 10, report.Balances[0].Days)
	})

	t.Run("many categories", func(t *testing.T) {
		report, err := engine.CheckBalance("Alice", leave.SelectCategories(leave.CategorySick, leave.CategoryAnnual))
		require.NoError(t, err)
		assert.Len(t, report.Balances, 2)
	})

	t.Run("unknown employee", func(t *testing.T) {
		_, err := engine.CheckBalance("Mallory", leave.SelectAllCategories())
		assert.ErrorIs(t, err, leave.ErrUnknownEmployee)
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := engine.CheckBalance("Alice", leave.SelectCategory("Gardening Leave"))
		assert.ErrorIs(t, err, leave.ErrUnknownCategory)
	})
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestRequestLeave_PersistenceFailure_CommitStands(t *testing.T) {
	// GIVEN: The persistence port will fail on the next save
	// WHEN: A valid request is made
	// THEN: The confirmation is returned with a PersistenceError; the
	//       in-memory mutation is NOT rolled back

	engine, mem := newTestEngine(t)
	mem.FailNext(errors.New("disk full"))

	conf, err := engine.RequestLeave(context.Background(), "Alice", leave.CategorySick, 3, "2024-02-01", testNow)
	require.NotNil(t, conf, "confirmation is returned even when persistence fails")
	assert.ErrorIs(t, err, leave.ErrPersistenceFailure)

	assert.Equal(t, 2, balanceOf(t, engine, "Alice", leave.CategorySick))
	history, herr := engine.ViewHistory("Alice")
	require.NoError(t, herr)
	assert.Len(t, history, 1)
}

func TestPersistence_BalancesOnlyByDefault(t *testing.T) {
	engine, mem := newTestEngine(t)

	_, err := engine.RequestLeave(context.Background(), "Alice", leave.CategorySick, 1, "2024-02-01", testNow)
	require.NoError(t, err)

	snap := mem.Last()
	assert.Nil(t, snap.Records, "history is not persisted unless enabled")
	require.NotEmpty(t, snap.Employees)

	for _, es := range snap.Employees {
		if es.Name == "Alice" {
			assert.Equal(t, 4, es.Balances[leave.CategorySick])
			assert.Equal(t, "alice@company.com", es.Email)
			assert.Equal(t, "Engineering", es.Department)
		}
	}
}

func TestPersistence_HistoryWhenEnabled(t *testing.T) {
	engine, mem := newTestEngine(t)
	engine.PersistHistory = true

	_, err := engine.RequestLeave(context.Background(), "Alice", leave.CategorySick, 1, "2024-02-01", testNow)
	require.NoError(t, err)

	snap := mem.Last()
	require.NotNil(t, snap.Records)
	require.Len(t, snap.Records["Alice"], 1)
	assert.Equal(t, leave.StatusApproved, snap.Records["Alice"][0].Status)
}
