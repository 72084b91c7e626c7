package leave

// =============================================================================
// OVERLAP CHECK - Closed-interval intersection against approved records
// =============================================================================

// findConflict returns the first approved record whose inclusive date range
// intersects [start, start+days-1], or nil if none does. Cancelled records
// are ignored. Conflict detection is cross-category: the caller passes all
// of the employee's approved records, not just one category's.
//
// Two inclusive ranges [a1,a2] and [b1,b2] intersect iff a1 <= b2 && b1 <= a2.
func findConflict(approved []*Record, start Date, days int) *Record {
	candidateEnd := start.AddDays(days - 1)
	for _, rec := range approved {
		if rec.Status != StatusApproved {
			continue
		}
		if start.BeforeOrEqual(rec.End()) && rec.Start.BeforeOrEqual(candidateEnd) {
			return rec
		}
	}
	return nil
}

// Overlaps reports whether a candidate range conflicts with any approved
// record in the slice.
func Overlaps(approved []*Record, start Date, days int) bool {
	return findConflict(approved, start, days) != nil
}
