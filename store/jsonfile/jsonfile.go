/*
Package jsonfile persists the ledger as a single JSON document.

PURPOSE:
  Implements the persistence port over the employees.json layout: a
  top-level "employees" map from name to email, department, and
  leave_balance, plus a "leave_history" map that is only populated when
  history persistence is enabled.

LAYOUT:
  {
    "employees": {
      "Alice": {
        "email": "alice@company.com",
        "department": "Engineering",
        "leave_balance": {"Sick Leave": 5, "Annual Leave": 10}
      }
    },
    "leave_history": {
      "Alice": [
        {"id": "...", "type": "Sick Leave", "days": 3,
         "start_date": "2024-02-01", "status": "approved",
         "request_date": "2024-01-15"}
      ]
    }
  }

DURABILITY:
  The whole document is rewritten on every save, via a temp file and
  rename so a crash mid-write never truncates the previous state.

SEE ALSO:
  - leave/port.go: The interface this implements
  - store/sqlite: The database-backed alternative
*/
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/warp/leave-ledger/leave"
)

// Store reads and writes the ledger document at a fixed path.
type Store struct {
	path string
}

// New creates a store for the given file path. The file need not exist
// yet; Load reports os.ErrNotExist in that case.
func New(path string) *Store {
	return &Store{path: path}
}

// =============================================================================
// FILE SHAPE
// =============================================================================

type fileDoc struct {
	Employees map[string]fileEmployee `json:"employees"`
	History   map[string][]fileRecord `json:"leave_history"`
}

type fileEmployee struct {
	Email      string         `json:"email"`
	Department string         `json:"department"`
	Balances   map[string]int `json:"leave_balance"`
}

type fileRecord struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Days        int    `json:"days"`
	StartDate   string `json:"start_date"`
	Status      string `json:"status"`
	RequestDate string `json:"request_date"`
}

// =============================================================================
// PORT IMPLEMENTATION
// =============================================================================

// SaveSnapshot rewrites the document in full.
func (s *Store) SaveSnapshot(_ context.Context, snap leave.Snapshot) error {
	doc := fileDoc{
		Employees: make(map[string]fileEmployee, len(snap.Employees)),
		History:   make(map[string][]fileRecord),
	}
	for _, es := range snap.Employees {
		balances := make(map[string]int, len(es.Balances))
		for cat, days := range es.Balances {
			balances[string(cat)] = days
		}
		doc.Employees[es.Name] = fileEmployee{
			Email:      es.Email,
			Department: es.Department,
			Balances:   balances,
		}
	}
	for name, states := range snap.Records {
		records := make([]fileRecord, len(states))
		for i, rs := range states {
			records[i] = fileRecord{
				ID:          rs.ID,
				Type:        string(rs.Category),
				Days:        rs.Days,
				StartDate:   rs.Start.String(),
				Status:      string(rs.Status),
				RequestDate: rs.RequestedAt.String(),
			}
		}
		doc.History[name] = records
	}

	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger document: %w", err)
	}
	return writeAtomic(s.path, data)
}

// Load reads the document back into a snapshot. A missing history section
// yields a snapshot with nil Records.
func (s *Store) Load(_ context.Context) (leave.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return leave.Snapshot{}, err
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return leave.Snapshot{}, fmt.Errorf("invalid ledger document %s: %w", s.path, err)
	}

	snap := leave.Snapshot{}
	for name, fe := range doc.Employees {
		balances := make(map[leave.Category]int, len(fe.Balances))
		for cat, days := range fe.Balances {
			balances[leave.Category(cat)] = days
		}
		snap.Employees = append(snap.Employees, leave.EmployeeState{
			Name:       name,
			Email:      fe.Email,
			Department: fe.Department,
			Balances:   balances,
		})
	}

	if len(doc.History) > 0 {
		snap.Records = make(map[string][]leave.RecordState, len(doc.History))
		for name, records := range doc.History {
			states := make([]leave.RecordState, len(records))
			for i, fr := range records {
				start, err := parseDate(fr.StartDate)
				if err != nil {
					return leave.Snapshot{}, fmt.Errorf("record %s for %s: %w", fr.ID, name, err)
				}
				requested, err := parseDate(fr.RequestDate)
				if err != nil {
					return leave.Snapshot{}, fmt.Errorf("record %s for %s: %w", fr.ID, name, err)
				}
				states[i] = leave.RecordState{
					ID:          fr.ID,
					Category:    leave.Category(fr.Type),
					Days:        fr.Days,
					Start:       start,
					Status:      leave.RecordStatus(fr.Status),
					RequestedAt: requested,
				}
			}
			snap.Records[name] = states
		}
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

// writeAtomic writes via a temp file in the same directory, then renames.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
