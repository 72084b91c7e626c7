package jsonfile

import (
	"context"
	"errors"
	"os"

	"github.com/warp/leave-ledger/leave"
)

// DefaultSnapshot returns the shipped sample roster. Used to seed a fresh
// deployment when no data file exists yet.
func DefaultSnapshot() leave.Snapshot {
	emp := func(name, email, department string, sick, annual, maternity, paternity int) leave.EmployeeState {
		return leave.EmployeeState{
			Name:       name,
			Email:      email,
			Department: department,
			Balances: map[leave.Category]int{
				leave.CategorySick:      sick,
				leave.CategoryAnnual:    annual,
				leave.CategoryMaternity: maternity,
				leave.CategoryPaternity: paternity,
			},
		}
	}
	return leave.Snapshot{
		Employees: []leave.EmployeeState{
			emp("Alice", "alice@company.com", "Engineering", 5, 10, 0, 0),
			emp("Bob", "bob@company.com", "Marketing", 8, 15, 0, 0),
			emp("Charlie", "charlie@company.com", "Finance", 7, 12, 0, 0),
			emp("Diana", "diana@company.com", "Human Resources", 6, 8, 90, 0),
			emp("Ethan", "ethan@company.com", "Engineering", 3, 5, 0, 0),
			emp("Fiona", "fiona@company.com", "Sales", 10, 20, 0, 0),
			emp("George", "george@company.com", "Operations", 4, 6, 0, 0),
			emp("Hannah", "hannah@company.com", "Research", 5, 12, 0, 0),
			emp("Irene", "irene@company.com", "Engineering", 9, 18, 120, 0),
			emp("Jack", "jack@company.com", "Legal", 2, 7, 0, 0),
		},
	}
}

// LoadOrSeed loads the document, writing the default roster first if the
// file does not exist yet.
func (s *Store) LoadOrSeed(ctx context.Context) (leave.Snapshot, error) {
	snap, err := s.Load(ctx)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return leave.Snapshot{}, err
	}

	seed := DefaultSnapshot()
	if err := s.SaveSnapshot(ctx, seed); err != nil {
		return leave.Snapshot{}, err
	}
	return seed, nil
}
