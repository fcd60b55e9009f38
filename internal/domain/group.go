package domain

import "time"

// GroupStatus is the lifecycle state of a transaction group.
type GroupStatus string

const (
	GroupOpen      GroupStatus = "OPEN"
	GroupResolved  GroupStatus = "RESOLVED"
	GroupCancelled GroupStatus = "CANCELLED"
)

// groupTransitions mirrors the shape of statusTransitions: a group leaves
// OPEN exactly once and never comes back.
var groupTransitions = map[GroupStatus][]GroupStatus{
	GroupOpen:      {GroupResolved, GroupCancelled},
	GroupResolved:  {},
	GroupCancelled: {},
}

// ValidGroupStatus reports whether s is a known group state.
func ValidGroupStatus(s GroupStatus) bool {
	_, ok := groupTransitions[s]
	return ok
}

// CanTransitionGroup reports whether moving from -> to is legal for a group.
func CanTransitionGroup(from, to GroupStatus) bool {
	for _, next := range groupTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransactionGroup links two or more existing transactions under one label,
// e.g. the two legs of a transfer. Member ids are foreign references into the
// ledger: the group never duplicates or mutates the transactions themselves.
// Groups are never deleted; cancellation is a status.
type TransactionGroup struct {
	ID             string
	Description    string
	Status         GroupStatus
	TransactionIDs []int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Contains reports whether id is a member of the group.
func (g *TransactionGroup) Contains(id int64) bool {
	for _, member := range g.TransactionIDs {
		if member == id {
			return true
		}
	}
	return false
}
