package domain

// statusTransitions is the full transition table for the transaction
// lifecycle. Extending the label set means adding rows here; the surrounding
// code never special-cases individual states.
var statusTransitions = map[Status][]Status{
	StatusNew:       {StatusPending, StatusCancelled},
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusArchived},
	StatusCancelled: {StatusArchived},
	StatusArchived:  {},
}

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s Status) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether moving from -> to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Editable reports whether a transaction in status s may have its description
// or amount changed. Only NEW and PENDING transactions are editable; once a
// transaction is confirmed, cancelled or archived its fields are frozen.
func Editable(s Status) bool {
	return s == StatusNew || s == StatusPending
}

// Terminal reports whether no transition leaves status s.
func Terminal(s Status) bool {
	return len(statusTransitions[s]) == 0
}
