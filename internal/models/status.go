package models

// Status represents the lifecycle state of a task
type Status string

const (
	StatusTodo    Status = "todo"
	StatusDoing   Status = "doing"
	StatusPaused  Status = "paused"
	StatusDone    Status = "done"
	// StatusDeleted marks a tombstone override instance: the occurrence was
	// removed before it ever became a real row, and the tombstone stops
	// expansion from re-synthesizing the virtual default.
	StatusDeleted Status = "deleted"
)

// IsValidStatus reports whether s is one of the known status values.
func IsValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusDoing, StatusPaused, StatusDone, StatusDeleted:
		return true
	default:
		return false
	}
}

// transitions is the explicit status-transition table. A missing entry means
// the transition is not allowed. Deleted is terminal.
var transitions = map[Status][]Status{
	StatusTodo:   {StatusDoing, StatusDone, StatusDeleted},
	StatusDoing:  {StatusTodo, StatusPaused, StatusDone, StatusDeleted},
	StatusPaused: {StatusTodo, StatusDoing, StatusDeleted},
	StatusDone:   {StatusTodo, StatusDeleted},
}

// CanTransition reports whether moving a task from one status to another is
// allowed. A transition to the current status is never allowed; callers
// should treat it as a no-op instead.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
