package recurrence

import (
	"github.com/benvon/taskdeck/internal/models"
	"github.com/benvon/taskdeck/internal/validation"
)

// IsValid reports whether a rule is well-formed: a known type, a
// non-negative interval, in-range field entries and a coherent end
// condition. It never panics or returns an error; callers treat invalid
// rules as producing no occurrences.
func IsValid(rule models.RecurrenceRule) bool {
	if err := validation.Validate.Struct(rule); err != nil {
		return false
	}
	if ec := rule.EndCondition; ec != nil {
		switch ec.Type {
		case models.EndByDate:
			if ec.EndDate == nil {
				return false
			}
		case models.EndByCount:
			if ec.Count < 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
