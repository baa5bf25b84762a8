package models

// Metadata contains additional tags and information about a task
type Metadata struct {
	// IsVirtual marks a computed occurrence that has no row of its own.
	// It is cleared when the instance is materialized.
	IsVirtual bool     `json:"is_virtual,omitempty"`
	Priority  *string  `json:"priority,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Note      string   `json:"note,omitempty"`
}

// Clone returns a deep copy so instances never share tag slices with their
// series root.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Tags != nil {
		out.Tags = make([]string, len(m.Tags))
		copy(out.Tags, m.Tags)
	}
	if m.Priority != nil {
		p := *m.Priority
		out.Priority = &p
	}
	return out
}
