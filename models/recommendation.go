package models

// Priority is the urgency bucket assigned to a complaint by the dispatch engine
type Priority string

// Priorities
const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Valid reports whether p is one of High, Medium or Low
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// AssignedOfficer identifies the officer chosen by the dispatch engine
type AssignedOfficer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Recommendation is the ephemeral output of the dispatch engine. It is never
// persisted; an administrator either accepts it (which copies the category
// onto the complaint and forces status to Under Review) or discards it.
// Reasoning is advisory text only; no downstream logic may parse it.
type Recommendation struct {
	SuggestedCategory     ComplaintCategory `json:"suggestedCategory"`
	RecommendedDepartment Department        `json:"recommendedDepartment"`
	Priority              Priority          `json:"priority"`
	AssignedOfficer       AssignedOfficer   `json:"assignedOfficer"`
	Reasoning             string            `json:"reasoning"`
}
