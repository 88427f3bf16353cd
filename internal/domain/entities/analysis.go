package entities

import "time"

// MeetingAnalysis represents the structured output of the language-model
// analysis of one transcript. It is produced atomically: a partially parsed
// model response never yields a MeetingAnalysis.
type MeetingAnalysis struct {
	Summary     string       `json:"summary"`
	Decisions   []string     `json:"decisions"`
	ActionItems []ActionItem `json:"action_items"`
}

// ActionItem is a single task extracted from the transcript. Description is
// the only required field; a missing assignee or due date is a normal case.
type ActionItem struct {
	Description string     `json:"task"`
	Assignee    string     `json:"assignee,omitempty"`
	DueDateText string     `json:"due_date,omitempty"`
	DueDate     *time.Time `json:"-"`
}

// HasAssignee reports whether the model named a concrete assignee.
func (a ActionItem) HasAssignee() bool {
	return a.Assignee != ""
}
