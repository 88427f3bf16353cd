package automation

import "time"

// RunAutomationRequest is the request to analyze a transcript and fan out
// the follow-up side effects
type RunAutomationRequest struct {
	Transcript string          `json:"transcript" validate:"required,min=1"`
	Roster     RosterRequest   `json:"roster"`
	Options    *OptionsRequest `json:"options,omitempty"`
}

// RosterRequest carries the recipients for the summary email
type RosterRequest struct {
	TeamID   string          `json:"team_id,omitempty"`
	TeamName string          `json:"team_name,omitempty"`
	Members  []MemberRequest `json:"members" validate:"dive"`
}

// MemberRequest is a single roster member
type MemberRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email" validate:"required,email"`
}

// OptionsRequest selects which side effects run. When omitted, both the
// summary email and the tracker cards are produced.
type OptionsRequest struct {
	SendEmail   bool   `json:"send_email"`
	CreateCards bool   `json:"create_cards"`
	BoardID     string `json:"board_id,omitempty"`
	ListID      string `json:"list_id,omitempty"`
}

// ActionItemResponse is one extracted action item
type ActionItemResponse struct {
	Task     string `json:"task"`
	Assignee string `json:"assignee,omitempty"`
	DueDate  string `json:"due_date,omitempty"`
}

// AnalysisResponse is the validated analysis of one transcript
type AnalysisResponse struct {
	Summary     string               `json:"summary"`
	Decisions   []string             `json:"decisions"`
	ActionItems []ActionItemResponse `json:"action_items"`
}

// TaskResponse is the externally visible state of one automation task
type TaskResponse struct {
	ID           string    `json:"id"`
	BatchID      string    `json:"batch_id"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	ExternalRef  *string   `json:"external_ref,omitempty"`
	AttemptCount int       `json:"attempt_count"`
	LastError    *string   `json:"last_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RunAutomationResponse is the outcome of one automation pass
type RunAutomationResponse struct {
	BatchID  string           `json:"batch_id"`
	Analysis AnalysisResponse `json:"analysis"`
	Tasks    []TaskResponse   `json:"tasks"`
}

// BatchTasksResponse lists every task created by one automation pass
type BatchTasksResponse struct {
	BatchID string         `json:"batch_id"`
	Tasks   []TaskResponse `json:"tasks"`
	Total   int            `json:"total"`
}

// BoardListResponse is one list on a tracker board
type BoardListResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BoardListsResponse enumerates the lists of a tracker board
type BoardListsResponse struct {
	BoardID string              `json:"board_id"`
	Lists   []BoardListResponse `json:"lists"`
	Cached  bool                `json:"cached"`
}
