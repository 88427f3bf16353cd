package entities

// RosterMember is one member of a team roster
type RosterMember struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RosterView is the read-only view of a team the dispatcher fans out over.
// Team membership itself is managed elsewhere; the orchestrator only needs
// names and addresses.
type RosterView struct {
	TeamID   string         `json:"team_id"`
	TeamName string         `json:"team_name"`
	Members  []RosterMember `json:"members"`
}

// Emails returns the member email addresses in roster order
func (r RosterView) Emails() []string {
	emails := make([]string, 0, len(r.Members))
	for _, m := range r.Members {
		emails = append(emails, m.Email)
	}
	return emails
}
