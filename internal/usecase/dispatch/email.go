package dispatch

import (
	"fmt"
	"html"
	"strings"

	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
)

// renderSummaryEmail builds the HTML notification body sent to every roster
// member: summary paragraph, decision list, action-item list
func renderSummaryEmail(analysis *entities.MeetingAnalysis) string {
	var sb strings.Builder

	sb.WriteString("<h2>Meeting Summary</h2>")
	sb.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(analysis.Summary)))

	sb.WriteString("<h2>Key Decisions</h2><ul>")
	for _, d := range analysis.Decisions {
		sb.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(d)))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h2>Action Items</h2><ul>")
	for _, item := range analysis.ActionItems {
		assignee := item.Assignee
		if assignee == "" {
			assignee = "Not specified"
		}
		due := item.DueDateText
		if due == "" {
			due = "Not specified"
		}
		sb.WriteString(fmt.Sprintf("<li><b>Task:</b> %s | <b>Assignee:</b> %s | <b>Due:</b> %s</li>",
			html.EscapeString(item.Description),
			html.EscapeString(assignee),
			html.EscapeString(due),
		))
	}
	sb.WriteString("</ul>")

	return sb.String()
}

// renderCardDescription builds the tracker card description for one action item
func renderCardDescription(item entities.ActionItem) string {
	assignee := "Not specified"
	if item.HasAssignee() {
		assignee = item.Assignee
	}
	due := item.DueDateText
	if due == "" {
		due = "Not specified"
	}
	return fmt.Sprintf("Assignee: %s\nDue Date: %s", assignee, due)
}
