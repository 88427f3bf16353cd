package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-autopilot/internal/domain/entities"
)

// Parser handles parsing and validation of model responses into a
// MeetingAnalysis. Any structural mismatch fails the whole parse; a
// half-populated analysis is never returned.
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// dueDateLayouts are the date formats the model has been observed to emit
var dueDateLayouts = []string{
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"02/01/2006",
}

// ParseAnalysis parses the raw model text into a MeetingAnalysis
func (p *Parser) ParseAnalysis(raw string) (*entities.MeetingAnalysis, error) {
	// The model may wrap the JSON in markdown code fences
	raw = extractJSON(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var analysis entities.MeetingAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if err := p.validate(&analysis); err != nil {
		return nil, err
	}

	p.normalize(&analysis)
	return &analysis, nil
}

// validate enforces the required schema. Summary must be present; every
// action item needs a description. Decisions may be empty.
func (p *Parser) validate(analysis *entities.MeetingAnalysis) error {
	if strings.TrimSpace(analysis.Summary) == "" {
		return fmt.Errorf("missing summary in response")
	}
	for i, item := range analysis.ActionItems {
		if strings.TrimSpace(item.Description) == "" {
			return fmt.Errorf("action item %d has no description", i)
		}
	}
	return nil
}

// normalize fills nil slices, strips the model's "Not specified" placeholders
// and parses due dates where a recognizable format was emitted. An
// unparseable date is kept as text, not an error.
func (p *Parser) normalize(analysis *entities.MeetingAnalysis) {
	if analysis.Decisions == nil {
		analysis.Decisions = make([]string, 0)
	}
	if analysis.ActionItems == nil {
		analysis.ActionItems = make([]entities.ActionItem, 0)
	}

	for i := range analysis.ActionItems {
		item := &analysis.ActionItems[i]
		item.Description = strings.TrimSpace(item.Description)

		if isNotSpecified(item.Assignee) {
			item.Assignee = ""
		} else {
			item.Assignee = strings.TrimSpace(item.Assignee)
		}

		if isNotSpecified(item.DueDateText) {
			item.DueDateText = ""
			continue
		}
		item.DueDateText = strings.TrimSpace(item.DueDateText)
		for _, layout := range dueDateLayouts {
			if t, err := time.Parse(layout, item.DueDateText); err == nil {
				item.DueDate = &t
				break
			}
		}
	}
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}

func isNotSpecified(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "" || s == "not specified" || s == "n/a" || s == "none"
}
