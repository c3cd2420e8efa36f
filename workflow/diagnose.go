package workflow

import (
	"context"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/customfield"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// DiagnosisFields is the projection used to inspect the State field.
const DiagnosisFields = "name,possibleEvents(id,presentation),value(name),$type"

const stateMachineTag = "StateMachineIssueCustomField"

// Transition modes.
const (
	ModeEventDriven = "event-driven"
	ModeDirect      = "direct"
)

// Diagnosis explains how an issue's state can be changed.
type Diagnosis struct {
	Status          string       `json:"status"`
	IssueID         string       `json:"issue_id"`
	CurrentState    string       `json:"current_state"`
	FieldType       string       `json:"field_type"`
	TransitionMode  string       `json:"transition_mode"`
	Events          []*api.Event `json:"available_events"`
	Restrictions    []string     `json:"restrictions"`
	Recommendations []string     `json:"recommendations"`
}

// Diagnose inspects the State field of an issue without changing it.
func (h *Handler) Diagnose(ctx context.Context, issueID string) (*Diagnosis, error) {
	if strings.TrimSpace(issueID) == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	fields, err := h.issues.CustomFields(ctx, issueID, DiagnosisFields)
	if err != nil {
		return nil, err
	}
	var state *api.CustomField
	for _, field := range fields {
		if field.Name == StateField {
			state = field
			break
		}
	}
	if state == nil {
		return nil, tracker.NotFound("issue %v has no %v field", issueID, StateField)
	}
	result := &Diagnosis{
		Status:          "success",
		IssueID:         issueID,
		CurrentState:    customfield.Extract(state.Value),
		FieldType:       state.Type,
		Events:          state.PossibleEvents,
		Restrictions:    []string{},
		Recommendations: []string{},
	}
	if result.Events == nil {
		result.Events = []*api.Event{}
	}
	if state.Type != stateMachineTag {
		result.TransitionMode = ModeDirect
		result.Recommendations = append(result.Recommendations,
			"The State field accepts direct updates; use update_issue_state with the target state name.")
		return result, nil
	}
	result.TransitionMode = ModeEventDriven
	if len(state.PossibleEvents) == 0 {
		result.Restrictions = append(result.Restrictions, "no transitions available from "+quoteState(result.CurrentState))
		result.Recommendations = append(result.Recommendations,
			"No events are available to the current user; ask a project administrator to review the state machine.")
		return result, nil
	}
	names := make([]string, 0, len(state.PossibleEvents))
	for _, event := range state.PossibleEvents {
		name := event.Presentation
		if name == "" {
			name = event.ID
		}
		names = append(names, name)
	}
	result.Recommendations = append(result.Recommendations,
		"Transitions are event driven; pick one of: "+strings.Join(names, ", ")+".",
		"Pass the event name as the new state to update_issue_state; it is applied through the commands API when the direct update is refused.")
	return result, nil
}

func quoteState(state string) string {
	if state == "" {
		return "the current state"
	}
	return `"` + state + `"`
}
