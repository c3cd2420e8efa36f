// Package workflow moves issues between states, falling back from the direct
// field API to commands and explaining transitions the tracker refuses.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tonyzorin/youtrack-mcp/api"
	"github.com/tonyzorin/youtrack-mcp/customfield"
	"github.com/tonyzorin/youtrack-mcp/tracker"
)

// StateField is the name of the workflow state field.
const StateField = "State"

// DiagnosisTool names the read-only operation explaining restrictions.
const DiagnosisTool = "diagnose_workflow_restrictions"

// Handler performs state transitions.
type Handler struct {
	issues   *api.Issues
	commands *api.Commands
	logger   *slog.Logger
}

// New creates a handler.
func New(service *api.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{issues: service.Issues, commands: service.Commands, logger: logger}
}

// Transition is a completed state change.
type Transition struct {
	Status        string     `json:"status"`
	IssueID       string     `json:"issue_id"`
	NewState      string     `json:"new_state"`
	PreviousState string     `json:"previous_state,omitempty"`
	APIMethod     string     `json:"api_method"`
	Issue         *api.Issue `json:"issue,omitempty"`
}

// UpdateState sets the issue's State to target. The direct field update runs
// first; when it fails or leaves the state unchanged the commands API is
// tried. When both fail the returned error has kind workflow-restriction and
// carries guidance.
func (h *Handler) UpdateState(ctx context.Context, issueID, target string) (*Transition, error) {
	issueID = strings.TrimSpace(issueID)
	target = strings.TrimSpace(target)
	if issueID == "" {
		return nil, tracker.BadInput("issue id is required")
	}
	if target == "" {
		return nil, tracker.BadInput("new state is required")
	}
	var trail []error

	// State is addressed by name; the tracker resolves it per project.
	update := customfield.Encode("", StateField, customfield.StateValue{Name: target})
	err := h.issues.UpdateFields(ctx, issueID, update)
	if err == nil {
		issue, fetchErr := h.issues.Get(ctx, issueID)
		switch {
		case fetchErr != nil:
			trail = append(trail, fetchErr)
		case StateOf(issue) == target:
			return h.transition(issueID, target, customfield.MethodDirect, issue), nil
		default:
			h.logger.Debug("direct state update left state unchanged", "issue", issueID, "state", StateOf(issue), "target", target)
		}
	} else {
		trail = append(trail, err)
		h.logger.Debug("direct state update failed", "issue", issueID, "target", target, "error", err)
	}
	if ctx.Err() != nil {
		return nil, tracker.TransportError(issueID, ctx.Err())
	}

	query := StateField + " " + api.QuoteValue(target)
	if err = h.commands.Apply(ctx, query, issueID); err == nil {
		issue, fetchErr := h.issues.Get(ctx, issueID)
		if fetchErr != nil {
			h.logger.Warn("failed to refetch issue after state command", "issue", issueID, "error", fetchErr)
		}
		return h.transition(issueID, target, customfield.MethodCommands, issue), nil
	}
	trail = append(trail, err)
	h.logger.Debug("state command failed", "issue", issueID, "target", target, "error", err)
	if ctx.Err() != nil {
		return nil, tracker.TransportError(issueID, ctx.Err())
	}

	current := ""
	if issue, fetchErr := h.issues.Get(ctx, issueID); fetchErr == nil {
		current = StateOf(issue)
	}
	return nil, restriction(issueID, current, target, trail)
}

func (h *Handler) transition(issueID, target, method string, issue *api.Issue) *Transition {
	return &Transition{Status: "success", IssueID: issueID, NewState: target, APIMethod: method, Issue: issue}
}

// StateOf returns the display value of the issue's State field.
func StateOf(issue *api.Issue) string {
	if issue == nil {
		return ""
	}
	if field := issue.Field(StateField); field != nil {
		return customfield.Extract(field.Value)
	}
	return ""
}

// Guidance returns plain-language advice for a refused transition.
func Guidance(current, target string, trail []error) []string {
	var result []string
	if strings.EqualFold(target, "Open") && strings.EqualFold(current, "Submitted") {
		result = append(result, "Backward transition blocked: the workflow does not allow moving from Submitted back to Open. Try a forward state such as In Progress.")
	}
	if strings.EqualFold(target, "In Progress") {
		result = append(result, "Moving to In Progress may require an assignee. Set the assignee first, then retry the transition.")
	}
	if isResolvedState(current) && !isResolvedState(target) {
		result = append(result, "Reopening an issue in "+current+" may require elevated permission or a dedicated reopen transition.")
	}
	for _, err := range trail {
		if tracker.StatusOf(err) == http.StatusMethodNotAllowed {
			result = append(result, "The operation is not allowed by the project workflow.")
			break
		}
	}
	if len(result) == 0 {
		result = append(result, fmt.Sprintf("The workflow rejected the transition from %q to %q.", current, target))
	}
	return result
}

func isResolvedState(state string) bool {
	return strings.EqualFold(state, "Fixed") || strings.EqualFold(state, "Closed")
}

func restriction(issueID, current, target string, trail []error) *tracker.Error {
	guidance := Guidance(current, target, trail)
	suggestions := []string{
		"Run " + DiagnosisTool + " to list the transitions available from the current state.",
		"Move through intermediate states one step at a time.",
		"Check that required fields such as Assignee are set.",
		"Ask a project administrator whether the workflow permits this change.",
	}
	currentLabel := current
	if currentLabel == "" {
		currentLabel = "unknown"
	}
	result := &tracker.Error{
		Kind:     tracker.KindWorkflowRestriction,
		Endpoint: "issues/" + issueID,
		Message:  fmt.Sprintf("cannot change %v from %q to %q: workflow restriction", issueID, currentLabel, target),
		Guidance: map[string]interface{}{
			"workflow_restriction": true,
			"issue_id":             issueID,
			"current_state":        current,
			"requested_state":      target,
			"specific_guidance":    guidance,
			"suggestions":          suggestions,
			"diagnosis_tool":       DiagnosisTool,
		},
	}
	if len(trail) > 0 {
		last := trail[len(trail)-1]
		result.Cause = last
		result.Status = tracker.StatusOf(last)
	}
	return result
}
