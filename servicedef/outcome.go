package servicedef

import "strings"

// OperationOutcome is the error detail a server may return with a non-success status.
type OperationOutcome struct {
	ResourceType string         `json:"resourceType"`
	Issue        []OutcomeIssue `json:"issue"`
}

type OutcomeIssue struct {
	Severity    string `json:"severity"`
	Code        string `json:"code"`
	Diagnostics string `json:"diagnostics,omitempty"`
}

// Summary joins the diagnostics of all issues, or their codes where there is no diagnostic text.
func (o OperationOutcome) Summary() string {
	var parts []string
	for _, issue := range o.Issue {
		text := issue.Diagnostics
		if text == "" {
			text = issue.Code
		}
		if issue.Severity != "" {
			text = issue.Severity + ": " + text
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "; ")
}
