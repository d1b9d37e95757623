package fhirclient

import (
	"errors"
	"fmt"

	"github.com/sprinkler-fhir/sprinkler/servicedef"
)

// StatusError is returned for any response whose status is not in the 2xx range.
type StatusError struct {
	Code   int
	Method string
	URL    string
	// Outcome is the OperationOutcome from the response body, if the server sent one.
	Outcome *servicedef.OperationOutcome
}

func (e *StatusError) Error() string {
	message := fmt.Sprintf("%s %s returned HTTP status %d", e.Method, e.URL, e.Code)
	if e.Outcome != nil {
		if summary := e.Outcome.Summary(); summary != "" {
			message += ": " + summary
		}
	}
	return message
}

// IsStatus returns true if err is, or wraps, a StatusError with the given status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
