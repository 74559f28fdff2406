package enrich

import "fmt"

// Result is the outcome of describing one subject. A degraded result carries
// the placeholder text in Description and the failure in Cause.
type Result struct {
	Subject     string
	Description string
	Degraded    bool
	Cause       error
}

// OK wraps a description produced by the completions API.
func OK(subject, description string) Result {
	return Result{Subject: subject, Description: description}
}

// Degrade builds the fallback result used when the API call fails.
func Degrade(subject string, cause error) Result {
	return Result{
		Subject:     subject,
		Description: Placeholder(subject),
		Degraded:    true,
		Cause:       &Error{Subject: subject, Err: cause},
	}
}

// Placeholder is the text written in place of a description that could not be fetched.
func Placeholder(subject string) string {
	return "Error: Could not fetch information for " + subject
}

// Error is an enrichment failure for a single subject.
type Error struct {
	Subject string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("could not fetch information for %s: %v", e.Subject, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
