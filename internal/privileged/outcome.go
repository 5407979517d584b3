package privileged

import "strings"

// Status is the result class of a read attempt.
type Status int

const (
	StatusPending Status = iota
	StatusSucceeded
	// StatusNeedsPassword means the unprivileged attempt was refused and
	// the user should be asked for a sudo password.
	StatusNeedsPassword
	// StatusDenied means sudo rejected the password.
	StatusDenied
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusNeedsPassword:
		return "needs-password"
	case StatusDenied:
		return "denied"
	case StatusError:
		return "error"
	default:
		return "pending"
	}
}

// Outcome is the result of Attempt or Escalate.
type Outcome struct {
	Status  Status
	Target  Target
	Content string
	Reason  string
}

// Succeeded wraps readable content.
func Succeeded(t Target, content string) Outcome {
	return Outcome{Status: StatusSucceeded, Target: t, Content: content}
}

// NeedsPassword asks for escalation of t.
func NeedsPassword(t Target) Outcome {
	return Outcome{Status: StatusNeedsPassword, Target: t}
}

// Denied reports a rejected password.
func Denied(t Target) Outcome {
	return Outcome{Status: StatusDenied, Target: t, Reason: "Sorry, try again."}
}

// Failed reports any other failure with a one-line reason.
func Failed(t Target, reason string) Outcome {
	return Outcome{Status: StatusError, Target: t, Reason: reason}
}

// Lines splits Content for display.
func (o Outcome) Lines() []string {
	if o.Content == "" {
		return []string{"(empty)"}
	}
	return strings.Split(strings.TrimRight(o.Content, "\n"), "\n")
}
