package speech

import (
	"fmt"
	"strings"

	"github.com/echoverse/narrate/pkg/errorsx"
)

// OutcomeStatus tags one entry of the attempt log.
type OutcomeStatus string

const (
	// OutcomeUnavailable means the provider probe said "not usable right
	// now"; the candidate was skipped, not attempted.
	OutcomeUnavailable OutcomeStatus = "unavailable"
	// OutcomeFailed means the provider was attempted and errored.
	OutcomeFailed OutcomeStatus = "failed"
	// OutcomeSuccess terminates the log; nothing is attempted after it.
	OutcomeSuccess OutcomeStatus = "success"
)

// Outcome is one entry of the ordered attempt log. Every candidate the
// orchestrator touches produces exactly one entry.
type Outcome struct {
	Provider string             `json:"provider"`
	Voice    string             `json:"voice"`
	Status   OutcomeStatus      `json:"outcome"`
	Reason   errorsx.ReasonCode `json:"reason,omitempty"`
	Detail   string             `json:"detail,omitempty"`
}

func (o Outcome) String() string {
	if o.Status == OutcomeSuccess {
		return fmt.Sprintf("%s/%s: success", o.Provider, o.Voice)
	}
	return fmt.Sprintf("%s/%s: %s (%s) %s", o.Provider, o.Voice, o.Status, o.Reason, o.Detail)
}

// Result is what a successful generation hands back to the caller. The
// orchestrator keeps no reference to it after returning.
type Result struct {
	RunID     string
	Audio     []byte
	Provider  string
	Voice     string
	Reference string
	Attempts  []Outcome
}

// ExhaustedError reports that every ranked candidate was probed and/or
// attempted without producing audio. Attempts is the full ordered log; it is
// a structured value on purpose so operators and tests can inspect entries
// instead of parsing a message string.
type ExhaustedError struct {
	Attempts []Outcome
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "all %d synthesis candidates exhausted:", len(e.Attempts))
	for _, a := range e.Attempts {
		b.WriteString(" [")
		b.WriteString(a.String())
		b.WriteString("]")
	}
	return b.String()
}
