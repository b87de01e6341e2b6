package session

import (
	"fmt"
	"time"
)

// Phase is the training state of a session.
type Phase int

const (
	Idle Phase = iota
	Training
	Ready
	Failed
)

var phaseNames = [...]string{"idle", "training", "ready", "failed"}

var phaseMessages = [...]string{
	"Model not started",
	"Model is training...",
	"Model training done.",
	"Model training failed.",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Message is the status line shown to the analyst for p.
func (p Phase) Message() string {
	if p < 0 || int(p) >= len(phaseMessages) {
		return p.String()
	}
	return phaseMessages[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown session phase %q", text)
}

// InvalidStateError reports an operation requested in a phase that forbids it.
type InvalidStateError struct {
	Op    string
	Phase Phase
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s not allowed while session is %s", e.Op, e.Phase)
}

// Status is a snapshot of the session published to subscribers.
type Status struct {
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message"`
	RunID     string    `json:"run_id,omitempty"`
	Source    string    `json:"source,omitempty"`
	NrTopics  int       `json:"nr_topics,omitempty"`
	Rows      int       `json:"rows,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
