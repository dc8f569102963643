package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vadym-shevikov/cv-tailor/internal/types"
)

// Status is a pipeline run state.
type Status string

// Run states
const (
	StatusStart     Status = "Start"
	StatusExtracted Status = "Extracted"
	StatusAnalyzed  Status = "Analyzed"
	StatusRewritten Status = "Rewritten"
	StatusCompleted Status = "Completed"
	StatusDegraded  Status = "Degraded"
	StatusFailed    Status = "Failed"
)

// transitions lists the states reachable from each state.
var transitions = map[Status][]Status{
	StatusStart:     {StatusExtracted, StatusFailed},
	StatusExtracted: {StatusAnalyzed},
	StatusAnalyzed:  {StatusRewritten},
	StatusRewritten: {StatusCompleted, StatusDegraded},
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusDegraded || s == StatusFailed
}

// CanTransition reports whether to is reachable from s in one step.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionError is returned for a transition the state machine does not allow.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid run transition %s -> %s", e.From, e.To)
}

// RunState accumulates the outputs of one run. Each stage writes only its own
// fields; the state is frozen once a terminal status is reached.
type RunState struct {
	RunID        uuid.UUID
	Resume       *types.ResumeDocument
	Job          *types.JobPosting
	Analysis     *types.AnalysisReport
	Rewrites     []types.SectionRewrite
	Status       Status
	StatusDetail string
	Notices      []string

	// degraded is set at the Extracted transition and decides the terminal state.
	degraded        bool
	jobTextTooShort bool
}

// NewRunState creates an empty run state with a fresh run id.
func NewRunState() *RunState {
	return &RunState{RunID: uuid.New(), Status: StatusStart}
}

// Advance moves the run to the next state.
func (s *RunState) Advance(to Status) error {
	if !s.Status.CanTransition(to) {
		return &TransitionError{From: s.Status, To: to}
	}
	s.Status = to
	return nil
}

// Fail ends the run as Failed with a single explanatory message.
func (s *RunState) Fail(detail string) error {
	if err := s.Advance(StatusFailed); err != nil {
		return err
	}
	s.StatusDetail = detail
	return nil
}

// AddNotice records a reduced-confidence note for the report. Notices are
// ignored once the run is terminal.
func (s *RunState) AddNotice(notice string) {
	if s.Status.Terminal() || notice == "" {
		return
	}
	s.Notices = append(s.Notices, notice)
}

// Finish moves a rewritten run to its terminal state.
func (s *RunState) Finish() error {
	if s.degraded {
		return s.Advance(StatusDegraded)
	}
	return s.Advance(StatusCompleted)
}
