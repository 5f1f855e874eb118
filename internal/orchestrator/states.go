package orchestrator

import (
	"errors"
	"fmt"

	"github.com/berth-dev/briefing/internal/model"
)

// ErrIllegalTransition is returned when an operation does not apply to the
// session's current step.
var ErrIllegalTransition = errors.New("illegal step transition")

// transitions is the step graph. COMPLETED has no way out.
var transitions = map[model.Step][]model.Step{
	model.StepInputIdea:                 {model.StepCompetencyAnalysis},
	model.StepCompetencyAnalysis:        {model.StepAnswerCompetencyQuestions},
	model.StepAnswerCompetencyQuestions: {model.StepGenerateQuestions},
	model.StepGenerateQuestions:         {model.StepAnswerMainQuestions},
	model.StepAnswerMainQuestions:       {model.StepReformulateQuestions},
	model.StepReformulateQuestions:      {model.StepGenerateRefined},
	model.StepGenerateRefined:           {model.StepValidateIdea, model.StepGenerateQuestions},
	model.StepValidateIdea:              {model.StepCompleted, model.StepGenerateRefined},
}

// CanTransition reports whether the graph has an edge from -> to.
func CanTransition(from, to model.Step) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next lists the steps reachable from step.
func Next(step model.Step) []model.Step {
	return append([]model.Step(nil), transitions[step]...)
}

func requireStep(s *model.SessionData, op string, allowed ...model.Step) error {
	for _, st := range allowed {
		if s.CurrentStep == st {
			return nil
		}
	}
	return fmt.Errorf("%s needs step %v, session %s is at %s: %w",
		op, allowed, s.SessionID, s.CurrentStep, ErrIllegalTransition)
}
