package models

type Step string

const (
	StepWelcome Step = "welcome"
	StepForm    Step = "form"
	StepLoading Step = "loading"
	StepResult  Step = "result"
)

var transitions = map[Step][]Step{
	StepWelcome: {StepForm},
	StepForm:    {StepLoading},
	StepLoading: {StepForm, StepResult},
	StepResult:  {StepForm},
}

func (s Step) CanTransitionTo(next Step) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// NextSteps returns a copy of the steps reachable from s.
func (s Step) NextSteps() []Step {
	return append([]Step(nil), transitions[s]...)
}
