package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepTransitions(t *testing.T) {
	allowed := map[[2]Step]bool{
		{StepWelcome, StepForm}:   true,
		{StepForm, StepLoading}:   true,
		{StepLoading, StepResult}: true,
		{StepLoading, StepForm}:   true,
		{StepResult, StepForm}:    true,
	}
	steps := []Step{StepWelcome, StepForm, StepLoading, StepResult}

	for _, from := range steps {
		for _, to := range steps {
			assert.Equal(t, allowed[[2]Step{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestNextStepsIsACopy(t *testing.T) {
	next := StepLoading.NextSteps()
	next[0] = StepWelcome

	assert.Equal(t, []Step{StepForm, StepResult}, StepLoading.NextSteps())
	assert.Empty(t, Step("unknown").NextSteps())
}
