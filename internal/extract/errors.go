package extract

import (
	"errors"
	"fmt"
)

// Step names a stage of page extraction that can fail structurally
type Step string

const (
	StepTitle       Step = "title"
	StepAward       Step = "award"
	StepDescription Step = "description"
)

// StructuralParseError reports that a page deviates from the expected template
type StructuralParseError struct {
	Step   Step
	Detail string
}

func (e *StructuralParseError) Error() string {
	return fmt.Sprintf("structural parse error in %s step: %s", e.Step, e.Detail)
}

func structural(step Step, format string, args ...any) error {
	return &StructuralParseError{Step: step, Detail: fmt.Sprintf(format, args...)}
}

// FailedSteps lists the steps reported by a (possibly joined) extraction error
func FailedSteps(err error) []Step {
	if err == nil {
		return nil
	}

	var steps []Step
	var walk func(error)
	walk = func(err error) {
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		var spe *StructuralParseError
		if errors.As(err, &spe) {
			steps = append(steps, spe.Step)
		}
	}
	walk(err)

	return steps
}
