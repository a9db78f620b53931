package letter

import (
	"errors"
	"fmt"
	"time"

	"github.com/alucardeht/wayleave/internal/agreement"
)

type Stage string

const (
	StageExtraction Stage = "extraction"
	StageValidation Stage = "validation"
)

// PipelineError wraps an *agreement.ExtractionError or
// agreement.ValidationErrors with the stage that produced it.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Overrides replace extracted values before validation.
type Overrides struct {
	OwnerName string
	Address   []string
}

type Pipeline struct {
	Validator agreement.Validator
	Overrides Overrides
}

// GenerateLetter runs the default pipeline.
func GenerateLetter(raw string, today time.Time) (string, error) {
	return Pipeline{}.Generate(raw, today)
}

// Prepare extracts and validates without rendering.
func (p Pipeline) Prepare(raw string) (agreement.AgreementFields, error) {
	fields, err := agreement.ExtractWithHints(raw, agreement.Hints{
		OwnerName: p.Overrides.OwnerName,
		Address:   p.Overrides.Address,
	})
	if err != nil {
		return agreement.AgreementFields{}, &PipelineError{Stage: StageExtraction, Err: err}
	}

	fields, err = p.Validator.Validate(fields)
	if err != nil {
		return agreement.AgreementFields{}, &PipelineError{Stage: StageValidation, Err: err}
	}
	return fields, nil
}

func (p Pipeline) Generate(raw string, today time.Time) (string, error) {
	fields, err := p.Prepare(raw)
	if err != nil {
		return "", err
	}
	return Render(fields, today), nil
}

// Problem is one reportable reason a document produced no letter.
type Problem struct {
	Stage  Stage           `json:"stage"`
	Field  agreement.Field `json:"field"`
	Reason string          `json:"reason"`
}

// Problems flattens a pipeline failure into the full list of problems.
// Errors that did not come from the pipeline yield nil.
func Problems(err error) []Problem {
	var pe *PipelineError
	if !errors.As(err, &pe) {
		return nil
	}

	var extractErr *agreement.ExtractionError
	if errors.As(pe.Err, &extractErr) {
		reason := extractErr.Reason.String()
		if extractErr.Detail != "" {
			reason += ": " + extractErr.Detail
		}
		return []Problem{{Stage: pe.Stage, Field: extractErr.Field, Reason: reason}}
	}

	var validationErrs agreement.ValidationErrors
	if errors.As(pe.Err, &validationErrs) {
		out := make([]Problem, len(validationErrs))
		for i, v := range validationErrs {
			out[i] = Problem{Stage: pe.Stage, Field: v.Field, Reason: v.Reason}
		}
		return out
	}
	return nil
}
