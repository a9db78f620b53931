package agreement

import (
	"fmt"
	"strings"
)

type Reason int

const (
	NotFound Reason = iota
	Ambiguous
)

func (r Reason) String() string {
	switch r {
	case NotFound:
		return "not found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ExtractionError reports the first mandatory field that could not be
// located exactly once.
type ExtractionError struct {
	Field  Field  `json:"field"`
	Reason Reason `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

func (e *ExtractionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("extract %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("extract %s: %s: %s", e.Field, e.Reason, e.Detail)
}

func notFound(field Field, detail string) *ExtractionError {
	return &ExtractionError{Field: field, Reason: NotFound, Detail: detail}
}

func ambiguous(field Field, detail string) *ExtractionError {
	return &ExtractionError{Field: field, Reason: Ambiguous, Detail: detail}
}

type ValidationError struct {
	Field  Field  `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationErrors holds every violation found in one validation pass.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return "invalid agreement fields: " + strings.Join(parts, "; ")
}

func (errs ValidationErrors) Fields() []Field {
	out := make([]Field, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}
