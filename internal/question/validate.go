package question

import (
	"fmt"
	"strings"
)

// ValidationError points at the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateInput applies the authoring rules: non-empty question text, 1 to 6
// distinct non-empty options and an answer equal to one of them. The store
// itself never calls this.
func ValidateInput(in Input) error {
	if strings.TrimSpace(in.Question) == "" {
		return &ValidationError{Field: "question", Message: "question must not be empty"}
	}
	if len(in.Options) < MinOptions {
		return &ValidationError{Field: "options", Message: fmt.Sprintf("at least %d option is required", MinOptions)}
	}
	if len(in.Options) > MaxOptions {
		return &ValidationError{Field: "options", Message: fmt.Sprintf("at most %d options are allowed", MaxOptions)}
	}
	seen := make(map[string]struct{}, len(in.Options))
	for i, opt := range in.Options {
		field := fmt.Sprintf("options[%d]", i)
		if strings.TrimSpace(opt) == "" {
			return &ValidationError{Field: field, Message: fmt.Sprintf("option %d must not be empty", i+1)}
		}
		if _, dup := seen[opt]; dup {
			return &ValidationError{Field: field, Message: fmt.Sprintf("option %d duplicates an earlier option", i+1)}
		}
		seen[opt] = struct{}{}
	}
	if strings.TrimSpace(in.Answer) == "" {
		return &ValidationError{Field: "answer", Message: "answer must not be empty"}
	}
	if _, ok := seen[in.Answer]; !ok {
		return &ValidationError{Field: "answer", Message: "answer must be one of the options"}
	}
	return nil
}
