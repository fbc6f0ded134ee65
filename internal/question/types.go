package question

import (
	"errors"
	"slices"
)

// Authoring limits on the number of options per question.
const (
	MinOptions = 1
	MaxOptions = 6
)

// Id prefixes for questions that did not ship with the seed set.
const (
	UserIDPrefix     = "user-"
	ImportedIDPrefix = "imported-"
)

// DefaultExportFilename is the download name for exported questions.
const DefaultExportFilename = "kuis_soal_ekspor.json"

var (
	ErrInvalidFormat    = errors.New("invalid question file format")
	ErrImportRead       = errors.New("read import source")
	ErrImportInProgress = errors.New("import already in progress")
)

// Question is a multiple-choice question in the bank.
type Question struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Input is a question without an id, as authored or imported.
type Input struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// IsCorrect reports whether choice exactly matches the canonical answer.
func (q Question) IsCorrect(choice string) bool {
	return choice == q.Answer
}

// HasOption reports whether choice is one of the offered options.
func (q Question) HasOption(choice string) bool {
	return slices.Contains(q.Options, choice)
}

// Input strips the id.
func (q Question) Input() Input {
	return Input{Question: q.Question, Options: slices.Clone(q.Options), Answer: q.Answer}
}

// clone copies the options slice so callers cannot alias bank state.
func (q Question) clone() Question {
	q.Options = slices.Clone(q.Options)
	return q
}

// sameContent is the duplicate test used by imports: question text and the
// options sequence, ignoring the answer.
func (q Question) sameContent(in Input) bool {
	return q.Question == in.Question && slices.Equal(q.Options, in.Options)
}

// ImportResult summarises one import.
type ImportResult struct {
	Read       int        `json:"read"`
	Added      int        `json:"added"`
	Duplicates int        `json:"duplicates"`
	Questions  []Question `json:"questions"`
}
