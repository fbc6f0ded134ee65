package session

import (
	"errors"
	"time"

	"github.com/gokatarajesh/quiz-bank/internal/metrics"
	"github.com/gokatarajesh/quiz-bank/internal/question"
	"github.com/gokatarajesh/quiz-bank/internal/session/scoring"
)

// Phase is the coarse state of a session.
type Phase string

const (
	PhaseStart   Phase = "start"
	PhasePlaying Phase = "playing"
	PhaseResults Phase = "results"
)

// Gameplay defaults.
const (
	DefaultTimeLimit     = 15 * time.Second
	DefaultTickInterval  = time.Second
	DefaultFeedbackDelay = 1500 * time.Millisecond
	DefaultQuestionCount = 5
)

var (
	ErrNoQuestions       = errors.New("no questions available")
	ErrInvalidCount      = errors.New("question count must be positive")
	ErrAlreadyAnswered   = errors.New("question already answered")
	ErrUnknownOption     = errors.New("option is not offered by the question")
	ErrNotAnswered       = errors.New("current question has no answer yet")
	ErrInvalidTransition = errors.New("action not allowed in the current phase")
	ErrClosed            = errors.New("session closed")
)

// Source supplies question pools. *question.Store satisfies it.
type Source interface {
	Len() int
	Shuffle(n int) []question.Question
}

// Options configures a Session. Zero or negative durations and counts fall
// back to the defaults above.
type Options struct {
	TimeLimit     time.Duration
	TickInterval  time.Duration
	FeedbackDelay time.Duration
	DefaultCount  int
	Scheduler     Scheduler
	// OnEvent is called with the session lock held; it must not call back
	// into the session.
	OnEvent func(Event)
	Metrics *metrics.Metrics
}

// EventKind names a state change pushed to OnEvent.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventTick      EventKind = "tick"
	EventFeedback  EventKind = "feedback"
	EventTimedOut  EventKind = "timed_out"
	EventAdvanced  EventKind = "advanced"
	EventCompleted EventKind = "completed"
	EventRestarted EventKind = "restarted"
)

// Event carries a snapshot of the session taken right after the change.
type Event struct {
	Kind EventKind
	View View
}

// StartResult reports how a start request was honoured.
type StartResult struct {
	Requested int  `json:"requested"`
	Count     int  `json:"count"`
	Reduced   bool `json:"reduced"`
}

// Feedback describes the outcome of a selection.
type Feedback struct {
	Index    int    `json:"index"`
	Selected string `json:"selected"`
	Answer   string `json:"answer"`
	Correct  bool   `json:"correct"`
}

// QuestionView is the current question as shown to the player. Answer stays
// empty until feedback is visible.
type QuestionView struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer,omitempty"`
}

// ReviewItem is one row of the results screen.
type ReviewItem struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Selected string `json:"selected"`
	Answer   string `json:"answer"`
	Correct  bool   `json:"correct"`
	TimedOut bool   `json:"timed_out"`
}

// Result is the final outcome of a playthrough.
type Result struct {
	scoring.Summary
	Answers []string            `json:"answers"`
	Pool    []question.Question `json:"pool"`
	Review  []ReviewItem        `json:"review"`
}

// View is a read-only snapshot of a session.
type View struct {
	Phase Phase `json:"phase"`

	// Start phase.
	BankSize     int `json:"bank_size,omitempty"`
	DefaultCount int `json:"default_count,omitempty"`

	// Playing phase.
	Index        int           `json:"index"`
	Total        int           `json:"total"`
	Question     *QuestionView `json:"question,omitempty"`
	TimeLeft     int           `json:"time_left"`
	Selected     string        `json:"selected,omitempty"`
	ShowFeedback bool          `json:"show_feedback"`
	Correct      bool          `json:"correct"`
	CanAdvance   bool          `json:"can_advance"`

	// Results phase.
	Result *Result `json:"result,omitempty"`
}
