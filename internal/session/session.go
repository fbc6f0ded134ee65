// Package session runs a single quiz playthrough: it draws a pool from the
// bank, counts each question down, records one answer per question and scores
// the result.
package session

import (
	"math"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-bank/internal/metrics"
	"github.com/gokatarajesh/quiz-bank/internal/question"
	"github.com/gokatarajesh/quiz-bank/internal/session/scoring"
)

// Session is a quiz state machine. All methods are safe for concurrent use;
// timer callbacks and player actions are serialized on one mutex.
type Session struct {
	source Source
	opts   Options
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
	phase  Phase

	pool     []question.Question
	answers  []string
	index    int
	ticks    int // remaining ticks for the current question
	selected string
	feedback bool
	result   *Result

	// gen invalidates callbacks that fired but lost the race for mu.
	gen     uint64
	tick    Timer
	advance Timer
}

// New creates a session in the start phase.
func New(source Source, opts Options, logger zerolog.Logger) *Session {
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = DefaultTimeLimit
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.FeedbackDelay <= 0 {
		opts.FeedbackDelay = DefaultFeedbackDelay
	}
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = DefaultQuestionCount
	}
	if opts.Scheduler == nil {
		opts.Scheduler = WallClock{}
	}
	s := &Session{
		source: source,
		opts:   opts,
		logger: logger.With().Str("component", "session").Logger(),
		phase:  PhaseStart,
	}
	s.opts.Metrics.SessionOpened()
	return s
}

// Start draws up to n questions and shows the first one. Counts above the
// bank size are capped and reported through StartResult.Reduced.
func (s *Session) Start(n int) (StartResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return StartResult{}, ErrClosed
	}
	if s.phase != PhaseStart {
		return StartResult{}, ErrInvalidTransition
	}
	bank := s.source.Len()
	if bank == 0 {
		return StartResult{}, ErrNoQuestions
	}
	if n <= 0 {
		return StartResult{}, ErrInvalidCount
	}

	pool := s.source.Shuffle(n)
	if len(pool) == 0 {
		return StartResult{}, ErrNoQuestions
	}
	s.pool = pool
	s.answers = make([]string, len(pool))
	s.result = nil
	s.phase = PhasePlaying
	s.showQuestionLocked(0)

	res := StartResult{Requested: n, Count: len(pool), Reduced: n > len(pool)}
	s.logger.Debug().Int("requested", n).Int("count", res.Count).Msg("quiz started")
	s.opts.Metrics.SessionStarted()
	s.emitLocked(EventStarted)
	return res, nil
}

// Select records option as the answer to the current question. Only the
// first selection counts.
func (s *Session) Select(option string) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Feedback{}, ErrClosed
	}
	if s.phase != PhasePlaying {
		return Feedback{}, ErrInvalidTransition
	}
	if s.feedback {
		return Feedback{}, ErrAlreadyAnswered
	}
	q := s.pool[s.index]
	if !q.HasOption(option) {
		return Feedback{}, ErrUnknownOption
	}

	s.cancelTimersLocked()
	s.answers[s.index] = option
	s.selected = option
	s.feedback = true

	correct := q.IsCorrect(option)
	if correct {
		s.opts.Metrics.ObserveAnswer(metrics.AnswerCorrect)
	} else {
		s.opts.Metrics.ObserveAnswer(metrics.AnswerIncorrect)
	}

	gen := s.gen
	s.advance = s.opts.Scheduler.AfterFunc(s.opts.FeedbackDelay, func() { s.onAdvance(gen) })

	s.emitLocked(EventFeedback)
	return Feedback{Index: s.index, Selected: option, Answer: q.Answer, Correct: correct}, nil
}

// Next skips the remaining feedback delay. It is only allowed once the
// current question has been answered.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.phase != PhasePlaying {
		return ErrInvalidTransition
	}
	if !s.feedback {
		return ErrNotAnswered
	}
	s.advanceLocked()
	return nil
}

// Restart discards the finished playthrough and returns to the start phase.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.phase != PhaseResults {
		return ErrInvalidTransition
	}
	s.cancelTimersLocked()
	s.pool = nil
	s.answers = nil
	s.result = nil
	s.index = 0
	s.ticks = 0
	s.selected = ""
	s.feedback = false
	s.phase = PhaseStart
	s.emitLocked(EventRestarted)
	return nil
}

// Close cancels pending timers. Every later call returns ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.cancelTimersLocked()
	s.closed = true
	s.opts.Metrics.SessionClosed()
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) showQuestionLocked(i int) {
	s.index = i
	s.selected = ""
	s.feedback = false
	s.ticks = int(s.opts.TimeLimit / s.opts.TickInterval)
	s.scheduleTickLocked()
}

func (s *Session) scheduleTickLocked() {
	gen := s.gen
	s.tick = s.opts.Scheduler.AfterFunc(s.opts.TickInterval, func() { s.onTick(gen) })
}

func (s *Session) onTick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen || s.phase != PhasePlaying {
		return
	}
	if s.ticks <= 1 {
		s.ticks = 0
		s.opts.Metrics.ObserveAnswer(metrics.AnswerTimeout)
		s.emitLocked(EventTimedOut)
		s.advanceLocked()
		return
	}
	s.ticks--
	s.scheduleTickLocked()
	s.emitLocked(EventTick)
}

func (s *Session) onAdvance(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen || s.phase != PhasePlaying {
		return
	}
	s.advanceLocked()
}

// advanceLocked moves to the next question, or scores the quiz after the last.
func (s *Session) advanceLocked() {
	s.cancelTimersLocked()
	if s.index < len(s.pool)-1 {
		s.showQuestionLocked(s.index + 1)
		s.emitLocked(EventAdvanced)
		return
	}
	s.finishLocked()
}

func (s *Session) finishLocked() {
	canonical := make([]string, len(s.pool))
	review := make([]ReviewItem, len(s.pool))
	for i, q := range s.pool {
		canonical[i] = q.Answer
		review[i] = ReviewItem{
			Index:    i,
			Question: q.Question,
			Selected: s.answers[i],
			Answer:   q.Answer,
			Correct:  q.IsCorrect(s.answers[i]),
			TimedOut: s.answers[i] == "",
		}
	}
	summary := scoring.Summarize(s.answers, canonical)
	s.result = &Result{
		Summary: summary,
		Answers: slices.Clone(s.answers),
		Pool:    clonePool(s.pool),
		Review:  review,
	}
	s.phase = PhaseResults
	s.ticks = 0
	s.selected = ""
	s.feedback = false

	s.logger.Debug().Int("score", summary.Score).Int("total", summary.Total).Msg("quiz completed")
	s.opts.Metrics.SessionCompleted(summary.Score, summary.Total)
	s.emitLocked(EventCompleted)
}

// cancelTimersLocked stops both timers and bumps the generation so callbacks
// already in flight become no-ops.
func (s *Session) cancelTimersLocked() {
	s.gen++
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
	if s.advance != nil {
		s.advance.Stop()
		s.advance = nil
	}
}

func (s *Session) emitLocked(kind EventKind) {
	if s.opts.OnEvent == nil {
		return
	}
	s.opts.OnEvent(Event{Kind: kind, View: s.viewLocked()})
}

func (s *Session) viewLocked() View {
	v := View{Phase: s.phase}
	switch s.phase {
	case PhaseStart:
		v.BankSize = s.source.Len()
		v.DefaultCount = min(s.opts.DefaultCount, v.BankSize)
	case PhasePlaying:
		q := s.pool[s.index]
		qv := &QuestionView{ID: q.ID, Question: q.Question, Options: slices.Clone(q.Options)}
		if s.feedback {
			qv.Answer = q.Answer
			v.Correct = q.IsCorrect(s.selected)
		}
		v.Index = s.index
		v.Total = len(s.pool)
		v.Question = qv
		v.TimeLeft = s.secondsLeftLocked()
		v.Selected = s.selected
		v.ShowFeedback = s.feedback
		v.CanAdvance = s.feedback
	case PhaseResults:
		v.Total = len(s.pool)
		r := *s.result
		r.Answers = slices.Clone(r.Answers)
		r.Pool = clonePool(r.Pool)
		r.Review = slices.Clone(r.Review)
		v.Result = &r
	}
	return v
}

// secondsLeftLocked converts remaining ticks to whole seconds, rounding up.
func (s *Session) secondsLeftLocked() int {
	left := time.Duration(s.ticks) * s.opts.TickInterval
	return int(math.Ceil(left.Seconds()))
}

func clonePool(pool []question.Question) []question.Question {
	out := make([]question.Question, len(pool))
	for i, q := range pool {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}
