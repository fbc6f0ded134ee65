// Package metrics holds the Prometheus collectors for the question bank and
// quiz sessions. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Answer outcomes recorded by ObserveAnswer.
const (
	AnswerCorrect   = "correct"
	AnswerIncorrect = "incorrect"
	AnswerTimeout   = "timeout"
)

type Metrics struct {
	bankSize          *prometheus.GaugeVec
	imports           *prometheus.CounterVec
	importedQuestions prometheus.Counter
	persistenceErrors *prometheus.CounterVec
	sessionsStarted   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsActive    prometheus.Gauge
	answers           *prometheus.CounterVec
	scores            prometheus.Histogram
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bankSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "quiz_bank_questions",
			Help: "Questions currently in the bank by subset.",
		}, []string{"subset"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_bank_imports_total",
			Help: "Import attempts by result.",
		}, []string{"result"}),
		importedQuestions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_bank_imported_questions_total",
			Help: "Questions appended to the bank by imports.",
		}),
		persistenceErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_bank_persistence_errors_total",
			Help: "Absorbed persistence failures by operation.",
		}, []string{"op"}),
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_started_total",
			Help: "Quiz sessions that entered the playing phase.",
		}),
		sessionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_sessions_completed_total",
			Help: "Quiz sessions that reached results.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_sessions_active",
			Help: "Open quiz sessions.",
		}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Recorded answers by outcome.",
		}, []string{"outcome"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_session_score_ratio",
			Help:    "Fraction of correct answers per completed session.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
	reg.MustRegister(
		m.bankSize,
		m.imports,
		m.importedQuestions,
		m.persistenceErrors,
		m.sessionsStarted,
		m.sessionsCompleted,
		m.sessionsActive,
		m.answers,
		m.scores,
	)
	return m
}

func (m *Metrics) SetBankSize(seed, user int) {
	if m == nil {
		return
	}
	m.bankSize.WithLabelValues("seed").Set(float64(seed))
	m.bankSize.WithLabelValues("user").Set(float64(user))
}

func (m *Metrics) ObserveImport(err error, added int) {
	if m == nil {
		return
	}
	if err != nil {
		m.imports.WithLabelValues("failed").Inc()
		return
	}
	m.imports.WithLabelValues("ok").Inc()
	m.importedQuestions.Add(float64(added))
}

func (m *Metrics) PersistenceError(op string) {
	if m == nil {
		return
	}
	m.persistenceErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessionsActive.Dec()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) SessionCompleted(score, total int) {
	if m == nil {
		return
	}
	m.sessionsCompleted.Inc()
	if total > 0 {
		m.scores.Observe(float64(score) / float64(total))
	}
}

func (m *Metrics) ObserveAnswer(outcome string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(outcome).Inc()
}
