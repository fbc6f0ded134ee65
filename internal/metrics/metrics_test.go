package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SetBankSize(5, 2)
	m.ObserveImport(nil, 3)
	m.ObserveImport(errors.New("bad"), 0)
	m.PersistenceError("write")
	m.SessionOpened()
	m.SessionStarted()
	m.ObserveAnswer(AnswerCorrect)
	m.ObserveAnswer(AnswerTimeout)
	m.SessionCompleted(1, 2)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.bankSize.WithLabelValues("seed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.bankSize.WithLabelValues("user")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.imports.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.importedQuestions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistenceErrors.WithLabelValues("write")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.answers.WithLabelValues(AnswerTimeout)))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SetBankSize(1, 1)
		m.ObserveImport(nil, 1)
		m.PersistenceError("read")
		m.SessionOpened()
		m.SessionClosed()
		m.SessionStarted()
		m.SessionCompleted(1, 1)
		m.ObserveAnswer(AnswerIncorrect)
	})
}
