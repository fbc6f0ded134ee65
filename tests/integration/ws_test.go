//go:build integration
// +build integration

package integration

import (
	"testing"
	"time"

	wsmsg "github.com/gokatarajesh/quiz-bank/pkg/http/ws"
)

type sessionView struct {
	Phase    string `json:"phase"`
	BankSize int    `json:"bank_size"`
	Question *struct {
		Options []string `json:"options"`
	} `json:"question"`
}

func TestWebSocketPlaysQuiz(t *testing.T) {
	wsURL := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/quiz")
	conn := dialQuizWS(t, wsURL)

	var initial sessionView
	waitFor(t, conn, wsmsg.TypeSessionState, &initial, 5*time.Second)
	if initial.Phase != "start" || initial.BankSize == 0 {
		t.Fatalf("unexpected initial state: %+v", initial)
	}

	one := 1
	sendMessage(t, conn, wsmsg.TypeStartQuiz, wsmsg.StartQuizPayload{Count: &one})
	var started wsmsg.QuizStartedPayload
	waitFor(t, conn, wsmsg.TypeQuizStarted, &started, 5*time.Second)
	if started.Count != 1 {
		t.Fatalf("expected 1 question, got %d", started.Count)
	}

	var state sessionView
	waitFor(t, conn, wsmsg.TypeSessionState, &state, 5*time.Second)
	if state.Question == nil || len(state.Question.Options) == 0 {
		t.Fatalf("playing state has no question: %+v", state)
	}

	sendMessage(t, conn, wsmsg.TypeSelectAnswer, wsmsg.SelectAnswerPayload{Option: state.Question.Options[0]})
	waitFor(t, conn, wsmsg.TypeAnswerFeedback, nil, 5*time.Second)

	sendMessage(t, conn, wsmsg.TypeNextQuestion, nil)
	var result struct {
		Total int `json:"total"`
	}
	waitFor(t, conn, wsmsg.TypeQuizComplete, &result, 5*time.Second)
	if result.Total != 1 {
		t.Fatalf("unexpected result total: %d", result.Total)
	}
}

func TestWebSocketBankUpdates(t *testing.T) {
	baseURL := envOrDefault("INTEGRATION_BASE_URL", "http://localhost:8080")
	wsURL := envOrDefault("INTEGRATION_WS_URL", "ws://localhost:8080/ws/quiz")
	conn := dialQuizWS(t, wsURL)
	waitFor(t, conn, wsmsg.TypeSessionState, nil, 5*time.Second)

	createQuestion(t, baseURL)

	var update wsmsg.BankUpdatedPayload
	waitFor(t, conn, wsmsg.TypeBankUpdated, &update, 5*time.Second)
	if update.Total == 0 {
		t.Fatalf("bank_updated reported an empty bank")
	}
}
