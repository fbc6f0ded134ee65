package ws

import "encoding/json"

// MessageType constants for WebSocket protocol.
const (
	// Client -> Server
	TypeStartQuiz    = "start_quiz"
	TypeSelectAnswer = "select_answer"
	TypeNextQuestion = "next_question"
	TypeRestartQuiz  = "restart_quiz"
	TypeGetState     = "get_state"

	// Server -> Client
	TypeQuizStarted    = "quiz_started"
	TypeSessionState   = "session_state"
	TypeQuestionTick   = "question_tick"
	TypeAnswerFeedback = "answer_feedback"
	TypeQuizComplete   = "quiz_complete"
	TypeBankUpdated    = "bank_updated"
	TypeError          = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage encodes payload into a message of the given type.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: data}, nil
}

// Client Messages (incoming)

// StartQuizPayload asks for Count questions; a missing count uses the start
// screen default.
type StartQuizPayload struct {
	Count *int `json:"count,omitempty"`
}

type SelectAnswerPayload struct {
	Option string `json:"option"`
}

// Server Messages (outgoing)

type QuizStartedPayload struct {
	Count     int  `json:"count"`
	Requested int  `json:"requested"`
	Reduced   bool `json:"reduced"`
}

type QuestionTickPayload struct {
	Index            int `json:"index"`
	RemainingSeconds int `json:"remaining_seconds"`
}

type AnswerFeedbackPayload struct {
	Index    int    `json:"index"`
	Selected string `json:"selected"`
	Answer   string `json:"answer"`
	Correct  bool   `json:"correct"`
}

type BankUpdatedPayload struct {
	Total int `json:"total"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
