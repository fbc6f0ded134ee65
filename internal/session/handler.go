package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httperrors "github.com/gokatarajesh/quiz-bank/pkg/http/errors"
	ws "github.com/gokatarajesh/quiz-bank/pkg/http/ws"
)

// Handler serves /ws/quiz: every connection owns one Session.
type Handler struct {
	source   Source
	hub      *ws.Hub
	upgrader *websocket.Upgrader
	opts     Options
	logger   zerolog.Logger
}

// NewHandler creates a quiz WebSocket handler. opts is the template for each
// connection's session; OnEvent is replaced per connection.
func NewHandler(source Source, hub *ws.Hub, upgrader *websocket.Upgrader, opts Options, logger zerolog.Logger) *Handler {
	return &Handler{
		source:   source,
		hub:      hub,
		upgrader: upgrader,
		opts:     opts,
		logger:   logger.With().Str("component", "quiz_ws").Logger(),
	}
}

// ServeHTTP upgrades the request and runs the connection until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	h.HandleConnection(conn)
}

// HandleConnection drives one player connection. It returns once the peer
// disconnects; the session is closed on the way out.
func (h *Handler) HandleConnection(conn *websocket.Conn) {
	connID := uuid.New()
	logger := h.logger.With().Str("connection_id", connID.String()).Logger()

	wsConn := ws.NewConnection(conn, logger)
	h.hub.RegisterConnection(connID, wsConn)
	go wsConn.WritePump()

	opts := h.opts
	opts.OnEvent = func(e Event) { h.forward(wsConn, e) }
	sess := New(h.source, opts, logger)
	defer func() {
		sess.Close()
		h.hub.UnregisterConnection(connID)
	}()

	h.send(wsConn, ws.TypeSessionState, "", sess.View())

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(wsConn, sess, msg)
	})
}

// BroadcastBankSize tells every player the bank changed. It is meant to be
// subscribed to the question store.
func (h *Handler) BroadcastBankSize(total int) {
	msg, err := ws.NewMessage(ws.TypeBankUpdated, ws.BankUpdatedPayload{Total: total})
	if err != nil {
		h.logger.Error().Err(err).Msg("encode bank_updated")
		return
	}
	if err := h.hub.BroadcastAll(msg); err != nil {
		h.logger.Debug().Err(err).Msg("bank_updated not delivered everywhere")
	}
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(conn *ws.Connection, sess *Session, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeStartQuiz:
		return h.handleStart(conn, sess, msg)
	case ws.TypeSelectAnswer:
		return h.handleSelect(conn, sess, msg)
	case ws.TypeNextQuestion:
		if err := sess.Next(); err != nil {
			return h.sendSessionError(conn, msg.RequestID, err)
		}
		return nil
	case ws.TypeRestartQuiz:
		if err := sess.Restart(); err != nil {
			return h.sendSessionError(conn, msg.RequestID, err)
		}
		return nil
	case ws.TypeGetState:
		return h.send(conn, ws.TypeSessionState, msg.RequestID, sess.View())
	case "":
		return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Malformed message")
	default:
		return h.sendError(conn, msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleStart(conn *ws.Connection, sess *Session, msg ws.Message) error {
	var req ws.StartQuizPayload
	if len(msg.Payload) > 0 && string(msg.Payload) != "null" {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid start_quiz payload")
		}
	}

	count := sess.View().DefaultCount
	if req.Count != nil {
		count = *req.Count
	}
	res, err := sess.Start(count)
	if err != nil {
		return h.sendSessionError(conn, msg.RequestID, err)
	}
	if err := h.send(conn, ws.TypeQuizStarted, msg.RequestID, ws.QuizStartedPayload{
		Count:     res.Count,
		Requested: res.Requested,
		Reduced:   res.Reduced,
	}); err != nil {
		return err
	}
	return h.send(conn, ws.TypeSessionState, msg.RequestID, sess.View())
}

func (h *Handler) handleSelect(conn *ws.Connection, sess *Session, msg ws.Message) error {
	var req ws.SelectAnswerPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(conn, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid select_answer payload")
	}
	if _, err := sess.Select(req.Option); err != nil {
		return h.sendSessionError(conn, msg.RequestID, err)
	}
	return nil
}

// forward turns session events into outgoing messages. Start is answered by
// handleStart so the quiz_started notice goes out first.
func (h *Handler) forward(conn *ws.Connection, e Event) {
	var err error
	v := e.View
	switch e.Kind {
	case EventTick, EventTimedOut:
		err = h.send(conn, ws.TypeQuestionTick, "", ws.QuestionTickPayload{Index: v.Index, RemainingSeconds: v.TimeLeft})
	case EventFeedback:
		err = h.send(conn, ws.TypeAnswerFeedback, "", ws.AnswerFeedbackPayload{
			Index:    v.Index,
			Selected: v.Selected,
			Answer:   v.Question.Answer,
			Correct:  v.Correct,
		})
	case EventAdvanced, EventRestarted:
		err = h.send(conn, ws.TypeSessionState, "", v)
	case EventCompleted:
		err = h.send(conn, ws.TypeQuizComplete, "", v.Result)
	}
	if err != nil {
		h.logger.Debug().Err(err).Str("event", string(e.Kind)).Msg("event not delivered")
	}
}

func (h *Handler) send(conn *ws.Connection, msgType, requestID string, payload any) error {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msgType, err)
	}
	msg.RequestID = requestID
	return conn.Send(msg)
}

func (h *Handler) sendError(conn *ws.Connection, requestID, code, message string) error {
	return h.send(conn, ws.TypeError, requestID, ws.ErrorPayload{Code: code, Message: message})
}

func (h *Handler) sendSessionError(conn *ws.Connection, requestID string, err error) error {
	return h.sendError(conn, requestID, errorCode(err), err.Error())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoQuestions):
		return httperrors.ErrCodeNoQuestions
	case errors.Is(err, ErrInvalidCount):
		return httperrors.ErrCodeInvalidCount
	case errors.Is(err, ErrAlreadyAnswered):
		return httperrors.ErrCodeAlreadyAnswered
	case errors.Is(err, ErrUnknownOption):
		return httperrors.ErrCodeUnknownOption
	case errors.Is(err, ErrNotAnswered):
		return httperrors.ErrCodeNotAnswered
	case errors.Is(err, ErrInvalidTransition):
		return httperrors.ErrCodeInvalidTransition
	case errors.Is(err, ErrClosed):
		return httperrors.ErrCodeSessionClosed
	default:
		return httperrors.ErrCodeInternalError
	}
}
