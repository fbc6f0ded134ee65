//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	wsmsg "github.com/gokatarajesh/quiz-bank/pkg/http/ws"
)

type question struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// doJSON sends payload (if any) and decodes the response into out (if any).
func doJSON(t *testing.T, method, url string, payload, out any) int {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func createQuestion(t *testing.T, baseURL string) question {
	t.Helper()

	in := map[string]any{
		"question": fmt.Sprintf("Integrasi %d: ibu kota Jepang?", time.Now().UnixNano()),
		"options":  []string{"Tokyo", "Osaka", "Kyoto"},
		"answer":   "Tokyo",
	}
	var out question
	if status := doJSON(t, http.MethodPost, baseURL+"/v1/questions", in, &out); status != http.StatusCreated {
		t.Fatalf("unexpected create status: %d", status)
	}
	if out.ID == "" {
		t.Fatalf("created question has no id")
	}
	t.Cleanup(func() {
		doJSON(t, http.MethodDelete, baseURL+"/v1/questions/"+out.ID, nil, nil)
	})
	return out
}

func dialQuizWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendMessage(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	msg, err := wsmsg.NewMessage(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("failed to send %s: %v", msgType, err)
	}
}

// waitFor reads messages until one of msgType arrives, skipping the rest.
func waitFor(t *testing.T, conn *websocket.Conn, msgType string, out any, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		var msg wsmsg.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read while waiting for %s: %v", msgType, err)
		}
		if msg.Type == wsmsg.TypeError {
			t.Fatalf("server error while waiting for %s: %s", msgType, msg.Payload)
		}
		if msg.Type != msgType {
			continue
		}
		if out != nil {
			if err := json.Unmarshal(msg.Payload, out); err != nil {
				t.Fatalf("decode %s payload: %v", msgType, err)
			}
		}
		return
	}
	t.Fatalf("timed out waiting for %s", msgType)
}
