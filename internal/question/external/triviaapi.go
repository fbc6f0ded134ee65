package external

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gokatarajesh/quiz-bank/internal/question"
)

// TriviaAPIClient integrates with the Trivia API. The key is optional.
type TriviaAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewTriviaAPIClient(baseURL, apiKey string, httpClient *http.Client) *TriviaAPIClient {
	if baseURL == "" {
		baseURL = "https://the-trivia-api.com/api"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &TriviaAPIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type triviaAPIQuestion struct {
	Question  string   `json:"question"`
	Correct   string   `json:"correctAnswer"`
	Incorrect []string `json:"incorrectAnswers"`
}

// Fetch implements question.Provider. Category takes the API's category slugs
// (comma separated).
func (c *TriviaAPIClient) Fetch(ctx context.Context, req question.FetchRequest) ([]question.Input, error) {
	values := url.Values{}
	values.Set("limit", strconv.Itoa(req.Amount))
	if req.Difficulty != "" {
		values.Set("difficulty", req.Difficulty)
	}
	if req.Category != "" {
		values.Set("categories", req.Category)
	}
	header := http.Header{}
	if c.apiKey != "" {
		header.Set("X-API-Key", c.apiKey)
	}

	var payload []triviaAPIQuestion
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/questions?"+values.Encode(), header, &payload); err != nil {
		return nil, fmt.Errorf("%w: triviaapi: %w", question.ErrUpstream, err)
	}

	out := make([]question.Input, 0, len(payload))
	for _, q := range payload {
		if in, ok := toInput(q.Question, q.Correct, q.Incorrect, false); ok {
			out = append(out, in)
		}
	}
	return out, nil
}
