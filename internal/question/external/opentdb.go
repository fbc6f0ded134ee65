package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gokatarajesh/quiz-bank/internal/question"
)

// OpenTDBClient fetches questions from the Open Trivia DB (no API key).
type OpenTDBClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenTDBClient(baseURL string, httpClient *http.Client) *OpenTDBClient {
	if baseURL == "" {
		baseURL = "https://opentdb.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &OpenTDBClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type openTDBQuestion struct {
	Question        string   `json:"question"`
	CorrectAnswer   string   `json:"correct_answer"`
	IncorrectAnswer []string `json:"incorrect_answers"`
}

type openTDBResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []openTDBQuestion `json:"results"`
}

// Open Trivia DB response codes.
var openTDBCodes = map[int]string{
	1: "not enough questions for the query",
	2: "invalid parameter",
	5: "rate limited",
}

// Fetch implements question.Provider. Category is the numeric Open Trivia DB
// category id. Texts arrive HTML-escaped and are unescaped here.
func (c *OpenTDBClient) Fetch(ctx context.Context, req question.FetchRequest) ([]question.Input, error) {
	values := url.Values{}
	values.Set("amount", strconv.Itoa(req.Amount))
	if req.Difficulty != "" {
		values.Set("difficulty", req.Difficulty)
	}
	if req.Category != "" {
		values.Set("category", req.Category)
	}

	var payload openTDBResponse
	if err := getJSON(ctx, c.httpClient, c.baseURL+"/api.php?"+values.Encode(), nil, &payload); err != nil {
		return nil, fmt.Errorf("%w: opentdb: %w", question.ErrUpstream, err)
	}
	if payload.ResponseCode != 0 {
		reason, ok := openTDBCodes[payload.ResponseCode]
		if !ok {
			reason = "response code " + strconv.Itoa(payload.ResponseCode)
		}
		return nil, fmt.Errorf("%w: opentdb: %s", question.ErrUpstream, reason)
	}

	out := make([]question.Input, 0, len(payload.Results))
	for _, q := range payload.Results {
		if in, ok := toInput(q.Question, q.CorrectAnswer, q.IncorrectAnswer, true); ok {
			out = append(out, in)
		}
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("non-2xx status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
