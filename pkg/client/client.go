package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/terra-clan/practice-engine/internal/models"
)

// Client is a Go SDK for the practice-engine API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new practice-engine client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// StartProblemRequest selects the next problem. Slug wins over Difficulty;
// with neither set the server picks a random free problem.
type StartProblemRequest struct {
	Slug       string `json:"slug,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Force      bool   `json:"force,omitempty"`
}

// PracticeReply is the assistant's reaction to a practice message
type PracticeReply struct {
	Kind   string                  `json:"kind"`
	Text   string                  `json:"text,omitempty"`
	Result *models.ExecutionResult `json:"result,omitempty"`
}

// InterviewReply is one turn of an interview simulation
type InterviewReply struct {
	Feedback     string                  `json:"feedback,omitempty"`
	NextQuestion string                  `json:"next_question,omitempty"`
	Report       *models.InterviewReport `json:"report,omitempty"`
	Done         bool                    `json:"done"`
}

// InterviewResume is a restored interview snapshot
type InterviewResume struct {
	Session         *models.InterviewSession `json:"session"`
	CurrentQuestion string                   `json:"current_question"`
}

// Execute runs user code against test code in the sandbox
func (c *Client) Execute(ctx context.Context, userCode, testCode string) (*models.ExecutionResult, error) {
	body, err := json.Marshal(models.ExecuteRequest{Code: userCode, TestCode: testCode})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var result models.ExecutionResult
	if err := c.call(ctx, "POST", "/api/v1/execute", bytes.NewReader(body), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RandomProblem fetches a random free problem, optionally filtered by difficulty
func (c *Client) RandomProblem(ctx context.Context, difficulty string) (*models.Problem, error) {
	path := "/api/v1/problems/random"
	if difficulty != "" {
		path += "?difficulty=" + url.QueryEscape(difficulty)
	}

	var problem models.Problem
	if err := c.call(ctx, "GET", path, nil, &problem); err != nil {
		return nil, err
	}
	return &problem, nil
}

// Problem fetches a problem by slug
func (c *Client) Problem(ctx context.Context, slug string) (*models.Problem, error) {
	var problem models.Problem
	if err := c.call(ctx, "GET", "/api/v1/problems/"+url.PathEscape(slug), nil, &problem); err != nil {
		return nil, err
	}
	return &problem, nil
}

// Problems lists free problems one page at a time
func (c *Client) Problems(ctx context.Context, difficulty string, limit, offset int) (*models.ProblemPage, error) {
	q := url.Values{}
	if difficulty != "" {
		q.Set("difficulty", difficulty)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", offset))
	}
	path := "/api/v1/problems"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page models.ProblemPage
	if err := c.call(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SearchProblems searches free problems by keyword
func (c *Client) SearchProblems(ctx context.Context, keyword string, limit int) ([]models.ProblemSummary, error) {
	q := url.Values{}
	q.Set("q", keyword)
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}

	var found []models.ProblemSummary
	if err := c.call(ctx, "GET", "/api/v1/problems/search?"+q.Encode(), nil, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// StartProblem presents a problem to the user
func (c *Client) StartProblem(ctx context.Context, userID string, req StartProblemRequest) (*models.PracticeSession, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var sess models.PracticeSession
	if err := c.call(ctx, "POST", "/api/v1/practice/"+url.PathEscape(userID)+"/start", bytes.NewReader(body), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SendPracticeMessage sends a free-form message to an active practice session
func (c *Client) SendPracticeMessage(ctx context.Context, userID, text string) (*PracticeReply, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var reply PracticeReply
	if err := c.call(ctx, "POST", "/api/v1/practice/"+url.PathEscape(userID)+"/message", bytes.NewReader(body), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ResumePractice restores a saved practice session
func (c *Client) ResumePractice(ctx context.Context, userID string) (*models.PracticeSession, error) {
	var sess models.PracticeSession
	if err := c.call(ctx, "POST", "/api/v1/practice/"+url.PathEscape(userID)+"/resume", nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// ExitPractice leaves practice mode, keeping the session snapshot
func (c *Client) ExitPractice(ctx context.Context, userID string) error {
	return c.call(ctx, "POST", "/api/v1/practice/"+url.PathEscape(userID)+"/exit", nil, nil)
}

// Stats fetches the user's solve statistics
func (c *Client) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	var stats models.UserStats
	if err := c.call(ctx, "GET", "/api/v1/practice/"+url.PathEscape(userID)+"/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Solved lists the user's solved problems
func (c *Client) Solved(ctx context.Context, userID string, limit, offset int) ([]*models.SolvedProblem, error) {
	path := fmt.Sprintf("/api/v1/practice/%s/solved?limit=%d&offset=%d", url.PathEscape(userID), limit, offset)

	var solved []*models.SolvedProblem
	if err := c.call(ctx, "GET", path, nil, &solved); err != nil {
		return nil, err
	}
	return solved, nil
}

// SetupInterview creates an interview session with the chosen persona
func (c *Client) SetupInterview(ctx context.Context, userID, persona string) (*models.InterviewSession, error) {
	body, err := json.Marshal(map[string]string{"persona": persona})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var sess models.InterviewSession
	if err := c.call(ctx, "POST", "/api/v1/interview/"+url.PathEscape(userID)+"/setup", bytes.NewReader(body), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// BeginInterview generates the question plan and asks the first question
func (c *Client) BeginInterview(ctx context.Context, userID, topic string) (*InterviewReply, error) {
	body, err := json.Marshal(map[string]string{"topic": topic})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var reply InterviewReply
	if err := c.call(ctx, "POST", "/api/v1/interview/"+url.PathEscape(userID)+"/begin", bytes.NewReader(body), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// SendInterviewMessage sends an answer or question to the active interview
func (c *Client) SendInterviewMessage(ctx context.Context, userID, text string) (*InterviewReply, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var reply InterviewReply
	if err := c.call(ctx, "POST", "/api/v1/interview/"+url.PathEscape(userID)+"/message", bytes.NewReader(body), &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ResumeInterview restores a saved interview and re-presents the current question
func (c *Client) ResumeInterview(ctx context.Context, userID string) (*InterviewResume, error) {
	var resumed InterviewResume
	if err := c.call(ctx, "POST", "/api/v1/interview/"+url.PathEscape(userID)+"/resume", nil, &resumed); err != nil {
		return nil, err
	}
	return &resumed, nil
}

// ExitInterview leaves interview mode, keeping the session snapshot
func (c *Client) ExitInterview(ctx context.Context, userID string) error {
	return c.call(ctx, "POST", "/api/v1/interview/"+url.PathEscape(userID)+"/exit", nil, nil)
}

// Reports lists the user's finished interview reports
func (c *Client) Reports(ctx context.Context, userID string, limit, offset int) ([]*models.InterviewReport, error) {
	path := fmt.Sprintf("/api/v1/interview/%s/reports?limit=%d&offset=%d", url.PathEscape(userID), limit, offset)

	var reports []*models.InterviewReport
	if err := c.call(ctx, "GET", path, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, "GET", "/health", nil)
	return err
}

// call performs a request and decodes the standard response envelope into out
func (c *Client) call(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var result struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success {
		if result.Error != nil {
			return fmt.Errorf("API error: %s - %s", result.Error.Code, result.Error.Message)
		}
		return fmt.Errorf("API error: request failed")
	}

	if out != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, out); err != nil {
			return fmt.Errorf("failed to unmarshal response data: %w", err)
		}
	}

	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
