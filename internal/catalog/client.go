// Package catalog fetches problem statements and metadata from the
// external problem-catalog GraphQL API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/terra-clan/practice-engine/internal/models"
)

const (
	defaultCategory = "all-code-essentials"

	// Skip bounds keep random picks inside the part of the catalog that
	// actually has problems of the requested difficulty.
	maxSkipEasy  = 400
	maxSkipOther = 800

	randomBatchSize = 50
)

var (
	// ErrNotFound is returned when a slug does not resolve to a problem
	ErrNotFound = errors.New("problem not found")

	// ErrNoFreeProblems is returned when a random batch held only paid problems
	ErrNoFreeProblems = errors.New("no free problems in this batch, try again")
)

// Client talks to the problem-catalog GraphQL endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client

	mu   sync.Mutex
	rand *rand.Rand
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRandSource sets the random source used for problem selection
func WithRandSource(src rand.Source) Option {
	return func(c *Client) {
		c.rand = rand.New(src)
	}
}

// NewClient creates a catalog client
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

const listQuery = `
query problemsetQuestionListV2($categorySlug: String, $limit: Int, $skip: Int, $filters: QuestionFilterInput, $searchKeyword: String) {
    problemsetQuestionListV2(
        categorySlug: $categorySlug
        limit: $limit
        skip: $skip
        filters: $filters
        searchKeyword: $searchKeyword
    ) {
        totalLength
        questions {
            titleSlug
            title
            paidOnly
            difficulty
        }
    }
}`

const detailQuery = `
query questionContent($titleSlug: String!) {
    question(titleSlug: $titleSlug) {
        title
        content
        difficulty
        codeSnippets {
            lang
            langSlug
            code
        }
    }
}`

// Random picks a random free problem of the given difficulty. It samples a
// random page offset, fetches a batch and chooses among its free entries.
func (c *Client) Random(ctx context.Context, difficulty models.Difficulty) (*models.Problem, error) {
	maxSkip := maxSkipOther
	if difficulty == models.DifficultyEasy {
		maxSkip = maxSkipEasy
	}

	c.mu.Lock()
	skip := c.rand.Intn(maxSkip + 1)
	c.mu.Unlock()

	slog.Info("fetching random problem batch", "difficulty", difficulty, "skip", skip)

	page, err := c.queryList(ctx, listVariables{
		CategorySlug: defaultCategory,
		Limit:        randomBatchSize,
		Skip:         skip,
		Filters:      difficultyFilter(difficulty),
	})
	if err != nil {
		return nil, err
	}

	var free []models.ProblemSummary
	for _, q := range page.Problems {
		if !q.PaidOnly {
			free = append(free, q)
		}
	}
	if len(free) == 0 {
		return nil, ErrNoFreeProblems
	}

	c.mu.Lock()
	chosen := free[c.rand.Intn(len(free))]
	c.mu.Unlock()

	slog.Info("random problem selected", "slug", chosen.Slug, "title", chosen.Title)
	return c.BySlug(ctx, chosen.Slug)
}

// BySlug fetches the full statement and starter code for a problem
func (c *Client) BySlug(ctx context.Context, slug string) (*models.Problem, error) {
	var resp struct {
		Question *struct {
			Title        string `json:"title"`
			Content      string `json:"content"`
			Difficulty   string `json:"difficulty"`
			CodeSnippets []struct {
				LangSlug string `json:"langSlug"`
				Code     string `json:"code"`
			} `json:"codeSnippets"`
		} `json:"question"`
	}

	if err := c.execute(ctx, detailQuery, map[string]any{"titleSlug": slug}, &resp); err != nil {
		return nil, err
	}
	if resp.Question == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}

	// python3 snippet preferred, legacy python as fallback
	snippet := ""
	for _, s := range resp.Question.CodeSnippets {
		if s.LangSlug == "python3" {
			snippet = s.Code
			break
		}
	}
	if snippet == "" {
		for _, s := range resp.Question.CodeSnippets {
			if s.LangSlug == "python" {
				snippet = s.Code
				break
			}
		}
	}

	return &models.Problem{
		Slug:          slug,
		Title:         resp.Question.Title,
		Difficulty:    models.ParseDifficulty(resp.Question.Difficulty),
		StatementHTML: resp.Question.Content,
		StarterCode:   snippet,
		Link:          fmt.Sprintf("https://leetcode.com/problems/%s/", slug),
	}, nil
}

// List returns one page of problems of the given difficulty. Paid problems
// are filtered out; Total still reflects the upstream count.
func (c *Client) List(ctx context.Context, category string, difficulty models.Difficulty, limit, offset int) (*models.ProblemPage, error) {
	if category == "" {
		category = defaultCategory
	}
	if limit <= 0 {
		limit = 10
	}

	page, err := c.queryList(ctx, listVariables{
		CategorySlug: category,
		Limit:        limit,
		Skip:         offset,
		Filters:      difficultyFilter(difficulty),
	})
	if err != nil {
		return nil, err
	}

	filtered := make([]models.ProblemSummary, 0, len(page.Problems))
	for _, q := range page.Problems {
		if !q.PaidOnly {
			filtered = append(filtered, q)
		}
	}

	return &models.ProblemPage{
		Problems: filtered,
		Total:    page.Total,
		Offset:   offset,
		HasMore:  offset+limit < page.Total,
	}, nil
}

// Search finds problems matching a keyword, free ones only
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]models.ProblemSummary, error) {
	if limit <= 0 {
		limit = 5
	}

	page, err := c.queryList(ctx, listVariables{
		CategorySlug:  defaultCategory,
		Limit:         limit,
		Filters:       statusOnlyFilter(),
		SearchKeyword: keyword,
	})
	if err != nil {
		return nil, err
	}

	var free []models.ProblemSummary
	for _, q := range page.Problems {
		if !q.PaidOnly {
			free = append(free, q)
		}
	}
	return free, nil
}

// --- GraphQL plumbing ---

type listVariables struct {
	CategorySlug  string         `json:"categorySlug"`
	Limit         int            `json:"limit"`
	Skip          int            `json:"skip,omitempty"`
	Filters       map[string]any `json:"filters"`
	SearchKeyword string         `json:"searchKeyword,omitempty"`
}

func difficultyFilter(d models.Difficulty) map[string]any {
	return map[string]any{
		"filterCombineType": "ALL",
		"difficultyFilter": map[string]any{
			"difficulties": []string{string(d)},
			"operator":     "IS",
		},
		"statusFilter": map[string]any{
			"questionStatuses": []string{},
			"operator":         "IS",
		},
	}
}

func statusOnlyFilter() map[string]any {
	return map[string]any{
		"filterCombineType": "ALL",
		"statusFilter": map[string]any{
			"questionStatuses": []string{},
			"operator":         "IS",
		},
	}
}

func (c *Client) queryList(ctx context.Context, vars listVariables) (*models.ProblemPage, error) {
	var resp struct {
		List *struct {
			TotalLength int `json:"totalLength"`
			Questions   []struct {
				TitleSlug  string `json:"titleSlug"`
				Title      string `json:"title"`
				PaidOnly   bool   `json:"paidOnly"`
				Difficulty string `json:"difficulty"`
			} `json:"questions"`
		} `json:"problemsetQuestionListV2"`
	}

	if err := c.execute(ctx, listQuery, vars, &resp); err != nil {
		return nil, err
	}
	if resp.List == nil {
		return nil, errors.New("catalog returned an empty problem list")
	}

	page := &models.ProblemPage{Total: resp.List.TotalLength}
	for _, q := range resp.List.Questions {
		page.Problems = append(page.Problems, models.ProblemSummary{
			Slug:       q.TitleSlug,
			Title:      q.Title,
			Difficulty: models.ParseDifficulty(q.Difficulty),
			PaidOnly:   q.PaidOnly,
		})
	}
	return page, nil
}

type graphqlError struct {
	Message string `json:"message"`
}

// execute runs a GraphQL query and decodes the data field into out
func (c *Client) execute(ctx context.Context, query string, variables any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://leetcode.com")
	req.Header.Set("Referer", "https://leetcode.com/problemset/all/")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read catalog response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog returned HTTP %d", resp.StatusCode)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("catalog API error: %s", envelope.Errors[0].Message)
	}
	if len(envelope.Data) == 0 {
		return errors.New("catalog response has no data")
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode catalog data: %w", err)
	}
	return nil
}
