package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/terra-clan/practice-engine/internal/models"
)

// fakeCatalog serves canned GraphQL responses keyed by operation
type fakeCatalog struct {
	listResp   string
	detailResp string
	requests   []map[string]any
}

func (f *fakeCatalog) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		json.NewDecoder(r.Body).Decode(&req)
		f.requests = append(f.requests, req)

		w.Header().Set("Content-Type", "application/json")
		query, _ := req["query"].(string)
		if strings.Contains(query, "questionContent") {
			w.Write([]byte(f.detailResp))
			return
		}
		w.Write([]byte(f.listResp))
	}
}

const listTwoFreeOnePaid = `{"data":{"problemsetQuestionListV2":{"totalLength":42,"questions":[
  {"titleSlug":"two-sum","title":"Two Sum","paidOnly":false,"difficulty":"Easy"},
  {"titleSlug":"secret","title":"Secret","paidOnly":true,"difficulty":"Easy"},
  {"titleSlug":"add-two","title":"Add Two","paidOnly":false,"difficulty":"Easy"}
]}}}`

const detailTwoSum = `{"data":{"question":{"title":"Two Sum","content":"<p>stmt</p>","difficulty":"Easy","codeSnippets":[
  {"lang":"Java","langSlug":"java","code":"class Solution {}"},
  {"lang":"Python3","langSlug":"python3","code":"class Solution:\n    def twoSum(self): pass"}
]}}}`

func newTestClient(t *testing.T, fake *fakeCatalog) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithRandSource(rand.NewSource(1)))
}

func TestBySlug(t *testing.T) {
	c := newTestClient(t, &fakeCatalog{detailResp: detailTwoSum})

	p, err := c.BySlug(context.Background(), "two-sum")
	if err != nil {
		t.Fatalf("BySlug failed: %v", err)
	}
	if p.Title != "Two Sum" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Difficulty != models.DifficultyEasy {
		t.Errorf("difficulty = %q", p.Difficulty)
	}
	if p.StarterCode == "" || p.StarterCode == "class Solution {}" {
		t.Errorf("starter code should be the python3 snippet, got %q", p.StarterCode)
	}
	if p.Link != "https://leetcode.com/problems/two-sum/" {
		t.Errorf("link = %q", p.Link)
	}
}

func TestBySlugPythonFallback(t *testing.T) {
	detail := `{"data":{"question":{"title":"Old Task","content":"x","difficulty":"Hard","codeSnippets":[
	  {"lang":"Python","langSlug":"python","code":"# legacy python"}
	]}}}`
	c := newTestClient(t, &fakeCatalog{detailResp: detail})

	p, err := c.BySlug(context.Background(), "old-task")
	if err != nil {
		t.Fatalf("BySlug failed: %v", err)
	}
	if p.StarterCode != "# legacy python" {
		t.Errorf("expected legacy python snippet, got %q", p.StarterCode)
	}
}

func TestBySlugNotFound(t *testing.T) {
	c := newTestClient(t, &fakeCatalog{detailResp: `{"data":{"question":null}}`})

	if _, err := c.BySlug(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRandomSkipsPaidProblems(t *testing.T) {
	fake := &fakeCatalog{listResp: listTwoFreeOnePaid, detailResp: detailTwoSum}
	c := newTestClient(t, fake)

	p, err := c.Random(context.Background(), models.DifficultyEasy)
	if err != nil {
		t.Fatalf("Random failed: %v", err)
	}
	if p.Slug == "secret" {
		t.Error("random selection returned a paid problem")
	}
}

func TestRandomAllPaid(t *testing.T) {
	list := `{"data":{"problemsetQuestionListV2":{"totalLength":1,"questions":[
	  {"titleSlug":"secret","title":"Secret","paidOnly":true,"difficulty":"Hard"}
	]}}}`
	c := newTestClient(t, &fakeCatalog{listResp: list})

	if _, err := c.Random(context.Background(), models.DifficultyHard); !errors.Is(err, ErrNoFreeProblems) {
		t.Errorf("expected ErrNoFreeProblems, got %v", err)
	}
}

func TestRandomSkipBounds(t *testing.T) {
	fake := &fakeCatalog{listResp: listTwoFreeOnePaid, detailResp: detailTwoSum}
	c := newTestClient(t, fake)

	if _, err := c.Random(context.Background(), models.DifficultyEasy); err != nil {
		t.Fatalf("Random failed: %v", err)
	}

	vars := fake.requests[0]["variables"].(map[string]any)
	skip := int(vars["skip"].(float64))
	if skip < 0 || skip > maxSkipEasy {
		t.Errorf("easy skip %d outside [0, %d]", skip, maxSkipEasy)
	}
}

func TestListFiltersPaidKeepsTotal(t *testing.T) {
	c := newTestClient(t, &fakeCatalog{listResp: listTwoFreeOnePaid})

	page, err := c.List(context.Background(), "algorithms", models.DifficultyEasy, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page.Problems) != 2 {
		t.Errorf("expected 2 free problems, got %d", len(page.Problems))
	}
	if page.Total != 42 {
		t.Errorf("total = %d, want upstream 42", page.Total)
	}
	if !page.HasMore {
		t.Error("expected HasMore for offset 0 of 42")
	}
}

func TestListLastPage(t *testing.T) {
	c := newTestClient(t, &fakeCatalog{listResp: listTwoFreeOnePaid})

	page, err := c.List(context.Background(), "", models.DifficultyEasy, 10, 40)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.HasMore {
		t.Error("offset 40 of 42 with limit 10 should be the last page")
	}
}

func TestSearchFreeOnly(t *testing.T) {
	fake := &fakeCatalog{listResp: listTwoFreeOnePaid}
	c := newTestClient(t, fake)

	results, err := c.Search(context.Background(), "sum", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, r := range results {
		if r.PaidOnly {
			t.Errorf("search returned paid problem %q", r.Slug)
		}
	}

	vars := fake.requests[0]["variables"].(map[string]any)
	if vars["searchKeyword"] != "sum" {
		t.Errorf("searchKeyword = %v", vars["searchKeyword"])
	}
}

func TestGraphQLErrorSurface(t *testing.T) {
	c := newTestClient(t, &fakeCatalog{detailResp: `{"errors":[{"message":"rate limited"}]}`})

	_, err := c.BySlug(context.Background(), "two-sum")
	if err == nil {
		t.Fatal("expected error")
	}
}
