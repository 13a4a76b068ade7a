package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"donna/internal/agent/ports"
	"donna/internal/errors"
)

func TestWebSearchUsesTavilyWhenConfigured(t *testing.T) {
	var gotQuery string
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotQuery, _ = payload["query"].(string)
		_, _ = w.Write([]byte(`{"results": [{"title": "Result", "url": "https://example.com", "content": "snippet", "score": 0.9}]}`))
	}))
	defer tavily.Close()

	tool := NewWebSearchTool("tvly-test", nil)
	tool.tavilyURL = tavily.URL

	result, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "web_search",
		Arguments: map[string]any{"query": "weather in berlin"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotQuery != "weather in berlin" {
		t.Fatalf("query = %q", gotQuery)
	}

	var results []SearchResult
	if err := json.Unmarshal([]byte(result.Content), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Result" {
		t.Fatalf("results = %+v", results)
	}
}

func TestWebSearchNewsQueryGetsSiteFilter(t *testing.T) {
	var gotQuery string
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotQuery, _ = payload["query"].(string)
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer tavily.Close()

	tool := NewWebSearchTool("tvly-test", nil)
	tool.tavilyURL = tavily.URL

	if _, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "web_search",
		Arguments: map[string]any{"query": "latest news about elections"},
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(gotQuery, "site:bbc.com") || !strings.Contains(gotQuery, "site:reuters.com") {
		t.Fatalf("query = %q, want site filter appended", gotQuery)
	}
}

const ddgFixture = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fpage">Example Page</a>
  <div class="result__snippet">An example snippet.</div>
</div>
<div class="result">
  <a class="result__a" href="https://direct.example.com">Direct Link</a>
  <div class="result__snippet">Another snippet.</div>
</div>
</body></html>`

func TestWebSearchFallsBackToDuckDuckGo(t *testing.T) {
	tavily := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer tavily.Close()

	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Error("missing q parameter")
		}
		_, _ = w.Write([]byte(ddgFixture))
	}))
	defer ddg.Close()

	tool := NewWebSearchTool("tvly-test", nil)
	tool.tavilyURL = tavily.URL
	tool.ddgURL = ddg.URL

	result, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "web_search",
		Arguments: map[string]any{"query": "anything"},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var results []SearchResult
	if err := json.Unmarshal([]byte(result.Content), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].URL != "https://example.org/page" {
		t.Fatalf("redirect not unwrapped: %q", results[0].URL)
	}
	if results[1].URL != "https://direct.example.com" {
		t.Fatalf("direct link mangled: %q", results[1].URL)
	}
}

func TestWebSearchMissingQuery(t *testing.T) {
	tool := NewWebSearchTool("", nil)
	_, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "web_search", Arguments: map[string]any{},
	})
	if !errors.IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
}
