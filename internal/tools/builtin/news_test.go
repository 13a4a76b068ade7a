package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"donna/internal/agent/ports"
)

const rssFixture = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Test Feed</title>
<item><title>First headline</title><link>https://example.com/1</link><pubDate>Mon, 01 Sep 2025 10:00:00 +0000</pubDate></item>
<item><title>Second headline</title><link>https://example.com/2</link><pubDate>Mon, 01 Sep 2025 09:00:00 +0000</pubDate></item>
</channel></rss>`

func TestNewsToolFetchesAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	tool := NewNewsTool([]string{srv.URL}, nil)
	result, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "get_latest_news",
		Arguments: map[string]any{"max_results": float64(5)},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var items []NewsItem
	if err := json.Unmarshal([]byte(result.Content), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Title != "First headline" {
		t.Fatalf("newest first expected, got %+v", items)
	}
	if items[0].Source != "Test Feed" {
		t.Fatalf("source = %q", items[0].Source)
	}
	if items[0].Published != "2025-09-01T10:00:00Z" {
		t.Fatalf("published = %q", items[0].Published)
	}
}

func TestNewsToolCachesFeeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer srv.Close()

	tool := NewNewsTool([]string{srv.URL}, nil)
	for i := 0; i < 3; i++ {
		if _, err := tool.Execute(context.Background(), ports.ToolCall{
			ID: "c1", Name: "get_latest_news", Arguments: map[string]any{},
		}); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("feed hits = %d, want 1 (cached)", got)
	}
}

func TestNewsToolSurvivesDeadFeed(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer good.Close()
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer dead.Close()

	tool := NewNewsTool([]string{dead.URL, good.URL}, nil)
	result, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "get_latest_news", Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var items []NewsItem
	if err := json.Unmarshal([]byte(result.Content), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
}

func TestNewsToolAllFeedsDead(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer dead.Close()

	tool := NewNewsTool([]string{dead.URL}, nil)
	if _, err := tool.Execute(context.Background(), ports.ToolCall{
		ID: "c1", Name: "get_latest_news", Arguments: map[string]any{},
	}); err == nil {
		t.Fatal("expected error when every feed fails")
	}
}

func TestNormalizePubDate(t *testing.T) {
	if got := normalizePubDate("Mon, 01 Sep 2025 10:00:00 +0000"); got != "2025-09-01T10:00:00Z" {
		t.Fatalf("got %q", got)
	}
	if got := normalizePubDate("not a date"); got != "not a date" {
		t.Fatalf("got %q", got)
	}
}

func TestClockTool(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("zone data unavailable: %v", err)
	}
	tool := NewClockTool(loc, "Asia/Kolkata")
	tool.now = func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }

	result, err := tool.Execute(context.Background(), ports.ToolCall{ID: "c1", Name: "get_current_time"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["utc_now"] != "2025-09-01T12:00:00Z" {
		t.Fatalf("utc_now = %q", payload["utc_now"])
	}
	if payload["local_now"] != "2025-09-01T17:30:00+05:30" {
		t.Fatalf("local_now = %q", payload["local_now"])
	}
	if payload["timezone"] != "Asia/Kolkata" {
		t.Fatalf("timezone = %q", payload["timezone"])
	}
}

func TestClampInt(t *testing.T) {
	cases := []struct {
		name string
		args map[string]any
		want int
	}{
		{"missing", map[string]any{}, 5},
		{"float", map[string]any{"n": float64(7)}, 7},
		{"below min", map[string]any{"n": float64(0)}, 1},
		{"above max", map[string]any{"n": float64(99)}, 25},
		{"string number", map[string]any{"n": "12"}, 12},
		{"garbage", map[string]any{"n": "many"}, 5},
		{"wrong type", map[string]any{"n": true}, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := clampInt(tc.args, "n", 5, 1, 25); got != tc.want {
				t.Fatalf("clampInt = %d, want %d", got, tc.want)
			}
		})
	}
}
