package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"donna/internal/agent/ports"
	"donna/internal/errors"
	"donna/internal/httpclient"
	"donna/internal/logging"
)

const (
	defaultTavilyURL = "https://api.tavily.com/search"
	defaultDDGURL    = "https://html.duckduckgo.com/html/"
)

// newsSiteFilter narrows news-flavored queries to a fixed set of outlets so
// results stay consistent across engines.
const newsSiteFilter = "site:bbc.com OR site:reuters.com OR site:cnn.com OR site:ndtv.com OR site:thehindu.com"

// SearchResult is one web search hit.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// WebSearchTool searches the web, preferring Tavily when a key is configured
// and falling back to scraping DuckDuckGo's HTML endpoint.
type WebSearchTool struct {
	tavilyKey  string
	tavilyURL  string
	ddgURL     string
	httpClient *http.Client
	logger     logging.Logger
}

func NewWebSearchTool(tavilyKey string, logger logging.Logger) *WebSearchTool {
	return &WebSearchTool{
		tavilyKey:  tavilyKey,
		tavilyURL:  defaultTavilyURL,
		ddgURL:     defaultDDGURL,
		httpClient: httpclient.New(20 * time.Second),
		logger:     logging.OrNop(logger),
	}
}

func (t *WebSearchTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	query := stringArg(call.Arguments, "query")
	if query == "" {
		return nil, errors.NewValidation("query")
	}
	maxResults := clampInt(call.Arguments, "max_results", 5, 1, 10)

	lower := strings.ToLower(query)
	if strings.Contains(lower, "news") || strings.Contains(lower, "headline") {
		query = query + " " + newsSiteFilter
	}

	var results []SearchResult
	if t.tavilyKey != "" {
		tavilyResults, err := t.searchTavily(ctx, query, maxResults)
		if err == nil {
			results = tavilyResults
		} else {
			t.logger.Warn("Tavily search failed, falling back to DuckDuckGo: %v", err)
		}
	}
	if results == nil {
		ddgResults, err := t.searchDuckDuckGo(ctx, query, maxResults)
		if err != nil {
			return nil, err
		}
		results = ddgResults
	}

	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(results),
	}, nil
}

func (t *WebSearchTool) searchTavily(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	payload, err := json.Marshal(map[string]any{
		"api_key":     t.tavilyKey,
		"query":       query,
		"max_results": maxResults,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tavilyURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternal("tavily", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := httpclient.ReadAllWithLimit(resp.Body, 4<<20)
	if err != nil {
		return nil, errors.NewExternal("tavily", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewExternal("tavily", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed struct {
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.NewExternal("tavily", fmt.Errorf("decode response: %w", err))
	}

	results := make([]SearchResult, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		results = append(results, SearchResult{
			Title:   item.Title,
			URL:     item.URL,
			Content: item.Content,
			Score:   item.Score,
		})
	}
	return results, nil
}

func (t *WebSearchTool) searchDuckDuckGo(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	endpoint := t.ddgURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; donna-assistant)")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternal("duckduckgo", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewExternal("duckduckgo", fmt.Errorf("status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.NewExternal("duckduckgo", fmt.Errorf("parse html: %w", err))
	}

	var results []SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		link := sel.Find("a.result__a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		if title == "" || href == "" {
			return true
		}
		results = append(results, SearchResult{
			Title:   title,
			URL:     resolveDDGLink(href),
			Content: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		})
		return len(results) < maxResults
	})
	return results, nil
}

// resolveDDGLink unwraps DuckDuckGo's redirect URLs to the target address.
func resolveDDGLink(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func (t *WebSearchTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "web_search",
		Description: "Search the web for current information.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"query":       {Type: "string", Description: "Search query."},
				"max_results": {Type: "integer", Description: "Number of results (1..10, default 5)."},
			},
			Required: []string{"query"},
		},
	}
}

func (t *WebSearchTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "web_search", Version: "1.0.0", Category: "search"}
}
