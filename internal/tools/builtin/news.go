package builtin

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"donna/internal/agent/ports"
	"donna/internal/errors"
	"donna/internal/httpclient"
	"donna/internal/logging"
)

// NewsItem is one headline pulled from an RSS feed.
type NewsItem struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Published string `json:"published,omitempty"`
	Source    string `json:"source,omitempty"`
}

// NewsTool aggregates headlines from configured RSS feeds. Feed fetches run
// concurrently and each feed's parse result is cached briefly, so a burst of
// news questions does not hammer the publishers.
type NewsTool struct {
	feeds      []string
	httpClient *http.Client
	cache      *expirable.LRU[string, []NewsItem]
	logger     logging.Logger
}

const newsCacheTTL = 5 * time.Minute

func NewNewsTool(feeds []string, logger logging.Logger) *NewsTool {
	return &NewsTool{
		feeds:      feeds,
		httpClient: httpclient.New(15 * time.Second),
		cache:      expirable.NewLRU[string, []NewsItem](32, nil, newsCacheTTL),
		logger:     logging.OrNop(logger),
	}
}

func (t *NewsTool) Execute(ctx context.Context, call ports.ToolCall) (*ports.ToolResult, error) {
	maxResults := clampInt(call.Arguments, "max_results", 5, 1, 20)
	if len(t.feeds) == 0 {
		return nil, errors.NewUnavailable("news", "no RSS feeds configured")
	}

	var mu sync.Mutex
	perFeed := make(map[string][]NewsItem, len(t.feeds))

	group, groupCtx := errgroup.WithContext(ctx)
	for _, feed := range t.feeds {
		group.Go(func() error {
			items, err := t.fetchFeed(groupCtx, feed)
			if err != nil {
				// One dead feed must not empty the whole digest.
				t.logger.Warn("Feed %s failed: %v", feed, err)
				return nil
			}
			mu.Lock()
			perFeed[feed] = items
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Interleave feeds in configuration order so one prolific source cannot
	// crowd out the rest.
	var all []NewsItem
	for _, feed := range t.feeds {
		items := perFeed[feed]
		if len(items) > maxResults {
			items = items[:maxResults]
		}
		all = append(all, items...)
	}
	if len(all) == 0 {
		return nil, errors.NewUnavailable("news", "all configured feeds failed")
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Published > all[j].Published
	})
	if len(all) > maxResults {
		all = all[:maxResults]
	}

	return &ports.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		OK:      true,
		Content: toContent(all),
	}, nil
}

type rssDocument struct {
	Channel struct {
		Title string `xml:"title"`
		Items []struct {
			Title   string `xml:"title"`
			Link    string `xml:"link"`
			PubDate string `xml:"pubDate"`
		} `xml:"item"`
	} `xml:"channel"`
}

func (t *NewsTool) fetchFeed(ctx context.Context, feedURL string) ([]NewsItem, error) {
	if cached, ok := t.cache.Get(feedURL); ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	raw, err := httpclient.ReadAllWithLimit(resp.Body, 4<<20)
	if err != nil {
		return nil, err
	}

	var doc rssDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}

	items := make([]NewsItem, 0, len(doc.Channel.Items))
	for _, entry := range doc.Channel.Items {
		items = append(items, NewsItem{
			Title:     entry.Title,
			URL:       entry.Link,
			Published: normalizePubDate(entry.PubDate),
			Source:    doc.Channel.Title,
		})
	}
	t.cache.Add(feedURL, items)
	return items, nil
}

// normalizePubDate converts the usual RSS date formats to RFC 3339 so items
// from different publishers sort together. Unparseable dates pass through.
func normalizePubDate(value string) string {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC().Format(time.RFC3339)
		}
	}
	return value
}

func (t *NewsTool) Definition() ports.ToolDefinition {
	return ports.ToolDefinition{
		Name:        "get_latest_news",
		Description: "Get the latest headlines from the configured news feeds.",
		Parameters: ports.ParameterSchema{
			Type: "object",
			Properties: map[string]ports.Property{
				"max_results": {Type: "integer", Description: "Number of headlines (1..20, default 5)."},
			},
		},
	}
}

func (t *NewsTool) Metadata() ports.ToolMetadata {
	return ports.ToolMetadata{Name: "get_latest_news", Version: "1.0.0", Category: "search"}
}
