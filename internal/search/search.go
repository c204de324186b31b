// Package search wraps the third-party search and media APIs the app
// proxies: Wikipedia, Bing, DuckDuckGo, Archive.org and YouTube.
//
// These are thin, stateless clients: translate query parameters into an
// upstream URL, call it with the request context, reshape the response.
// No retries, no circuit breaking, no caching — a slow upstream stalls only
// the requests that depend on it. Failures surface as apperror.Upstream.
//
// Every endpoint URL is a struct field so tests can point the client at an
// httptest.Server instead of the real API.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/mkowalczyk/dsn-service/internal/apperror"
)

// htmlTags strips the <span class="searchmatch"> markup Wikipedia embeds in
// its snippets.
var htmlTags = regexp.MustCompile(`<.*?>`)

const userAgent = "dsn-service/1.0"

// Result is one hit from any of the text-search sources.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
	Link    string `json:"link"`
}

// Response aggregates the per-source results for GET /api/search.
// Pointer slices so that a source the caller did not request is omitted
// from the JSON entirely, while a requested source with no hits still
// serializes as an empty array.
type Response struct {
	Q         string    `json:"q"`
	Wikipedia *[]Result `json:"wikipedia,omitempty"`
	Bing      *[]Result `json:"bing,omitempty"`
	Duck      *[]Result `json:"duck,omitempty"`
}

// ArchiveItem is one archive.org hit.
type ArchiveItem struct {
	Identifier   string `json:"identifier"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	MediaType    string `json:"mediatype"`
	Downloads    int    `json:"downloads"`
	Link         string `json:"link"`
	DownloadLink string `json:"downloadLink"`
}

// Video is one YouTube search hit.
type Video struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	VideoID      string `json:"videoId,omitempty"`
	ChannelTitle string `json:"channelTitle"`
	ChannelID    string `json:"channelId,omitempty"`
	Link         string `json:"link"`
	ChannelLink  string `json:"channelLink"`
}

// AIResult is the summariser's answer: a plain-text summary plus whichever
// raw material produced it.
type AIResult struct {
	Summary  string   `json:"summary"`
	Videos   []Video  `json:"videos,omitempty"`
	Snippets []string `json:"snippets,omitempty"`
}

// Client calls the external APIs.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger

	bingKey    string
	youtubeKey string

	// endpoint templates, overridable in tests
	wikiURL    string // %s is the locale, e.g. "en"
	bingURL    string
	duckURL    string
	archiveURL string
	youtubeURL string
}

// New creates a Client. bingKey and youtubeKey may be empty: Bing then
// degrades to an empty result list, YouTube reports a disabled feature.
func New(httpClient *http.Client, bingKey, youtubeKey string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		bingKey:    bingKey,
		youtubeKey: youtubeKey,
		wikiURL:    "https://%s.wikipedia.org/w/api.php",
		bingURL:    "https://api.bing.microsoft.com/v7.0/search",
		duckURL:    "https://api.duckduckgo.com/",
		archiveURL: "https://archive.org/advancedsearch.php",
		youtubeURL: "https://www.googleapis.com/youtube/v3/search",
	}
}

// Search queries the requested sources and aggregates their results.
// region selects the Wikipedia locale ("en", "pl", ...). sources accepts
// the aliases the frontend uses: wikipedia/wiki, bing/msn, duck/duckduckgo.
// An empty sources list queries all three.
func (c *Client) Search(ctx context.Context, q, region string, sources []string) (*Response, error) {
	if q == "" {
		return nil, apperror.ValidationFailed("q", "q required")
	}
	if region == "" {
		region = "en"
	}
	if len(sources) == 0 {
		sources = []string{"wikipedia", "bing", "duck"}
	}

	want := map[string]bool{}
	for _, s := range sources {
		want[strings.ToLower(strings.TrimSpace(s))] = true
	}

	resp := &Response{Q: q}

	if want["wikipedia"] || want["wiki"] {
		results, err := c.wikipedia(ctx, q, region, 5)
		if err != nil {
			return nil, err
		}
		resp.Wikipedia = &results
	}

	if want["bing"] || want["msn"] {
		results, err := c.bing(ctx, q)
		if err != nil {
			return nil, err
		}
		resp.Bing = &results
	}

	if want["duck"] || want["duckduckgo"] {
		results, err := c.duck(ctx, q)
		if err != nil {
			return nil, err
		}
		resp.Duck = &results
	}

	return resp, nil
}

// wikipedia runs a srsearch query against the locale's API.
func (c *Client) wikipedia(ctx context.Context, q, region string, limit int) ([]Result, error) {
	base := fmt.Sprintf(c.wikiURL, region)
	params := url.Values{
		"action":   {"query"},
		"format":   {"json"},
		"list":     {"search"},
		"srsearch": {q},
		"srlimit":  {fmt.Sprint(limit)},
	}

	var payload struct {
		Query struct {
			Search []struct {
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, base+"?"+params.Encode(), nil, &payload); err != nil {
		return nil, apperror.Upstream("wikipedia", "search failed")
	}

	results := make([]Result, 0, len(payload.Query.Search))
	for _, s := range payload.Query.Search {
		results = append(results, Result{
			Title:   s.Title,
			Snippet: htmlTags.ReplaceAllString(s.Snippet, ""),
			Source:  "wikipedia",
			Link:    fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", region, url.PathEscape(s.Title)),
		})
	}
	return results, nil
}

// bing queries the Bing Web Search API. Without a key (or on upstream
// failure) it degrades to an empty list — the aggregate search should not
// fail because one optional source is unavailable.
func (c *Client) bing(ctx context.Context, q string) ([]Result, error) {
	results := []Result{}
	if c.bingKey == "" {
		return results, nil
	}

	params := url.Values{"q": {q}, "count": {"5"}}
	headers := map[string]string{"Ocp-Apim-Subscription-Key": c.bingKey}

	var payload struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				Snippet string `json:"snippet"`
				URL     string `json:"url"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := c.getJSON(ctx, c.bingURL+"?"+params.Encode(), headers, &payload); err != nil {
		c.logger.Warn("bing search failed", slog.String("error", err.Error()))
		return results, nil
	}

	for _, w := range payload.WebPages.Value {
		results = append(results, Result{Title: w.Name, Snippet: w.Snippet, Source: "bing", Link: w.URL})
	}
	return results, nil
}

// duck queries the DuckDuckGo Instant Answer API (no key required): the
// abstract first, then up to five related topics, descending one level into
// nested topic groups.
func (c *Client) duck(ctx context.Context, q string) ([]Result, error) {
	params := url.Values{
		"q":             {q},
		"format":        {"json"},
		"no_html":       {"1"},
		"skip_disambig": {"1"},
	}

	type topic struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
		Topics   []struct {
			Text     string `json:"Text"`
			FirstURL string `json:"FirstURL"`
		} `json:"Topics"`
	}
	var payload struct {
		Heading       string  `json:"Heading"`
		AbstractText  string  `json:"AbstractText"`
		AbstractURL   string  `json:"AbstractURL"`
		RelatedTopics []topic `json:"RelatedTopics"`
	}
	if err := c.getJSON(ctx, c.duckURL+"?"+params.Encode(), nil, &payload); err != nil {
		return nil, apperror.Upstream("duckduckgo", "search failed")
	}

	fallbackLink := "https://duckduckgo.com/?q=" + url.QueryEscape(q)

	results := []Result{}
	if payload.AbstractText != "" {
		title := payload.Heading
		if title == "" {
			title = q
		}
		link := payload.AbstractURL
		if link == "" {
			link = fallbackLink
		}
		results = append(results, Result{Title: title, Snippet: payload.AbstractText, Source: "duckduckgo", Link: link})
	}

	related := payload.RelatedTopics
	if len(related) > 5 {
		related = related[:5]
	}
	for _, rt := range related {
		switch {
		case rt.Text != "":
			link := rt.FirstURL
			if link == "" {
				link = fallbackLink
			}
			results = append(results, Result{
				Title:   strings.SplitN(rt.Text, " - ", 2)[0],
				Snippet: rt.Text,
				Source:  "duckduckgo",
				Link:    link,
			})
		case len(rt.Topics) > 0:
			nested := rt.Topics
			if len(nested) > 3 {
				nested = nested[:3]
			}
			for _, t := range nested {
				results = append(results, Result{Title: t.Text, Snippet: t.Text, Source: "duckduckgo", Link: t.FirstURL})
			}
		}
	}
	return results, nil
}

// Archive queries archive.org's advanced search. mediatype narrows the
// query unless it is empty or "all".
func (c *Client) Archive(ctx context.Context, q, mediatype string) ([]ArchiveItem, error) {
	if q == "" {
		return nil, apperror.ValidationFailed("q", "q required")
	}

	query := q
	if mediatype != "" && mediatype != "all" {
		query += " AND mediatype:" + mediatype
	}

	params := url.Values{
		"q":      {query},
		"fl[]":   {"identifier", "title", "description", "mediatype", "downloads"},
		"output": {"json"},
		"rows":   {"20"},
	}

	var payload struct {
		Response struct {
			Docs []struct {
				Identifier  string `json:"identifier"`
				Title       string `json:"title"`
				Description string `json:"description"`
				MediaType   string `json:"mediatype"`
				Downloads   int    `json:"downloads"`
			} `json:"docs"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, c.archiveURL+"?"+params.Encode(), nil, &payload); err != nil {
		return nil, apperror.Upstream("archive.org", "search failed")
	}

	items := make([]ArchiveItem, 0, len(payload.Response.Docs))
	for _, doc := range payload.Response.Docs {
		title := doc.Title
		if title == "" {
			title = doc.Identifier
		}
		items = append(items, ArchiveItem{
			Identifier:   doc.Identifier,
			Title:        title,
			Description:  truncate(doc.Description, 200),
			MediaType:    doc.MediaType,
			Downloads:    doc.Downloads,
			Link:         "https://archive.org/details/" + doc.Identifier,
			DownloadLink: "https://archive.org/download/" + doc.Identifier,
		})
	}
	return items, nil
}

// YouTube runs a video search. Requires an API key — without one the
// feature is disabled and callers get an Upstream error saying so.
func (c *Client) YouTube(ctx context.Context, q string) ([]Video, error) {
	if q == "" {
		return nil, apperror.ValidationFailed("q", "q required")
	}
	if c.youtubeKey == "" {
		return nil, apperror.Upstream("youtube", "YOUTUBE_API_KEY not configured")
	}
	return c.youtube(ctx, q, 10)
}

func (c *Client) youtube(ctx context.Context, q string, limit int) ([]Video, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {fmt.Sprint(limit)},
		"q":          {q},
		"key":        {c.youtubeKey},
	}

	var payload struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title        string `json:"title"`
				Description  string `json:"description"`
				ChannelTitle string `json:"channelTitle"`
				ChannelID    string `json:"channelId"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := c.getJSON(ctx, c.youtubeURL+"?"+params.Encode(), nil, &payload); err != nil {
		return nil, apperror.Upstream("youtube", "search failed")
	}

	videos := make([]Video, 0, len(payload.Items))
	for _, it := range payload.Items {
		videos = append(videos, Video{
			Title:        it.Snippet.Title,
			Description:  it.Snippet.Description,
			VideoID:      it.ID.VideoID,
			ChannelTitle: it.Snippet.ChannelTitle,
			ChannelID:    it.Snippet.ChannelID,
			Link:         "https://www.youtube.com/watch?v=" + it.ID.VideoID,
			ChannelLink:  "https://www.youtube.com/channel/" + it.Snippet.ChannelID,
		})
	}
	return videos, nil
}

// Summarize is the "AI" search: with a YouTube key it summarises the top
// five videos as a numbered title — description list; otherwise it falls
// back to joining Wikipedia snippets. No language model involved — and the
// original had none either.
func (c *Client) Summarize(ctx context.Context, q string) (*AIResult, error) {
	if q == "" {
		return nil, apperror.ValidationFailed("q", "q required")
	}

	if c.youtubeKey != "" {
		videos, err := c.youtube(ctx, q, 5)
		if err != nil {
			return nil, err
		}

		lines := make([]string, 0, len(videos))
		for i, v := range videos {
			desc := truncate(strings.SplitN(v.Description, "\n", 2)[0], 140)
			lines = append(lines, fmt.Sprintf("%d. %s — %s", i+1, v.Title, desc))
		}
		return &AIResult{Summary: strings.Join(lines, "\n"), Videos: videos}, nil
	}

	results, err := c.wikipedia(ctx, q, "en", 5)
	if err != nil {
		return nil, err
	}

	snippets := make([]string, 0, len(results))
	for _, r := range results {
		snippets = append(snippets, fmt.Sprintf("%s: %s", r.Title, truncate(r.Snippet, 120)))
	}
	return &AIResult{Summary: strings.Join(snippets, "\n"), Snippets: snippets}, nil
}

// getJSON performs one GET with the request context and decodes the body.
func (c *Client) getJSON(ctx context.Context, rawURL string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("search: building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search: calling %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search: %s returned status %d", req.URL.Host, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("search: decoding %s response: %w", req.URL.Host, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
