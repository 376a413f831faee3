package retrieve

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smhanov/bughound"
)

const maxDocsPerQuery = 5

// Tavily retrieves documentation snippets through the Tavily search API.
type Tavily struct {
	APIKey string
	client *http.Client
	// Depth controls Tavily's depth parameter (basic or advanced).
	Depth string
}

// NewTavily constructs a Tavily documentation retriever.
func NewTavily(apiKey string, depth string) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{APIKey: apiKey, Depth: depth, client: &http.Client{Timeout: 10 * time.Second}}
}

// NewTavilyWithClient constructs a Tavily retriever using the supplied HTTP
// client. This is useful for overriding the default timeout.
func NewTavilyWithClient(apiKey string, depth string, client *http.Client) *Tavily {
	if depth == "" {
		depth = "basic"
	}
	return &Tavily{APIKey: apiKey, Depth: depth, client: client}
}

// Retrieve implements bughound.DocRetriever. Each query is searched
// independently; results are concatenated in query order, capped at five
// snippets per query.
func (t *Tavily) Retrieve(ctx context.Context, queries []string) ([]bughound.DocResult, error) {
	if strings.TrimSpace(t.APIKey) == "" {
		return nil, errors.New("tavily: API key is missing")
	}

	var docs []bughound.DocResult
	for _, query := range queries {
		results, err := t.search(ctx, query)
		if err != nil {
			return nil, err
		}
		docs = append(docs, results...)
	}
	return docs, nil
}

func (t *Tavily) search(ctx context.Context, query string) ([]bughound.DocResult, error) {
	body := map[string]any{
		"query":   query,
		"api_key": t.APIKey,
		"depth":   t.Depth,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	delay := 1 * time.Second
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.tavily.com/search", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = t.client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		// Back off and retry on 429, doubling the delay each time up to 30 s.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily http %d", resp.StatusCode)
	}

	var response struct {
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, err
	}

	results := make([]bughound.DocResult, 0, len(response.Results))
	for _, r := range response.Results {
		text := r.Content
		if r.Title != "" {
			text = r.Title + ": " + r.Content
		}
		results = append(results, bughound.DocResult{
			Text:  text,
			Score: strconv.FormatFloat(r.Score, 'f', 3, 64),
		})
		if len(results) >= maxDocsPerQuery {
			break
		}
	}
	return results, nil
}
