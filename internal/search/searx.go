// Package search - клиент веб-поиска для режима deep research.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"circuitbot/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ограничение на размер тела ответа поисковика
const maxBodySize = 2 << 20

var searchRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "circuitbot_search_requests_total",
		Help: "Total number of web search requests by outcome.",
	},
	[]string{"status"},
)

// Searcher ищет в вебе. Никогда не возвращает ошибку: любой сбой = пустой результат.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []models.SearchResult
}

// SearxClient ходит в JSON API SearXNG.
type SearxClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewSearxClient создает клиента. endpoint - полный адрес /search инстанса.
func NewSearxClient(endpoint string, timeout time.Duration, logger *zap.Logger) *SearxClient {
	return &SearxClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("SearxClient"),
	}
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
		Summary string `json:"summary"`
	} `json:"results"`
}

// Search возвращает не более maxResults результатов.
func (c *SearxClient) Search(ctx context.Context, query string, maxResults int) []models.SearchResult {
	results, err := c.search(ctx, query, maxResults)
	if err != nil {
		c.logger.Warn("Web search failed", zap.String("query", query), zap.Error(err))
		searchRequestsTotal.WithLabelValues("error").Inc()
		return nil
	}
	searchRequestsTotal.WithLabelValues("success").Inc()
	c.logger.Debug("Web search done", zap.String("query", query), zap.Int("results", len(results)))
	return results
}

func (c *SearxClient) search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed searxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse searxng response: %w", err)
	}

	if maxResults >= 0 && len(parsed.Results) > maxResults {
		parsed.Results = parsed.Results[:maxResults]
	}
	results := make([]models.SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		snippet := r.Content
		if snippet == "" {
			snippet = r.Summary
		}
		results = append(results, models.SearchResult{Title: r.Title, Snippet: snippet, URL: r.URL})
	}
	return results, nil
}

// Disabled используется, когда SEARCH_URL не задан.
type Disabled struct{}

// Search всегда возвращает пустой результат.
func (Disabled) Search(context.Context, string, int) []models.SearchResult { return nil }
