package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"challenge-solver/internal/domain"
	"challenge-solver/internal/logger"
	"challenge-solver/internal/metrics"
	"challenge-solver/internal/throttle"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PokeClient fetches the creature catalog: one list request, then a
// detail request per entry in bounded concurrent batches. This is the
// dominant latency source of the whole pipeline.
type PokeClient struct {
	httpClient *http.Client
	baseURL    string
	limit      int
	batchSize  int
	limiter    *throttle.Limiter
}

// PokeOption configures a PokeClient.
type PokeOption func(*PokeClient)

// WithPokeHTTPClient overrides the HTTP client.
func WithPokeHTTPClient(c *http.Client) PokeOption {
	return func(p *PokeClient) { p.httpClient = c }
}

// WithCreatureLimit sets the list page size.
func WithCreatureLimit(n int) PokeOption {
	return func(p *PokeClient) { p.limit = n }
}

// WithDetailBatch bounds the number of in-flight detail requests.
func WithDetailBatch(n int) PokeOption {
	return func(p *PokeClient) { p.batchSize = n }
}

// WithPokeLimiter routes detail requests through a shared dispatch limiter.
func WithPokeLimiter(l *throttle.Limiter) PokeOption {
	return func(p *PokeClient) { p.limiter = l }
}

// NewPokeClient creates a client for the creature catalog rooted at baseURL.
func NewPokeClient(baseURL string, opts ...PokeOption) *PokeClient {
	c := &PokeClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		limit:      1302,
		batchSize:  5,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.batchSize < 1 {
		c.batchSize = 1
	}
	return c
}

type pokeListPage struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"results"`
}

type pokeDetail struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	BaseExperience int    `json:"base_experience"`
	Height         int    `json:"height"`
	Weight         int    `json:"weight"`
}

// Creatures fetches the full creature list and enriches each entry from
// its detail endpoint. Detail requests run in groups of batchSize; each
// group is awaited before the next begins, bounding in-flight requests.
// Any failed request aborts the whole fetch.
func (c *PokeClient) Creatures(ctx context.Context) ([]domain.Creature, error) {
	listURL := fmt.Sprintf("%s/pokemon?limit=%d", c.baseURL, c.limit)
	var list pokeListPage
	if err := c.getJSON(ctx, listURL, &list); err != nil {
		return nil, domain.NewCatalogServiceError("creatures", err)
	}

	out := make([]domain.Creature, len(list.Results))
	var mu sync.Mutex

	for start := 0; start < len(list.Results); start += c.batchSize {
		end := start + c.batchSize
		if end > len(list.Results) {
			end = len(list.Results)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				var detail pokeDetail
				if err := c.getJSON(gctx, list.Results[i].URL, &detail); err != nil {
					return fmt.Errorf("detail %s: %w", list.Results[i].Name, err)
				}
				mu.Lock()
				out[i] = domain.Creature{
					ID:             detail.ID,
					Name:           detail.Name,
					BaseExperience: detail.BaseExperience,
					Height:         detail.Height,
					Weight:         detail.Weight,
				}
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, domain.NewCatalogServiceError("creatures", err)
		}
	}

	logger.Get().Info("Fetched creature catalog", zap.Int("records", len(out)))
	return out, nil
}

func (c *PokeClient) getJSON(ctx context.Context, url string, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	metrics.CatalogRequests.WithLabelValues("pokeapi").Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// ReduceCreatures is the snapshot-store reduction for the creature
// dataset: it keeps identity plus the small numeric subset the solver
// actually consumes.
func ReduceCreatures(data json.RawMessage) (json.RawMessage, error) {
	var creatures []domain.Creature
	if err := json.Unmarshal(data, &creatures); err != nil {
		return nil, err
	}
	reduced := make([]struct {
		ID     int    `json:"id,omitempty"`
		Name   string `json:"name"`
		Height int    `json:"height"`
		Weight int    `json:"weight"`
	}, len(creatures))
	for i, cr := range creatures {
		reduced[i].ID = cr.ID
		reduced[i].Name = cr.Name
		reduced[i].Height = cr.Height
		reduced[i].Weight = cr.Weight
	}
	return json.Marshal(reduced)
}
