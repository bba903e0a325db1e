package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"challenge-solver/internal/domain"
	"challenge-solver/internal/logger"
	"challenge-solver/internal/metrics"
	"challenge-solver/internal/throttle"

	"go.uber.org/zap"
)

// SWAPIClient paginates the people/planets catalog. Pages are followed
// through the "next" cursor until it is absent; a courtesy delay (or the
// shared limiter, when set) spaces consecutive page requests.
type SWAPIClient struct {
	httpClient *http.Client
	baseURL    string
	pageDelay  time.Duration
	limiter    *throttle.Limiter
	mode       Mode
}

// SWAPIOption configures a SWAPIClient.
type SWAPIOption func(*SWAPIClient)

// WithSWAPIHTTPClient overrides the HTTP client.
func WithSWAPIHTTPClient(c *http.Client) SWAPIOption {
	return func(s *SWAPIClient) { s.httpClient = c }
}

// WithPageDelay sets the delay between consecutive page requests.
func WithPageDelay(d time.Duration) SWAPIOption {
	return func(s *SWAPIClient) { s.pageDelay = d }
}

// WithSWAPILimiter routes page requests through a shared dispatch limiter.
func WithSWAPILimiter(l *throttle.Limiter) SWAPIOption {
	return func(s *SWAPIClient) { s.limiter = l }
}

// WithSWAPIMode selects the normalization mode.
func WithSWAPIMode(m Mode) SWAPIOption {
	return func(s *SWAPIClient) { s.mode = m }
}

// NewSWAPIClient creates a client for the people/planets catalog rooted
// at baseURL.
func NewSWAPIClient(baseURL string, opts ...SWAPIOption) *SWAPIClient {
	c := &SWAPIClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		pageDelay:  500 * time.Millisecond,
		mode:       Coerce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type swapiPlanet struct {
	URL            string `json:"url"`
	Name           string `json:"name"`
	RotationPeriod string `json:"rotation_period"`
	OrbitalPeriod  string `json:"orbital_period"`
	Diameter       string `json:"diameter"`
	SurfaceWater   string `json:"surface_water"`
	Population     string `json:"population"`
}

type swapiPerson struct {
	URL       string `json:"url"`
	Name      string `json:"name"`
	Height    string `json:"height"`
	Mass      string `json:"mass"`
	Homeworld string `json:"homeworld"`
}

type swapiPage[T any] struct {
	Next    string `json:"next"`
	Results []T    `json:"results"`
}

// Planets fetches and normalizes every planet record.
func (c *SWAPIClient) Planets(ctx context.Context) ([]domain.Planet, error) {
	var all []domain.Planet
	err := c.paginate(ctx, c.baseURL+"/planets", func(raw json.RawMessage) error {
		var page swapiPage[swapiPlanet]
		if err := json.Unmarshal(raw, &page); err != nil {
			return err
		}
		for _, p := range page.Results {
			fields, clean := normalizeFields([]string{
				p.RotationPeriod, p.OrbitalPeriod, p.Diameter, p.SurfaceWater, p.Population,
			})
			if c.mode == Strict && !clean {
				logger.Get().Debug("Dropping malformed planet record", zap.String("name", p.Name))
				continue
			}
			all = append(all, domain.Planet{
				Name:           p.Name,
				RotationPeriod: fields[0],
				OrbitalPeriod:  fields[1],
				Diameter:       fields[2],
				SurfaceWater:   fields[3],
				Population:     fields[4],
				URL:            p.URL,
			})
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewCatalogServiceError("planets", err)
	}
	logger.Get().Info("Fetched planets catalog", zap.Int("records", len(all)))
	return all, nil
}

// People fetches and normalizes every character record. Homeworld keeps
// the source reference URL; the solver resolves it to a planet name.
func (c *SWAPIClient) People(ctx context.Context) ([]domain.Character, error) {
	var all []domain.Character
	err := c.paginate(ctx, c.baseURL+"/people", func(raw json.RawMessage) error {
		var page swapiPage[swapiPerson]
		if err := json.Unmarshal(raw, &page); err != nil {
			return err
		}
		for _, p := range page.Results {
			fields, clean := normalizeFields([]string{p.Height, p.Mass})
			if c.mode == Strict && !clean {
				logger.Get().Debug("Dropping malformed character record", zap.String("name", p.Name))
				continue
			}
			all = append(all, domain.Character{
				Name:      p.Name,
				Height:    fields[0],
				Mass:      fields[1],
				Homeworld: p.Homeworld,
			})
		}
		return nil
	})
	if err != nil {
		return nil, domain.NewCatalogServiceError("people", err)
	}
	logger.Get().Info("Fetched people catalog", zap.Int("records", len(all)))
	return all, nil
}

// paginate follows the next cursor from startURL, handing each page body
// to consume. The cursor is read separately so consume can decode into
// its own result shape.
func (c *SWAPIClient) paginate(ctx context.Context, startURL string, consume func(json.RawMessage) error) error {
	nextURL := startURL
	first := true
	for nextURL != "" {
		if !first {
			if err := c.pause(ctx); err != nil {
				return err
			}
		}
		first = false

		body, err := c.getPage(ctx, nextURL)
		if err != nil {
			return err
		}
		if err := consume(body); err != nil {
			return fmt.Errorf("decode page %s: %w", nextURL, err)
		}

		var cursor struct {
			Next string `json:"next"`
		}
		if err := json.Unmarshal(body, &cursor); err != nil {
			return fmt.Errorf("decode cursor %s: %w", nextURL, err)
		}
		nextURL = cursor.Next
	}
	return nil
}

func (c *SWAPIClient) getPage(ctx context.Context, url string) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	metrics.CatalogRequests.WithLabelValues("swapi").Inc()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog page %s: status %d", url, resp.StatusCode)
	}
	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *SWAPIClient) pause(ctx context.Context) error {
	if c.limiter != nil || c.pageDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.pageDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
