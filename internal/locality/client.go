// Package locality reads Brazilian states and municipalities from the IBGE
// localities API. The loaded state codes feed state validation; a failed load
// only means validation falls back to the format check.
package locality

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	strutil "viacarona/pkg/platform/strings"
)

const (
	DefaultBaseURL = "https://servicodados.ibge.gov.br/api/v1/localidades"
	maxBodyBytes   = 4 << 20
	cityFetchLimit = 4
)

// State is a federative unit.
type State struct {
	ID   int    `json:"id"`
	Code string `json:"sigla"`
	Name string `json:"nome"`
}

// City is a municipality.
type City struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// States returns all states ordered by name in Portuguese collation.
func (c *Client) States(ctx context.Context) ([]State, error) {
	var states []State
	if err := c.get(ctx, "/estados", &states); err != nil {
		return nil, err
	}
	sortByName(states, func(s State) string { return s.Name })
	return states, nil
}

// Cities returns the municipalities of the state with the given code.
func (c *Client) Cities(ctx context.Context, stateCode string) ([]City, error) {
	code := strings.ToUpper(strings.TrimSpace(stateCode))
	if code == "" {
		return nil, fmt.Errorf("state code is required")
	}
	var cities []City
	if err := c.get(ctx, "/estados/"+url.PathEscape(code)+"/municipios", &cities); err != nil {
		return nil, err
	}
	sortByName(cities, func(c City) string { return c.Name })
	return cities, nil
}

// CitiesFor loads the municipalities of several states concurrently, once per
// distinct code. Any failure cancels the rest and is returned.
func (c *Client) CitiesFor(ctx context.Context, stateCodes ...string) (map[string][]City, error) {
	stateCodes = strutil.DedupeFold(stateCodes, strings.ToUpper)
	results := make([][]City, len(stateCodes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cityFetchLimit)
	for i, code := range stateCodes {
		g.Go(func() error {
			cities, err := c.Cities(gctx, code)
			if err != nil {
				return fmt.Errorf("cities of %s: %w", code, err)
			}
			results[i] = cities
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]City, len(stateCodes))
	for i, code := range stateCodes {
		out[code] = results[i]
	}
	return out, nil
}

// KnownStateCodes loads the states and returns their codes as a set. On
// failure it logs and returns nil, which disables membership checks.
func (c *Client) KnownStateCodes(ctx context.Context) map[string]struct{} {
	states, err := c.States(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "state catalogue unavailable; validating state format only", "error", err)
		return nil
	}
	return StateCodes(states)
}

// StateCodes returns the uppercase codes of states as a set.
func StateCodes(states []State) map[string]struct{} {
	codes := make(map[string]struct{}, len(states))
	for _, s := range states {
		codes[strings.ToUpper(s.Code)] = struct{}{}
	}
	return codes
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("locality request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("locality request %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode locality response: %w", err)
	}
	return nil
}

func sortByName[T any](items []T, name func(T) string) {
	col := collate.New(language.BrazilianPortuguese)
	slices.SortStableFunc(items, func(a, b T) int {
		return col.CompareString(name(a), name(b))
	})
}
