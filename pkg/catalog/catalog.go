package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"gridrelay/pkg/config"
	"gridrelay/pkg/logger"
)

// Monster is one entry of the third-party monster catalog
type Monster struct {
	Index string `json:"index"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// cacheKey is the single cache slot; the upstream list is served whole
const cacheKey = "monsters"

// Client fetches the monster catalog from the upstream API. Responses are
// cached with a TTL and concurrent cold fetches collapse into one upstream
// request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      *expirable.LRU[string, []Monster]
	group      singleflight.Group
	log        *logger.Logger
}

// NewClient creates a catalog client from configuration
func NewClient(cfg config.CatalogConfig) *Client {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		cache: expirable.NewLRU[string, []Monster](4, nil, ttl),
		log:   logger.Get().With("component", "catalog"),
	}
}

// Monsters returns the catalog, from cache when fresh
func (c *Client) Monsters(ctx context.Context) ([]Monster, error) {
	if monsters, ok := c.cache.Get(cacheKey); ok {
		return monsters, nil
	}

	v, err, _ := c.group.Do(cacheKey, func() (interface{}, error) {
		// A concurrent caller may have filled the cache while we waited
		if monsters, ok := c.cache.Get(cacheKey); ok {
			return monsters, nil
		}

		monsters, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.Add(cacheKey, monsters)
		c.log.InfoWith("monster catalog refreshed", "count", len(monsters))
		return monsters, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Monster), nil
}

func (c *Client) fetch(ctx context.Context) ([]Monster, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/monsters", nil)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch: upstream returned %s", resp.Status)
	}

	var list struct {
		Count   int `json:"count"`
		Results []struct {
			Index string `json:"index"`
			Name  string `json:"name"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("catalog decode: %w", err)
	}

	monsters := make([]Monster, 0, len(list.Results))
	for _, r := range list.Results {
		monsters = append(monsters, Monster{
			Index: r.Index,
			Name:  r.Name,
			Image: "/api/images/monsters/" + r.Index + ".png",
		})
	}
	return monsters, nil
}
