package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"gridrelay/pkg/config"
)

func newUpstream(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/monsters" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"count":2,"results":[
			{"index":"aboleth","name":"Aboleth","url":"/api/monsters/aboleth"},
			{"index":"goblin","name":"Goblin","url":"/api/monsters/goblin"}]}`))
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClient(config.CatalogConfig{
		BaseURL:         baseURL,
		CacheTTLSeconds: 60,
		RequestTimeout:  5,
	})
}

func TestMonstersFetch(t *testing.T) {
	var hits atomic.Int64
	upstream := newUpstream(t, &hits)
	defer upstream.Close()

	c := newTestClient(upstream.URL)
	monsters, err := c.Monsters(context.Background())
	if err != nil {
		t.Fatalf("Monsters failed: %v", err)
	}
	if len(monsters) != 2 {
		t.Fatalf("Expected 2 monsters, got %d", len(monsters))
	}
	if monsters[0].Index != "aboleth" || monsters[0].Name != "Aboleth" {
		t.Errorf("Unexpected first monster: %+v", monsters[0])
	}
	if monsters[0].Image != "/api/images/monsters/aboleth.png" {
		t.Errorf("Unexpected image path: %s", monsters[0].Image)
	}
}

func TestMonstersCached(t *testing.T) {
	var hits atomic.Int64
	upstream := newUpstream(t, &hits)
	defer upstream.Close()

	c := newTestClient(upstream.URL)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := c.Monsters(ctx); err != nil {
			t.Fatalf("Monsters failed: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 upstream hit, got %d", hits.Load())
	}
}

func TestMonstersUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	c := newTestClient(upstream.URL)
	if _, err := c.Monsters(context.Background()); err == nil {
		t.Error("Expected error for upstream failure")
	}
}
