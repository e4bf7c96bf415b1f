package listing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoshTKx/actress-webscraper/pkg/backstage"
	"github.com/JoshTKx/actress-webscraper/pkg/config"
	"github.com/JoshTKx/actress-webscraper/pkg/retry"
)

func testFetcher(serverURL string) *backstage.Client {
	cfg := config.DefaultConfig()
	cfg.Site.BaseURL = serverURL
	cfg.Site.RespectRobots = false
	cfg.Scrape.RequestDelay = 0
	cfg.Scrape.RequestTimeout = 5 * time.Second
	cfg.Scrape.MaxRetries = 1

	c := backstage.NewClient(cfg, nil)
	c.SetRetryBackoff(&retry.ConstantBackoff{Delay: time.Millisecond})
	return c
}

// chainNext advances through a fixed page sequence, returning the empty
// string once the sequence runs out
func chainNext(pages []string) NextPageFunc {
	return func(_ *goquery.Document, currentURL, _ string) string {
		for i, p := range pages {
			if p == currentURL && i+1 < len(pages) {
				return pages[i+1]
			}
		}
		return ""
	}
}

func TestWalkCollectsAcrossPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/talent/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			w.Write([]byte(`
				<a href="/tal/actor-one/">Actor One</a>
				<a href="/tal/actor-two/">Actor Two</a>
				<a href="/tal/actor-three/">Actor Three</a>`))
		case "2":
			w.Write([]byte(`
				<a href="/tal/actor-one/">Actor One</a>
				<a href="/tal/actor-four/">Actor Four</a>
				<a href="/tal/actor-five/">Actor Five</a>`))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	page1 := server.URL + "/talent/"
	page2 := server.URL + "/talent/?page=2"

	walker := NewWalker(testFetcher(server.URL), nil).
		WithNextPage(chainNext([]string{page1, page2}))

	profiles, err := walker.Walk(context.Background(), WalkOptions{BaseURL: page1})
	require.NoError(t, err)

	require.Len(t, profiles, 5)
	expected := []string{"actor-one", "actor-two", "actor-three", "actor-four", "actor-five"}
	for i, slug := range expected {
		// Profile URLs point at the host that was walked
		assert.Equal(t, server.URL+"/tal/"+slug+"/", profiles[i].URL)
	}
}

func TestWalkRespectsPageCap(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`<a href="/tal/actor-one/">Actor One</a>`))
	}))
	defer server.Close()

	page1 := server.URL + "/talent/"
	page2 := server.URL + "/talent/?page=2"

	walker := NewWalker(testFetcher(server.URL), nil).
		WithNextPage(chainNext([]string{page1, page2}))

	profiles, err := walker.Walk(context.Background(), WalkOptions{BaseURL: page1, MaxPages: 1})
	require.NoError(t, err)

	assert.Len(t, profiles, 1)
	assert.Equal(t, 1, requests)
}

func TestWalkPartialResultOnFetchFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/talent/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`
			<a href="/tal/actor-one/">Actor One</a>
			<a href="/tal/actor-two/">Actor Two</a>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	page1 := server.URL + "/talent/"
	page2 := server.URL + "/talent/?page=2"

	walker := NewWalker(testFetcher(server.URL), nil).
		WithNextPage(chainNext([]string{page1, page2}))

	profiles, err := walker.Walk(context.Background(), WalkOptions{BaseURL: page1})

	// A mid-walk failure keeps what was gathered instead of erroring
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
}

func TestWalkStopsWhenNothingNew(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every page serves the same profile
		w.Write([]byte(`<a href="/tal/actor-one/">Actor One</a>`))
	}))
	defer server.Close()

	page1 := server.URL + "/talent/"
	page2 := server.URL + "/talent/?page=2"
	page3 := server.URL + "/talent/?page=3"

	walker := NewWalker(testFetcher(server.URL), nil).
		WithNextPage(chainNext([]string{page1, page2, page3}))

	profiles, err := walker.Walk(context.Background(), WalkOptions{BaseURL: page1})
	require.NoError(t, err)

	assert.Len(t, profiles, 1)
}

func TestWalkLoopGuard(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`<a href="/tal/actor-one/">Actor One</a>`))
	}))
	defer server.Close()

	page1 := server.URL + "/talent/"

	// Pagination that always points back to the first page
	walker := NewWalker(testFetcher(server.URL), nil).
		WithNextPage(func(_ *goquery.Document, _, _ string) string { return page1 })

	profiles, err := walker.Walk(context.Background(), WalkOptions{BaseURL: page1})
	require.NoError(t, err)

	assert.Len(t, profiles, 1)
	assert.Equal(t, 1, requests)
}

func TestWalkCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="/tal/actor-one/">Actor One</a>`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	walker := NewWalker(testFetcher(server.URL), nil)
	_, err := walker.Walk(ctx, WalkOptions{BaseURL: server.URL + "/talent/"})
	assert.ErrorIs(t, err, context.Canceled)
}
