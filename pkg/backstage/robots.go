package backstage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/JoshTKx/actress-webscraper/pkg/logger"
)

// robotsGate caches robots.txt verdicts per host. Fetch failures fail
// open: if robots.txt cannot be retrieved or parsed, requests are allowed.
type robotsGate struct {
	httpClient *http.Client
	userAgent  string
	logger     logger.Logger

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

func newRobotsGate(httpClient *http.Client, userAgent string, log logger.Logger) *robotsGate {
	return &robotsGate{
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     log,
		cache:      make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the configured user agent may fetch the URL
func (g *robotsGate) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	data := g.dataForHost(ctx, u.Scheme, u.Host)
	if data == nil {
		return true
	}

	return data.TestAgent(u.Path, g.userAgent)
}

func (g *robotsGate) dataForHost(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	g.mu.Lock()
	if data, ok := g.cache[host]; ok {
		g.mu.Unlock()
		return data
	}
	g.mu.Unlock()

	data := g.fetch(ctx, scheme, host)

	g.mu.Lock()
	g.cache[host] = data
	g.mu.Unlock()

	return data
}

// fetch retrieves and parses robots.txt for a host. Returns nil when the
// file is unavailable, which callers treat as allow-all.
func (g *robotsGate) fetch(ctx context.Context, scheme, host string) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		g.logger.WarnWithFields("failed to fetch robots.txt, allowing all", map[string]interface{}{
			"host":  host,
			"error": err.Error(),
		})
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		g.logger.WarnWithFields("failed to parse robots.txt, allowing all", map[string]interface{}{
			"host":  host,
			"error": err.Error(),
		})
		return nil
	}

	g.logger.DebugWithFields("loaded robots.txt", map[string]interface{}{
		"host": host,
	})

	return data
}
