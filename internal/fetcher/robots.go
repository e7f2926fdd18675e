package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const (
	defaultRobotsCacheTTL = 24 * time.Hour
	maxRobotsBodyBytes    = 512 * 1024
)

// RobotsChecker fetches robots.txt once per host and caches the rules
type RobotsChecker struct {
	client   *http.Client
	ttl      time.Duration
	mu       sync.RWMutex
	cache    map[string]*robotsEntry // keyed by scheme://host
	fetching sync.Mutex
}

type robotsEntry struct {
	data      *robotstxt.RobotsData // nil means allow all
	fetchedAt time.Time
}

// NewRobotsChecker creates a checker. A zero ttl selects 24h.
func NewRobotsChecker(client *http.Client, ttl time.Duration) *RobotsChecker {
	if ttl <= 0 {
		ttl = defaultRobotsCacheTTL
	}
	return &RobotsChecker{
		client: client,
		ttl:    ttl,
		cache:  make(map[string]*robotsEntry),
	}
}

// IsAllowed reports whether agent may fetch rawURL.
// A missing or unparsable robots.txt allows everything. When robots.txt cannot
// be retrieved the request is allowed and the next call asks again.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL, agent string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("robots: parse url: %w", err)
	}
	if u.Host == "" {
		return false, fmt.Errorf("robots: empty host in url %q", rawURL)
	}

	origin := u.Scheme + "://" + strings.ToLower(u.Host)
	entry := r.entry(ctx, origin)
	if entry.data == nil {
		return true, nil
	}
	return entry.data.TestAgent(u.EscapedPath(), agent), nil
}

func (r *RobotsChecker) entry(ctx context.Context, origin string) *robotsEntry {
	if e, ok := r.cached(origin); ok {
		return e
	}

	// one fetch per origin even when many workers start together
	r.fetching.Lock()
	defer r.fetching.Unlock()
	if e, ok := r.cached(origin); ok {
		return e
	}

	data, ok := r.fetch(ctx, origin)
	e := &robotsEntry{data: data, fetchedAt: time.Now()}
	if !ok {
		return e
	}
	r.mu.Lock()
	r.cache[origin] = e
	r.mu.Unlock()
	return e
}

func (r *RobotsChecker) cached(origin string) (*robotsEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.cache[origin]
	if !ok || time.Since(e.fetchedAt) > r.ttl {
		return nil, false
	}
	return e, true
}

// fetch reports whether the outcome is a real answer from the host worth
// caching: a parsed 2xx body or a 4xx meaning there is no robots.txt
func (r *RobotsChecker) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", http.NoBody)
	if err != nil {
		return nil, false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, true
	default:
		return nil, false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodyBytes))
	if err != nil {
		return nil, false
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, true
	}
	return data, true
}
