package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pfrederiksen/pcjc-awards/internal/award"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultInitialBackoff = 500 * time.Millisecond
	DefaultUserAgent      = "pcjc-awards/1.0"

	// award photos are a few hundred KB; anything far larger is not ours
	DefaultMaxBodyBytes = 32 << 20
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// ErrBodyTooLarge is returned when a response exceeds the body limit
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError reports a non-200 response
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d for %s", e.Code, e.URL)
}

// Retryable reports whether the status is worth retrying
func (e *StatusError) Retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Options configures a Fetcher. Zero values select defaults.
type Options struct {
	Domain            string
	Timeout           time.Duration
	Agents            AgentPicker
	RequestsPerSecond float64 // 0 disables pacing
	Burst             int
	MaxRetries        int
	InitialBackoff    time.Duration
	RespectRobots     bool
	MaxBodyBytes      int64
	HTTPClient        *http.Client
}

// Fetcher retrieves award resources over HTTP
type Fetcher struct {
	client         *http.Client
	domain         string
	agents         AgentPicker
	limiter        *rate.Limiter
	robots         *RobotsChecker
	maxRetries     uint64
	initialBackoff time.Duration
	maxBody        int64
}

// New creates a Fetcher
func New(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	agents := opts.Agents
	if agents == nil {
		agents = FixedAgent(DefaultUserAgent)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := max(opts.Burst, 1)

	initial := opts.InitialBackoff
	if initial <= 0 {
		initial = DefaultInitialBackoff
	}

	f := &Fetcher{
		client:         client,
		domain:         opts.Domain,
		agents:         agents,
		limiter:        rate.NewLimiter(limit, burst),
		maxRetries:     uint64(max(opts.MaxRetries, 0)),
		initialBackoff: initial,
		maxBody:        opts.MaxBodyBytes,
	}
	if f.maxBody <= 0 {
		f.maxBody = DefaultMaxBodyBytes
	}
	if opts.RespectRobots {
		f.robots = NewRobotsChecker(client, 0)
	}
	return f
}

// URL returns the address of a reference on the configured domain
func (f *Fetcher) URL(ref award.Reference) string {
	return ref.URL(f.domain)
}

// Fetch downloads the raw bytes of a reference
func (f *Fetcher) Fetch(ctx context.Context, ref award.Reference) ([]byte, error) {
	body, _, err := f.Get(ctx, f.URL(ref))
	return body, err
}

// FetchPage downloads an award page as UTF-8 text
func (f *Fetcher) FetchPage(ctx context.Context, ref award.Reference) (string, error) {
	return f.FetchText(ctx, f.URL(ref))
}

// FetchText downloads any page and decodes it to UTF-8
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	body, contentType, err := f.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("detecting charset of %s: %w", rawURL, err)
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", rawURL, err)
	}
	return string(text), nil
}

// Get downloads a URL, returning the body and its Content-Type.
// Transient failures are retried with exponential backoff.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	agent := f.agents.Pick()

	if f.robots != nil {
		allowed, err := f.robots.IsAllowed(ctx, rawURL, agent)
		if err != nil {
			return nil, "", err
		}
		if !allowed {
			return nil, "", fmt.Errorf("fetching %s: %w", rawURL, ErrDisallowed)
		}
	}

	var (
		body        []byte
		contentType string
	)
	operation := func() error {
		if err := f.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		var err error
		body, contentType, err = f.do(ctx, rawURL, agent)
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Retryable() {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrBodyTooLarge) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.initialBackoff
	policy := backoff.WithContext(backoff.WithMaxRetries(b, f.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL, agent string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	if agent != "" {
		req.Header.Set("User-Agent", agent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", rawURL, err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, "", fmt.Errorf("reading %s: %w (limit %d bytes)", rawURL, ErrBodyTooLarge, f.maxBody)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
