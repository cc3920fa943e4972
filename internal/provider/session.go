package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"
)

const (
	yahooBaseURL   = "https://query2.finance.yahoo.com"
	yahooCookieURL = "https://fc.yahoo.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/91.0.4472.124 Safari/537.36"
)

// yahooSession holds the cookie jar and crumb Yahoo requires on its quote
// endpoints. The handshake runs at most once per process: a failure is kept
// and returned to every later caller.
type yahooSession struct {
	client    *http.Client
	baseURL   string
	cookieURL string

	mu    sync.Mutex
	done  bool
	crumb string
	err   error
}

func newYahooSession(timeout time.Duration) *yahooSession {
	jar, _ := cookiejar.New(nil)
	return &yahooSession{
		client:    &http.Client{Timeout: timeout, Jar: jar},
		baseURL:   yahooBaseURL,
		cookieURL: yahooCookieURL,
	}
}

// Crumb returns the session crumb, performing the handshake on first use.
func (s *yahooSession) Crumb(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.done {
		s.crumb, s.err = s.handshake(ctx)
		s.done = true
	}
	return s.crumb, s.err
}

func (s *yahooSession) handshake(ctx context.Context) (string, error) {
	// fc.yahoo.com answers 404 but sets the session cookie; only transport
	// errors matter here.
	resp, err := s.get(ctx, s.cookieURL)
	if err != nil {
		return "", fmt.Errorf("session cookie: %w", err)
	}
	resp.Body.Close()

	resp, err = s.get(ctx, s.baseURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("crumb: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("crumb: %w", err)
	}
	crumb := strings.TrimSpace(string(body))
	if resp.StatusCode != http.StatusOK || crumb == "" || strings.Contains(crumb, "<") {
		return "", fmt.Errorf("crumb: unexpected status %d", resp.StatusCode)
	}
	return crumb, nil
}

func (s *yahooSession) get(ctx context.Context, addr string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return s.client.Do(req)
}

// HTTPClient returns a client sharing the session's cookies that adds the
// crumb and browser headers to every request it sends.
func (s *yahooSession) HTTPClient() *http.Client {
	return &http.Client{
		Timeout:   s.client.Timeout,
		Jar:       s.client.Jar,
		Transport: &crumbTransport{session: s, base: http.DefaultTransport},
	}
}

type crumbTransport struct {
	session *yahooSession
	base    http.RoundTripper
}

func (t *crumbTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	crumb, err := t.session.Crumb(req.Context())
	if err != nil {
		return nil, err
	}

	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("crumb", crumb)
	r.URL.RawQuery = q.Encode()
	r.Header.Set("User-Agent", userAgent)
	r.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(r)
}
