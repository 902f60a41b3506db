package rulestore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/eshaffer321/alertledger/internal/domain/rules"
)

// maxDocumentSize bounds the rule document read from a remote source.
const maxDocumentSize = 4 << 20

// HTTPSource fetches the rule document from a URL with retries. A fetched
// document is reused for the cache TTL, then revalidated with its ETag.
// Once the TTL has passed a failed fetch is an error; stale copies are never
// served.
type HTTPSource struct {
	url    string
	ttl    time.Duration
	client *retryablehttp.Client
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	cached    *rules.RuleSet
	etag      string
	fetchedAt time.Time
}

// NewHTTPSource creates an HTTP source. A zero ttl disables caching.
func NewHTTPSource(url string, ttl time.Duration, logger *slog.Logger) *HTTPSource {
	if logger == nil {
		logger = slog.Default()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = 15 * time.Second
	client.Logger = logger

	return &HTTPSource{
		url:    url,
		ttl:    ttl,
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// Load returns the cached document while it is fresh, otherwise fetches it.
func (s *HTTPSource) Load(ctx context.Context) (*rules.RuleSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.ttl > 0 && s.now().Sub(s.fetchedAt) < s.ttl {
		return s.cached, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", rules.ErrRuleTableUnavailable, err)
	}
	req.Header.Set("Accept", "application/yaml, application/json;q=0.9, */*;q=0.5")
	if s.cached != nil && s.etag != "" {
		req.Header.Set("If-None-Match", s.etag)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch %s: %w", rules.ErrRuleTableUnavailable, s.url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && s.cached != nil:
		s.fetchedAt = s.now()
		s.logger.Debug("rule table not modified", "url", s.url)
		return s.cached, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: %s returned status %d", rules.ErrRuleTableUnavailable, s.url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", rules.ErrRuleTableUnavailable, err)
	}
	if len(body) > maxDocumentSize {
		return nil, fmt.Errorf("%w: rule document exceeds %d bytes", rules.ErrRuleTableUnavailable, maxDocumentSize)
	}

	rs, err := rules.Decode(body)
	if err != nil {
		return nil, err
	}

	s.cached = rs
	s.etag = resp.Header.Get("ETag")
	s.fetchedAt = s.now()
	s.logger.Info("rule table fetched",
		"url", s.url,
		"extraction_rules", len(rs.ExtractionRules),
		"payee_rules", len(rs.PayeeRules))
	return rs, nil
}

// Describe implements Source.
func (s *HTTPSource) Describe() string {
	return "rule table at " + s.url
}
