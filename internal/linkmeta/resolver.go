package linkmeta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/factbook-ai/factbook-proxy/internal/common"
	"github.com/factbook-ai/factbook-proxy/internal/config"
	"github.com/factbook-ai/factbook-proxy/internal/logger"
	"github.com/factbook-ai/factbook-proxy/internal/metrics"
)

// Result is the link metadata returned to the admin UI.
type Result struct {
	Title string `json:"title"`
}

// Resolver turns a URL into a display title. It never fails: whenever the
// page cannot be fetched or carries no title, the URL itself is the title.
type Resolver struct {
	client       *http.Client
	cache        *TitleCache
	extractor    Extractor
	userAgent    string
	maxPageBytes int64
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

// NewResolver creates a resolver. A nil client gets the shared outbound pool settings.
func NewResolver(cfg *config.LinkMetadataConfig, client *http.Client, cache *TitleCache, m *metrics.Metrics, log *logger.Logger) (*Resolver, error) {
	extractor, err := NewExtractor(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = common.NewHTTPClient(cfg.FetchTimeout, config.AppConfig)
	}

	return &Resolver{
		client:       client,
		cache:        cache,
		extractor:    extractor,
		userAgent:    cfg.UserAgent,
		maxPageBytes: cfg.MaxPageBytes,
		metrics:      m,
		logger:       log.WithComponent("link_metadata"),
	}, nil
}

// upstreamStatusError marks a completed fetch with a non-2xx status.
type upstreamStatusError struct {
	status int
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.status)
}

// Resolve returns the title for rawURL, falling back to rawURL on any failure.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) Result {
	ctx = logger.WithTargetURL(ctx, rawURL)
	log := r.logger.WithContext(ctx)

	if title, ok := r.cache.Get(rawURL); ok {
		r.metrics.ObserveResolution(metrics.OutcomeCacheHit)
		return Result{Title: title}
	}

	start := time.Now()
	title, found, err := r.fetchTitle(ctx, rawURL)
	r.metrics.ObserveFetch(time.Since(start))

	if err != nil {
		var statusErr *upstreamStatusError
		if errors.As(err, &statusErr) {
			log.Debug("upstream returned non-success status", slog.Int("status", statusErr.status))
			r.metrics.ObserveResolution(metrics.OutcomeUpstreamStatus)
		} else {
			log.Warn("failed to fetch URL title", slog.String("error", err.Error()))
			r.metrics.ObserveResolution(metrics.OutcomeFetchError)
		}
		return Result{Title: rawURL}
	}

	if !found {
		title = rawURL
		r.metrics.ObserveResolution(metrics.OutcomeNoTitle)
	} else {
		r.metrics.ObserveResolution(metrics.OutcomeResolved)
	}

	r.cache.Set(rawURL, title)
	r.metrics.TitleCacheSize.Set(float64(r.cache.Size()))
	return Result{Title: title}
}

// fetchTitle performs the single outbound GET. It reports found=false when the
// page was retrieved but carries no usable title.
func (r *Resolver) fetchTitle(ctx context.Context, rawURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return "", false, fmt.Errorf("failed to resolve host %q: %w", dnsErr.Name, err)
		}
		return "", false, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, &upstreamStatusError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxPageBytes))
	if err != nil {
		return "", false, fmt.Errorf("failed to read response: %w", err)
	}

	title, found := r.extractor.ExtractTitle(body)
	return title, found, nil
}
