package linkmeta

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/factbook-ai/factbook-proxy/internal/config"
	"github.com/factbook-ai/factbook-proxy/internal/logger"
	"github.com/factbook-ai/factbook-proxy/internal/metrics"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter(io.Discard, logger.Config{Level: slog.LevelDebug, Format: "text"})
}

func testLinkConfig(extractor string) *config.LinkMetadataConfig {
	return &config.LinkMetadataConfig{
		CacheTTL:        time.Hour,
		CacheMaxEntries: 100,
		FetchTimeout:    5 * time.Second,
		MaxPageBytes:    1 << 20,
		UserAgent:       config.DefaultUserAgent,
		Extractor:       extractor,
	}
}

func newTestResolver(t *testing.T, client *http.Client, extractor string) (*Resolver, *metrics.Metrics) {
	t.Helper()

	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	m := metrics.New()
	r, err := NewResolver(testLinkConfig(extractor), client, NewTitleCache(100, time.Hour), m, testLogger())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r, m
}

// countingServer serves body with status and counts the requests it receives.
func countingServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func outcomeCount(m *metrics.Metrics, outcome string) float64 {
	return testutil.ToFloat64(m.TitleResolutions.WithLabelValues(outcome))
}

func TestResolveExtractsTitle(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, "<html><head><TITLE>  Example Domain </TITLE></head></html>")
	r, m := newTestResolver(t, nil, config.ExtractorRegex)

	got := r.Resolve(context.Background(), srv.URL)

	if got.Title != "Example Domain" {
		t.Fatalf("Title = %q, want %q", got.Title, "Example Domain")
	}
	if outcomeCount(m, metrics.OutcomeResolved) != 1 {
		t.Fatal("expected one resolved outcome")
	}
}

func TestResolveSendsBrowserHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		io.WriteString(w, "<title>ok</title>")
	}))
	defer srv.Close()

	r, _ := newTestResolver(t, nil, config.ExtractorRegex)
	r.Resolve(context.Background(), srv.URL)

	if gotUA != config.DefaultUserAgent {
		t.Errorf("User-Agent = %q, want browser user agent", gotUA)
	}
	if !strings.Contains(gotAccept, "text/html") {
		t.Errorf("Accept = %q, want text/html", gotAccept)
	}
}

func TestResolveFallsBackToURL(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		outcome string
	}{
		{"not found", http.StatusNotFound, "<title>Not Found</title>", metrics.OutcomeUpstreamStatus},
		{"server error", http.StatusInternalServerError, "", metrics.OutcomeUpstreamStatus},
		{"forbidden", http.StatusForbidden, "<title>Blocked</title>", metrics.OutcomeUpstreamStatus},
		{"no title marker", http.StatusOK, "<html><body>no title here</body></html>", metrics.OutcomeNoTitle},
		{"empty body", http.StatusOK, "", metrics.OutcomeNoTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := countingServer(t, tt.status, tt.body)
			r, m := newTestResolver(t, nil, config.ExtractorRegex)

			got := r.Resolve(context.Background(), srv.URL)

			if got.Title != srv.URL {
				t.Fatalf("Title = %q, want original URL %q", got.Title, srv.URL)
			}
			if outcomeCount(m, tt.outcome) != 1 {
				t.Fatalf("expected outcome %q to be counted", tt.outcome)
			}
		})
	}
}

func TestResolveDNSFailure(t *testing.T) {
	const target = "https://unreachable.invalid"
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{
			Err:        "no such host",
			Name:       r.URL.Hostname(),
			IsNotFound: true,
		}}
	})}
	r, m := newTestResolver(t, client, config.ExtractorRegex)

	got := r.Resolve(context.Background(), target)

	if got.Title != target {
		t.Fatalf("Title = %q, want %q", got.Title, target)
	}
	if outcomeCount(m, metrics.OutcomeFetchError) != 1 {
		t.Fatal("expected fetch_error outcome")
	}
}

func TestResolveTransportFailures(t *testing.T) {
	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	for _, target := range []string{
		closedURL,
		"not a url",
		"ftp://example.com/file",
		"http://[::1",
	} {
		t.Run(target, func(t *testing.T) {
			r, _ := newTestResolver(t, nil, config.ExtractorRegex)
			if got := r.Resolve(context.Background(), target); got.Title != target {
				t.Fatalf("Title = %q, want %q", got.Title, target)
			}
		})
	}
}

func TestResolveTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	r, _ := newTestResolver(t, &http.Client{Timeout: 50 * time.Millisecond}, config.ExtractorRegex)
	if got := r.Resolve(context.Background(), srv.URL); got.Title != srv.URL {
		t.Fatalf("Title = %q, want %q", got.Title, srv.URL)
	}
}

func TestResolveCachesSuccessfulFetches(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, "<title>Cached</title>")
	r, m := newTestResolver(t, nil, config.ExtractorRegex)

	for i := 0; i < 3; i++ {
		if got := r.Resolve(context.Background(), srv.URL); got.Title != "Cached" {
			t.Fatalf("call %d: Title = %q, want Cached", i, got.Title)
		}
	}

	if hits.Load() != 1 {
		t.Fatalf("upstream hits = %d, want 1", hits.Load())
	}
	if outcomeCount(m, metrics.OutcomeCacheHit) != 2 {
		t.Fatal("expected two cache hits")
	}
}

func TestResolveCachesMissingTitle(t *testing.T) {
	srv, hits := countingServer(t, http.StatusOK, "<p>nothing</p>")
	r, _ := newTestResolver(t, nil, config.ExtractorRegex)

	r.Resolve(context.Background(), srv.URL)
	if got := r.Resolve(context.Background(), srv.URL); got.Title != srv.URL {
		t.Fatalf("Title = %q, want %q", got.Title, srv.URL)
	}
	if hits.Load() != 1 {
		t.Fatalf("upstream hits = %d, want 1", hits.Load())
	}
}

func TestResolveDoesNotCacheUpstreamErrors(t *testing.T) {
	srv, hits := countingServer(t, http.StatusServiceUnavailable, "")
	r, _ := newTestResolver(t, nil, config.ExtractorRegex)

	r.Resolve(context.Background(), srv.URL)
	r.Resolve(context.Background(), srv.URL)

	if hits.Load() != 2 {
		t.Fatalf("upstream hits = %d, want 2", hits.Load())
	}
}

func TestResolveLimitsPageSize(t *testing.T) {
	body := strings.Repeat("x", 64) + "<title>Too far</title>"
	srv, _ := countingServer(t, http.StatusOK, body)

	m := metrics.New()
	cfg := testLinkConfig(config.ExtractorRegex)
	cfg.MaxPageBytes = 32
	r, err := NewResolver(cfg, &http.Client{}, NewTitleCache(10, time.Hour), m, testLogger())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	if got := r.Resolve(context.Background(), srv.URL); got.Title != srv.URL {
		t.Fatalf("Title = %q, want fallback past the size limit", got.Title)
	}
}

func TestResolveHTMLExtractorDecodesEntities(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, "<html><head><title>Q&amp;A</title></head></html>")
	r, _ := newTestResolver(t, nil, config.ExtractorHTML)

	if got := r.Resolve(context.Background(), srv.URL); got.Title != "Q&A" {
		t.Fatalf("Title = %q, want %q", got.Title, "Q&A")
	}
}

func TestNewResolverRejectsUnknownExtractor(t *testing.T) {
	_, err := NewResolver(testLinkConfig("xpath"), nil, NewTitleCache(1, time.Hour), metrics.New(), testLogger())
	if err == nil {
		t.Fatal("expected error for unknown extractor")
	}
}

func TestResolveBlankTitle(t *testing.T) {
	srv, _ := countingServer(t, http.StatusOK, "<html><head><title>   </title></head></html>")

	t.Run("regex returns trimmed marker text", func(t *testing.T) {
		r, m := newTestResolver(t, nil, config.ExtractorRegex)
		if got := r.Resolve(context.Background(), srv.URL); got.Title != "" {
			t.Fatalf("Title = %q, want empty string", got.Title)
		}
		if outcomeCount(m, metrics.OutcomeResolved) != 1 {
			t.Fatal("expected resolved outcome")
		}
	})

	t.Run("html treats blank as missing", func(t *testing.T) {
		r, _ := newTestResolver(t, nil, config.ExtractorHTML)
		if got := r.Resolve(context.Background(), srv.URL); got.Title != srv.URL {
			t.Fatalf("Title = %q, want %q", got.Title, srv.URL)
		}
	})
}
