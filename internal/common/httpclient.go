package common

import (
	"fmt"
	"net/http"
	"time"

	"github.com/factbook-ai/factbook-proxy/internal/config"
)

const maxRedirects = 5

// NewHTTPClient builds an outbound client using the proxy connection pool settings.
// A nil cfg keeps the default transport pool.
func NewHTTPClient(timeout time.Duration, cfg *config.Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg != nil {
		transport.MaxIdleConns = cfg.ProxyMaxIdleConns
		transport.MaxIdleConnsPerHost = cfg.ProxyMaxIdleConnsPerHost
		transport.IdleConnTimeout = time.Duration(cfg.ProxyIdleConnTimeout) * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
}
