package requester

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fuucckk/Fenjing/pkg/defaults"
)

var (
	sharedClient *http.Client
	sharedOnce   sync.Once
)

// defaultClient returns the shared pooled client. Probe sessions hammer one
// host with small requests, so connection reuse dominates latency; all
// requesters share the pool unless overridden.
//
// The client never follows redirects: a 302 to a block page is part of the
// WAF fingerprint and must be observed as-is. Certificate verification is
// off, since targets in authorized testing routinely carry self-signed or
// staging certificates.
func defaultClient() *http.Client {
	sharedOnce.Do(func() {
		sharedClient = NewClient("")
	})
	return sharedClient
}

// NewClient builds a pooled HTTP client, optionally through a proxy.
func NewClient(proxy string) *http.Client {
	dialer := &net.Dialer{
		Timeout:   defaults.DialTimeoutSeconds * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		MaxIdleConns:        defaults.MaxIdleConns,
		MaxIdleConnsPerHost: defaults.MaxConnsPerHost,
		MaxConnsPerHost:     defaults.MaxConnsPerHost,
		IdleConnTimeout:     90 * time.Second,

		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		TLSHandshakeTimeout:   defaults.DialTimeoutSeconds * time.Second,

		DialContext: dialer.DialContext,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}

	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   defaults.TimeoutSeconds * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
