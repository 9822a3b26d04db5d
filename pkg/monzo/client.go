package monzo

import (
	"net"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.monzo.com"

// Options tunes the underlying HTTP client. Zero values pick the defaults.
type Options struct {
	// ConnectTimeout bounds dialling and the TLS handshake. Default 3.05s.
	ConnectTimeout time.Duration

	// ReadTimeout bounds the wait for response headers. Default 10s.
	ReadTimeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// transport errors and 429/5xx responses. Default 3; negative disables.
	MaxRetries int

	// RetryInitialInterval is the first backoff delay. Default 1s.
	RetryInitialInterval time.Duration
}

// Client calls the Monzo API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	maxRetries      int
	initialInterval time.Duration
}

func NewClient(baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 3050 * time.Millisecond
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryInitialInterval <= 0 {
		opts.RetryInitialInterval = time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   opts.ConnectTimeout + opts.ReadTimeout,
		},
		maxRetries:      opts.MaxRetries,
		initialInterval: opts.RetryInitialInterval,
	}
}
