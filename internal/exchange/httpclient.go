// Package exchange provides a unified interface for talking to venues.
package exchange

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"sync"
	"time"
)

// HTTPClientConfig holds the HTTP client settings used for every venue.
// Defaults are tuned for the engine's low-latency REST paths.
type HTTPClientConfig struct {
	// Connection timeouts.
	ConnectTimeout time.Duration // timeout for establishing the TCP connection (default: 5s)
	ReadTimeout    time.Duration // timeout for reading the response (default: 10s)
	WriteTimeout   time.Duration // stored but not applied by NewHTTPClient (default: 10s)
	TotalTimeout   time.Duration // overall operation timeout (default: 30s)

	// Connection pooling.
	MaxIdleConns        int           // max idle connections (default: 100)
	MaxIdleConnsPerHost int           // max idle connections per host (default: 10)
	MaxConnsPerHost     int           // max connections per host (default: 20)
	IdleConnTimeout     time.Duration // idle connection timeout (default: 90s)

	// TLS.
	TLSHandshakeTimeout time.Duration // TLS handshake timeout (default: 5s)

	// Keep-alive.
	DisableKeepAlives bool          // disable keep-alive (default: false)
	KeepAliveInterval time.Duration // keep-alive interval (default: 30s)
}

// DefaultHTTPClientConfig returns the default configuration, tuned for
// low-latency trading operations.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		TotalTimeout:   30 * time.Second,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout: 5 * time.Second,

		DisableKeepAlives: false,
		KeepAliveInterval: 30 * time.Second,
	}
}

// HTTPClient is an optimized HTTP client for talking to venue REST APIs,
// with connection pooling and granular timeouts.
type HTTPClient struct {
	client *http.Client
	config HTTPClientConfig
}

// globalClient is a process-wide HTTP client reused across connectors so
// its connection pool is shared rather than duplicated per venue.
var (
	globalClient     *HTTPClient
	globalClientOnce sync.Once
)

// GetGlobalHTTPClient returns the global HTTP client built from
// DefaultHTTPClientConfig, constructing it once via a singleton.
func GetGlobalHTTPClient() *HTTPClient {
	globalClientOnce.Do(func() {
		globalClient = NewHTTPClient(DefaultHTTPClientConfig())
	})
	return globalClient
}

// NewHTTPClient builds an HTTP client from the given configuration.
func NewHTTPClient(config HTTPClientConfig) *HTTPClient {
	dialer := &net.Dialer{
		Timeout:   config.ConnectTimeout,
		KeepAlive: config.KeepAliveInterval,
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if deadline, ok := ctx.Deadline(); ok {
				timeout := time.Until(deadline)
				if timeout < config.ConnectTimeout {
					dialerWithTimeout := &net.Dialer{
						Timeout:   timeout,
						KeepAlive: config.KeepAliveInterval,
					}
					return dialerWithTimeout.DialContext(ctx, network, addr)
				}
			}
			return dialer.DialContext(ctx, network, addr)
		},

		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,

		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},

		DisableKeepAlives: config.DisableKeepAlives,

		DisableCompression:    true, // minimize latency over bandwidth
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: config.ReadTimeout,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.TotalTimeout, // overall fallback timeout
	}

	return &HTTPClient{
		client: client,
		config: config,
	}
}

// Do executes req under the configured connect, TLS-handshake,
// response-header and total timeouts.
func (hc *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return hc.client.Do(req)
}

// DoWithTimeout executes req with a caller-supplied timeout on top of the
// configured total timeout; whichever deadline is shorter ends the request.
func (hc *HTTPClient) DoWithTimeout(req *http.Request, timeout time.Duration) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()
	return hc.client.Do(req.WithContext(ctx))
}

// GetClient returns the underlying http.Client for callers that need it
// directly.
func (hc *HTTPClient) GetClient() *http.Client {
	return hc.client
}

// GetConfig returns the client's current configuration.
func (hc *HTTPClient) GetConfig() HTTPClientConfig {
	return hc.config
}

// Close closes all idle connections. Call during graceful shutdown.
func (hc *HTTPClient) Close() {
	if transport, ok := hc.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// CloseGlobalClient closes the global HTTP client. Call during application
// shutdown.
func CloseGlobalClient() {
	if globalClient != nil {
		globalClient.Close()
	}
}
