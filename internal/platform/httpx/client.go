package httpx

import (
	"net"
	"net/http"
	"time"
)

const (
	defaultClientTimeout         = 2 * time.Minute
	defaultDialTimeout           = 5 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 32
	defaultMaxIdleConnsPerHost   = 8
)

// NewClient returns a hardened HTTP client for Gotenberg calls.
//
// Conversions can legitimately take a long time before the first response
// byte, so ResponseHeaderTimeout follows the overall timeout instead of being
// capped like the dial timeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}

	dialTimeout := timeout
	if dialTimeout > defaultDialTimeout {
		dialTimeout = defaultDialTimeout
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(dialTimeout, timeout),
	}
}

// NewTransport builds the pooled transport used by NewClient.
func NewTransport(dialTimeout, responseHeaderTimeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          defaultMaxIdleConns,
		MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: defaultExpectContinueTimeout,
	}
}
