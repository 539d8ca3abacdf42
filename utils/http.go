package utils

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// NewDirectClient returns a client that never goes through a proxy, not even
// one configured in the environment. Provider lookups must use it so the
// reported address is the host's own.
func NewDirectClient(connectTimeout, requestTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: connectTimeout}

	return &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			Proxy:               nil,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: connectTimeout,
			ForceAttemptHTTP2:   true,
		},
	}
}

// ParseProxyURL accepts socks5, socks5h, http and https URLs. A bare host:port
// is taken to be a SOCKS5 proxy.
func ParseProxyURL(address string) (*url.URL, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, &ConfigError{Key: "bot.proxy", Reason: "proxy address is empty"}
	}

	if !strings.Contains(address, "://") {
		address = "socks5://" + address
	}

	u, err := url.Parse(address)
	if err != nil {
		return nil, &ConfigError{Key: "bot.proxy", Reason: err.Error()}
	}

	if u.Host == "" {
		return nil, &ConfigError{Key: "bot.proxy", Reason: fmt.Sprintf("no host in %q", address)}
	}

	switch u.Scheme {
	case "socks5", "socks5h", "http", "https":
		return u, nil
	default:
		return nil, &ConfigError{Key: "bot.proxy", Reason: fmt.Sprintf("unsupported proxy scheme %q", u.Scheme)}
	}
}

// NewProxyClient returns a client whose every connection goes through the
// given proxy.
func NewProxyClient(proxyURL *url.URL, connectTimeout, requestTimeout time.Duration) (*http.Client, error) {
	dialer := &net.Dialer{Timeout: connectTimeout}
	transport := &http.Transport{
		TLSHandshakeTimeout: connectTimeout,
		ForceAttemptHTTP2:   true,
	}

	switch proxyURL.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(proxyURL)
		transport.DialContext = dialer.DialContext
	default:
		socksDialer, err := proxy.FromURL(proxyURL, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create proxy dialer: %w", err)
		}

		contextDialer, ok := socksDialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("proxy dialer for %s does not support contexts", proxyURL.Redacted())
		}

		transport.DialContext = contextDialer.DialContext
	}

	return &http.Client{
		Timeout:   requestTimeout,
		Transport: transport,
	}, nil
}
