// Package connection resolves where a Gotenberg instance can be reached.
package connection

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrNoService is returned when no running Gotenberg service publishes its
// HTTP port.
var ErrNoService = errors.New("no running gotenberg service found")

// Details locate a Gotenberg instance.
type Details interface {
	BaseURL() string
}

// PropertiesDetails come from configuration (gotenberg.baseUrl).
type PropertiesDetails struct {
	url string
}

// NewPropertiesDetails validates rawURL as an http(s) base URL.
func NewPropertiesDetails(rawURL string) (PropertiesDetails, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return PropertiesDetails{}, fmt.Errorf("invalid gotenberg base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return PropertiesDetails{}, fmt.Errorf("invalid gotenberg base URL %q: want http(s)://host[:port]", rawURL)
	}
	return PropertiesDetails{url: strings.TrimRight(u.String(), "/")}, nil
}

// BaseURL implements Details.
func (d PropertiesDetails) BaseURL() string {
	return d.url
}

// ComposeDetails point at a Gotenberg container started by docker compose.
type ComposeDetails struct {
	Service string
	Host    string
	Port    int
}

// BaseURL implements Details.
func (d ComposeDetails) BaseURL() string {
	return "http://" + net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}
