package helpers

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

const defaultESTimeout = 5 * time.Second

// ESConfig is the connection setup for the user search index.
type ESConfig struct {
	Addrs      []string
	Username   string
	Password   string
	Timeout    time.Duration // dial and response-header timeout; defaults to 5s
	MaxRetries int
}

// NewESClient builds the client backing user search. Index calls run on the
// request path, so Timeout bounds how long a slow cluster can stall a write.
func NewESClient(c ESConfig) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses:  c.Addrs,
		Username:   c.Username,
		Password:   c.Password,
		MaxRetries: c.MaxRetries,
		Transport:  esTransport(c.Timeout),
	})
}

func esTransport(timeout time.Duration) *http.Transport {
	if timeout <= 0 {
		timeout = defaultESTimeout
	}
	return &http.Transport{
		MaxIdleConnsPerHost:   10,
		ResponseHeaderTimeout: timeout,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
	}
}
