package httpclient

import (
	"net"
	"net/http"
	"time"

	"github.com/deshima-dev/desim/internal/buildinfo"
)

// Config tunes the client used for table downloads. The overall deadline
// comes from the caller's context, so Timeout is usually zero.
type Config struct {
	Timeout        time.Duration
	DialTimeout    time.Duration
	TLSHandshake   time.Duration
	ResponseHeader time.Duration
	UserAgent      string
}

func DefaultConfig() Config {
	return Config{
		DialTimeout:    10 * time.Second,
		TLSHandshake:   10 * time.Second,
		ResponseHeader: 30 * time.Second,
		UserAgent:      buildinfo.Project + "/" + buildinfo.Version,
	}
}

func New(cfg Config) *http.Client {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   cfg.TLSHandshake,
		ResponseHeaderTimeout: cfg.ResponseHeader,
	}
	if cfg.UserAgent != "" {
		rt = userAgent{next: rt, value: cfg.UserAgent}
	}

	return &http.Client{Transport: rt, Timeout: cfg.Timeout}
}

type userAgent struct {
	next  http.RoundTripper
	value string
}

func (u userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.next.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", u.value)
	return u.next.RoundTrip(r)
}
