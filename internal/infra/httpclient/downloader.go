package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
)

// DefaultMaxBytes bounds a download. ALMA model tables are a few MB.
const DefaultMaxBytes = 64 << 20

// Downloader fetches remote files over HTTP(S).
type Downloader struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

// DownloaderOption allows configuring a Downloader.
type DownloaderOption func(*Downloader)

// WithTimeout sets the timeout applied to the whole download.
func WithTimeout(timeout time.Duration) DownloaderOption {
	return func(d *Downloader) { d.timeout = timeout }
}

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = client }
}

// WithMaxBytes caps the response body size.
func WithMaxBytes(n int64) DownloaderOption {
	return func(d *Downloader) {
		if n > 0 {
			d.maxBytes = n
		}
	}
}

func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client:   New(DefaultConfig()),
		timeout:  2 * time.Minute,
		maxBytes: DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ ports.Downloader = (*Downloader)(nil)

func (d *Downloader) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &domain.OpError{Op: "httpclient.download", Kind: domain.KindInvalidConfig, Path: url, Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, &domain.OpError{Op: "httpclient.download", Kind: domain.KindExecution, Path: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := domain.KindExecution
		if resp.StatusCode == http.StatusNotFound {
			kind = domain.KindNotFound
		}
		return 0, &domain.OpError{
			Op:   "httpclient.download",
			Kind: kind,
			Path: url,
			Err:  fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	if resp.ContentLength > d.maxBytes {
		return 0, tooLarge(url, d.maxBytes)
	}

	n, err := io.Copy(w, io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("download timed out after %s: %w", d.timeout, err)
		}
		return n, &domain.OpError{Op: "httpclient.download", Kind: domain.KindExecution, Path: url, Err: err}
	}
	if n > d.maxBytes {
		return n, tooLarge(url, d.maxBytes)
	}
	return n, nil
}

func tooLarge(url string, limit int64) error {
	return &domain.OpError{
		Op:   "httpclient.download",
		Kind: domain.KindExecution,
		Path: url,
		Err:  fmt.Errorf("response exceeds %d bytes", limit),
	}
}
