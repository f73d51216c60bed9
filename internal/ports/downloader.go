package ports

import (
	"context"
	"io"
)

// Downloader streams a remote resource into w and returns the bytes copied.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}
