package usecase

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
)

type FetchAtmosphere struct {
	downloader ports.Downloader
	installer  ports.AtmosphereInstaller
}

func NewFetchAtmosphere(d ports.Downloader, in ports.AtmosphereInstaller) *FetchAtmosphere {
	return &FetchAtmosphere{downloader: d, installer: in}
}

// Execute downloads an atmosphere table and installs it at dest. The
// existing file is kept when the download does not parse.
func (uc *FetchAtmosphere) Execute(ctx context.Context, rawURL, dest string) (domain.AtmosphereInfo, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.AtmosphereInfo{}, &domain.OpError{
			Op:   "atm.fetch",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("url %q must be http(s): %w", rawURL, domain.ErrInvalidConfig),
		}
	}
	if strings.TrimSpace(dest) == "" {
		return domain.AtmosphereInfo{}, &domain.OpError{
			Op:   "atm.fetch",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("destination path is empty: %w", domain.ErrInvalidConfig),
		}
	}

	var buf bytes.Buffer
	n, err := uc.downloader.Download(ctx, u.String(), &buf)
	if err != nil {
		return domain.AtmosphereInfo{}, err
	}

	info, err := uc.installer.Install(dest, buf.Bytes())
	if err != nil {
		return domain.AtmosphereInfo{}, err
	}
	info.Bytes = n
	return info, nil
}
