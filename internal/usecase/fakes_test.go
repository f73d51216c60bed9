package usecase

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/deshima-dev/desim/internal/domain"
)

type fakeInstrumentLoader struct {
	inst domain.Instrument
	err  error
}

func (f fakeInstrumentLoader) LoadInstrument(_ string) (domain.Instrument, error) {
	return f.inst, f.err
}

func (f fakeInstrumentLoader) ListInstruments(_ string) ([]domain.InstrumentRef, error) {
	return nil, nil
}

type fakeConditionsLoader struct {
	cond   domain.Conditions
	err    error
	called bool
}

func (f *fakeConditionsLoader) LoadConditions(_ string) (domain.Conditions, error) {
	f.called = true
	return f.cond, f.err
}

type fakeStore struct {
	saved bool
	last  domain.RunArtifact
	err   error
}

func (s *fakeStore) SaveRun(run domain.RunArtifact) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.saved = true
	s.last = run
	return "run-123", nil
}

func (s *fakeStore) ListRuns() ([]domain.RunRef, error) { return nil, nil }

func (s *fakeStore) LoadRun(_ string) (domain.RunArtifact, error) {
	return domain.RunArtifact{}, domain.ErrNotFound
}

// rangeAtm serves a constant transmission between lo and hi Hz.
type rangeAtm struct {
	lo, hi float64
	eta    float64
}

func (a rangeAtm) Transmission(f, _, _, _ float64) (float64, error) {
	if f < a.lo || f > a.hi {
		return 0, &domain.OpError{Op: "atm", Kind: domain.KindInvalidConfig, Err: domain.ErrOutOfRange}
	}
	return a.eta, nil
}

type fakeDownloader struct {
	body string
	err  error
	url  string
}

func (d *fakeDownloader) Download(_ context.Context, url string, w io.Writer) (int64, error) {
	d.url = url
	if d.err != nil {
		return 0, d.err
	}
	return io.Copy(w, strings.NewReader(d.body))
}

type fakeInstaller struct {
	dest string
	data []byte
}

func (f *fakeInstaller) Install(dest string, data []byte) (domain.AtmosphereInfo, error) {
	if !strings.HasPrefix(string(data), "#") {
		return domain.AtmosphereInfo{}, &domain.OpError{Op: "atm.install", Kind: domain.KindInvalidConfig, Err: errors.New("bad table")}
	}
	f.dest = dest
	f.data = data
	return domain.AtmosphereInfo{Path: dest, Rows: 3}, nil
}

type fakeInitializer struct {
	spec  domain.WorkspaceSpec
	force bool
}

func (f *fakeInitializer) Init(spec domain.WorkspaceSpec, force bool) error {
	f.spec = spec
	f.force = force
	return nil
}

func ptr(v float64) *float64 { return &v }

func testInstrument() domain.Instrument {
	return domain.Instrument{
		Name:   "deshima",
		Params: domain.DefaultParams(),
	}
}

func pinnedConditions(eta float64) domain.Conditions {
	c := domain.DefaultConditions()
	c.Name = "aste"
	c.EtaAtm = ptr(eta)
	return c
}
