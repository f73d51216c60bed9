package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/deshima-dev/desim/internal/buildinfo"
	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
	"github.com/deshima-dev/desim/internal/usecase/check"
	"github.com/deshima-dev/desim/internal/usecase/paramset"
	"github.com/deshima-dev/desim/internal/usecase/sensitivity"
)

// RunRequest selects what a sensitivity run evaluates.
type RunRequest struct {
	InstrumentPath string
	// Conditions is a conditions name or path. Empty uses the built-in defaults.
	Conditions string
	// Set holds "name=value" overrides applied after the conditions.
	Set []string
	// Sweep is "name=v1,v2" or "name=start:stop:count[:log]". Empty sweeps
	// the instrument band when it has one.
	Sweep  string
	NoSave bool
}

type RunSensitivity struct {
	instruments ports.InstrumentLoader
	conditions  ports.ConditionsLoader
	atm         ports.Atmosphere
	store       ports.ArtifactStore

	workers int
	now     func() time.Time
	log     *slog.Logger
}

type RunOption func(*RunSensitivity)

// WithStore persists every run that is not marked NoSave.
func WithStore(s ports.ArtifactStore) RunOption {
	return func(uc *RunSensitivity) { uc.store = s }
}

func WithRunWorkers(n int) RunOption {
	return func(uc *RunSensitivity) {
		if n > 0 {
			uc.workers = n
		}
	}
}

func WithClock(now func() time.Time) RunOption {
	return func(uc *RunSensitivity) {
		if now != nil {
			uc.now = now
		}
	}
}

func WithRunLogger(l *slog.Logger) RunOption {
	return func(uc *RunSensitivity) {
		if l != nil {
			uc.log = l
		}
	}
}

func NewRunSensitivity(il ports.InstrumentLoader, cl ports.ConditionsLoader, atm ports.Atmosphere, opts ...RunOption) *RunSensitivity {
	uc := &RunSensitivity{
		instruments: il,
		conditions:  cl,
		atm:         atm,
		workers:     4,
		now:         time.Now,
		log:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute loads the instrument and conditions, evaluates every point and
// runs the instrument checks. A failed check is reported in the artifact,
// not as an error.
func (uc *RunSensitivity) Execute(ctx context.Context, req RunRequest) (domain.RunArtifact, error) {
	inst, cond, err := loadPair(uc.instruments, uc.conditions, req.InstrumentPath, req.Conditions)
	if err != nil {
		return domain.RunArtifact{}, err
	}

	p, err := layer(inst, cond, req.Set)
	if err != nil {
		return domain.RunArtifact{}, err
	}

	sweep, err := planSweep(inst, p, req.Sweep)
	if err != nil {
		return domain.RunArtifact{}, err
	}

	run := domain.RunArtifact{
		Version:        buildinfo.Version,
		InstrumentName: inst.Name,
		InstrumentPath: req.InstrumentPath,
		ConditionsName: cond.Name,
		Params:         p,
		Sweep:          sweep,
		StartedAt:      uc.now(),
	}

	uc.log.Info("run.start",
		"instrument", inst.Name,
		"conditions", cond.Name,
		"sweep", sweep.Param,
		"points", max(len(sweep.Values), 1),
	)

	calc := sensitivity.NewCalculator(uc.atm,
		sensitivity.WithWorkers(uc.workers),
		sensitivity.WithLogger(uc.log),
	)
	tbl, err := calc.Sweep(ctx, p, sweep)
	if err != nil {
		uc.log.Error("run.failed", "instrument", inst.Name, "err", err)
		return domain.RunArtifact{}, err
	}

	run.Table = tbl
	run.Checks = check.Evaluate(inst.Checks, tbl)
	run.FinishedAt = uc.now()

	if uc.store != nil && !req.NoSave {
		id, err := uc.store.SaveRun(run)
		if err != nil {
			return run, err
		}
		run.ID = id
	}

	uc.log.Info("run.finished",
		"instrument", inst.Name,
		"id", run.ID,
		"rows", len(tbl.Rows),
		"failed_checks", run.Failed(),
	)
	return run, nil
}

func loadPair(il ports.InstrumentLoader, cl ports.ConditionsLoader, instPath, condName string) (domain.Instrument, domain.Conditions, error) {
	inst, err := il.LoadInstrument(instPath)
	if err != nil {
		return domain.Instrument{}, domain.Conditions{}, err
	}

	cond := domain.DefaultConditions()
	if strings.TrimSpace(condName) != "" {
		cond, err = cl.LoadConditions(condName)
		if err != nil {
			return domain.Instrument{}, domain.Conditions{}, err
		}
	}
	return inst, cond, nil
}

// layer builds the run parameters: defaults < instrument < conditions < overrides.
func layer(inst domain.Instrument, cond domain.Conditions, set []string) (domain.Params, error) {
	p := inst.Params
	cond.Apply(&p)

	for _, raw := range set {
		name, v, err := paramset.ParseAssignment(raw)
		if err != nil {
			return domain.Params{}, err
		}
		if err := paramset.Set(&p, name, v); err != nil {
			return domain.Params{}, err
		}
	}
	return p, nil
}

func planSweep(inst domain.Instrument, p domain.Params, raw string) (domain.Sweep, error) {
	if strings.TrimSpace(raw) != "" {
		return paramset.ParseSweep(raw)
	}
	if inst.Band.IsZero() {
		return domain.Sweep{}, nil
	}

	fs, err := paramset.Channels(inst.Band.FMinHz, inst.Band.FMaxHz, p.R)
	if err != nil {
		return domain.Sweep{}, &domain.OpError{
			Op:   "run.channels",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("instrument %q band: %w", inst.Name, err),
		}
	}
	return domain.Sweep{Param: "F", Values: fs}, nil
}
