package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
	"github.com/deshima-dev/desim/internal/usecase/paramset"
)

type ValidateInstrument struct {
	instruments ports.InstrumentLoader
	conditions  ports.ConditionsLoader
	atm         ports.Atmosphere
}

type ValidateOption func(*ValidateInstrument)

// WithAtmosphereProbe checks that the instrument band is covered by atm
// whenever eta_atm is not pinned.
func WithAtmosphereProbe(atm ports.Atmosphere) ValidateOption {
	return func(uc *ValidateInstrument) { uc.atm = atm }
}

func NewValidateInstrument(il ports.InstrumentLoader, cl ports.ConditionsLoader, opts ...ValidateOption) *ValidateInstrument {
	uc := &ValidateInstrument{
		instruments: il,
		conditions:  cl,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Execute validates an instrument + conditions pair without evaluating
// the sensitivity. All problems found are joined into one error.
func (uc *ValidateInstrument) Execute(ctx context.Context, instrumentPath, conditions string, set []string) error {
	inst, cond, err := loadPair(uc.instruments, uc.conditions, instrumentPath, conditions)
	if err != nil {
		return err
	}

	p, err := layer(inst, cond, set)
	if err != nil {
		return err
	}

	var errs []error
	if err := paramset.Validate(p); err != nil {
		errs = append(errs, err)
	}

	for _, c := range inst.Checks {
		if !slices.Contains(domain.Columns, c.Column) {
			errs = append(errs, invalidCheck(c, "unknown column"))
			continue
		}
		if c.Min == nil && c.Max == nil {
			errs = append(errs, invalidCheck(c, "needs min or max"))
		}
		if c.Min != nil && c.Max != nil && *c.Min > *c.Max {
			errs = append(errs, invalidCheck(c, "min is above max"))
		}
	}

	freqs := []float64{p.F}
	if !inst.Band.IsZero() {
		if _, err := paramset.Channels(inst.Band.FMinHz, inst.Band.FMaxHz, p.R); err != nil {
			errs = append(errs, err)
		}
		freqs = []float64{inst.Band.FMinHz, inst.Band.FMaxHz}
	}

	if uc.atm != nil && p.EtaAtm == nil && len(errs) == 0 {
		for _, f := range freqs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := uc.atm.Transmission(f, p.PWV, p.EL, 0); err != nil {
				errs = append(errs, fmt.Errorf("atmosphere at %.4g GHz: %w", f/1e9, err))
			}
		}
	}

	return errors.Join(errs...)
}

func invalidCheck(c domain.CheckSpec, msg string) error {
	return &domain.OpError{
		Op:   "validate.check",
		Kind: domain.KindInvalidConfig,
		Err:  fmt.Errorf("check on %q: %s: %w", c.Column, msg, domain.ErrInvalidConfig),
	}
}
