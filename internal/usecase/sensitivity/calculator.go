// Package sensitivity evaluates the sensitivity of a DESHIMA-type
// spectrometer: it propagates thermal emission from the sky through the
// telescope and instrument optics to the KID, derives the photon-noise NEP
// and turns it into a noise equivalent flux density and the minimum
// detectable line flux.
package sensitivity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
	"github.com/deshima-dev/desim/internal/usecase/paramset"
	"github.com/deshima-dev/desim/internal/usecase/physics"
)

type Calculator struct {
	atm     ports.Atmosphere
	workers int
	log     *slog.Logger
}

type Option func(*Calculator)

// WithWorkers bounds how many sweep points are evaluated concurrently.
func WithWorkers(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.workers = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Calculator) {
		if l != nil {
			c.log = l
		}
	}
}

// NewCalculator returns a calculator backed by atm. atm may be nil when
// every evaluation pins eta_atm.
func NewCalculator(atm ports.Atmosphere, opts ...Option) *Calculator {
	c := &Calculator{
		atm:     atm,
		workers: 4,
		log:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Point evaluates one parameter set.
func (c *Calculator) Point(ctx context.Context, p domain.Params) (domain.Row, error) {
	if err := ctx.Err(); err != nil {
		return domain.Row{}, err
	}
	if err := paramset.Validate(p); err != nil {
		return domain.Row{}, err
	}

	etaAtm, err := c.transmission(p)
	if err != nil {
		return domain.Row{}, err
	}
	return evaluate(p, etaAtm), nil
}

// Sweep evaluates p once per sweep value. Rows keep the order of
// s.Values; the first failing point cancels the remaining ones.
func (c *Calculator) Sweep(ctx context.Context, p domain.Params, s domain.Sweep) (domain.Table, error) {
	if s.IsZero() {
		row, err := c.Point(ctx, p)
		if err != nil {
			return domain.Table{}, err
		}
		return domain.Table{Rows: []domain.Row{row}}, nil
	}

	c.log.Debug("sweep.start", "param", s.Param, "points", len(s.Values), "workers", c.workers)

	rows := make([]domain.Row, len(s.Values))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, v := range s.Values {
		g.Go(func() error {
			q := p
			if err := paramset.Set(&q, s.Param, v); err != nil {
				return err
			}
			row, err := c.Point(ctx, q)
			if err != nil {
				return fmt.Errorf("%s=%g: %w", s.Param, v, err)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.log.Debug("sweep.failed", "param", s.Param, "err", err)
		return domain.Table{}, err
	}

	return domain.Table{Rows: rows}, nil
}

func (c *Calculator) transmission(p domain.Params) (float64, error) {
	if p.EtaAtm != nil {
		return *p.EtaAtm, nil
	}
	if c.atm == nil {
		return 0, &domain.OpError{
			Op:   "sensitivity.atmosphere",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("no atmosphere table loaded and eta_atm not set: %w", domain.ErrInvalidConfig),
		}
	}
	return c.atm.Transmission(p.F, p.PWV, p.EL, p.R)
}

// evaluate runs the optical chain for validated parameters.
func evaluate(p domain.Params, etaAtm float64) domain.Row {
	f := p.F

	etaM1Ohmic := physics.AlReflOhmicLoss
	etaM2Ohmic := physics.AlReflOhmicLoss
	etaM1 := etaM1Ohmic * p.EtaM1Spill
	etaChip := p.EtaLensAntennaRad * p.EtaCircuit

	// Forward efficiency excludes the window.
	etaForward := etaM1*etaM2Ohmic*p.EtaM2Spill*p.EtaWO + (1-p.EtaM2Spill)*p.EtaWO

	wfCont := f / p.R / p.EtaIBF
	wfSpec := f / p.R

	psdCMB := physics.JohnsonNyquistPSD(f, p.TbCMB)
	psdAmb := physics.JohnsonNyquistPSD(f, p.TpAmb)
	psdCabin := physics.JohnsonNyquistPSD(f, p.TpCabin)
	psdCO := physics.JohnsonNyquistPSD(f, p.TpCO)
	psdChip := physics.JohnsonNyquistPSD(f, p.TpChip)

	psdSky := physics.RadTrans(psdCMB, psdAmb, etaAtm)
	psdM1 := physics.RadTrans(psdSky, psdAmb, etaM1)
	psdM2Spill := physics.RadTrans(psdM1, psdSky, p.EtaM2Spill)
	psdM2 := physics.RadTrans(psdM2Spill, psdAmb, etaM2Ohmic)
	psdWO := physics.RadTrans(psdM2, psdCabin, p.EtaWO)

	psdWindow := psdWO
	etaWindow := 1.0
	if !p.WindowAR {
		w := physics.WindowTransmission(f, psdWO, psdCabin, psdCO, p.Window)
		psdWindow = w.PSD
		etaWindow = w.Efficiency
	}
	psdCOut := physics.RadTrans(psdWindow, psdCO, p.EtaCO)
	psdKID := physics.RadTrans(psdCOut, psdChip, etaChip)

	etaInst := etaChip * p.EtaCO * etaWindow

	// Sky loading: through the main beam and via the M2 spillover.
	psdKIDSky := psdSky*etaM1*p.EtaM2Spill*etaM2Ohmic*p.EtaWO*etaInst +
		physics.RadTrans(0, psdSky, p.EtaM2Spill)*etaM2Ohmic*p.EtaWO*etaInst

	// Warm loading: sky spillover does not count.
	psdKIDWarm := physics.RadTrans(
		physics.RadTrans(
			physics.RadTrans(
				physics.RadTrans(0, psdAmb, etaM1),
				0, p.EtaM2Spill),
			psdAmb, etaM2Ohmic),
		psdCabin, p.EtaWO)
	if p.WindowAR {
		psdKIDWarm *= etaChip * p.EtaCO
	} else {
		psdKIDWarm = physics.WindowTransmission(f, psdKIDWarm, psdCabin, psdCO, p.Window).PSD * p.EtaCO * etaChip
	}

	psdKIDCold := physics.RadTrans(physics.RadTrans(0, psdCO, p.EtaCO), psdChip, etaChip)

	pkid := psdKID * wfCont
	nepKID := physics.PhotonNEPKID(f, pkid, wfCont)
	nepInst := nepKID / etaInst

	etaA := physics.ApertureEfficiency(f, p.ThetaMaj, p.ThetaMin, p.EtaMB, p.TelescopeDiameter)
	etaSW := physics.SourceWindowEfficiency(etaA, physics.EtaPol, etaAtm, etaForward)

	nefdLine := physics.SpectralNEFD(nepInst, etaSW, f, p.R, p.TelescopeDiameter)
	if p.OnOff {
		// On-off chopping subtracts two noisy measurements.
		nefdLine *= math.Sqrt2
	}
	nefdCont := nefdLine * p.EtaIBF

	nef := nefdLine * wfSpec
	onSourceHours := p.ObsHours * p.OnSourceFraction
	mdlf := nef * p.SNR / math.Sqrt(onSourceHours*3600)

	// Rayleigh-Jeans approximation.
	trx := nepInst/physics.K/math.Sqrt(2*wfCont) - physics.CallenWeltonTemperature(f, psdWO)

	return domain.Row{
		F:      f,
		PWV:    p.PWV,
		EL:     p.EL,
		EtaAtm: etaAtm,
		R:      p.R,

		WFSpec: wfSpec,
		WFCont: wfCont,

		ThetaMaj: p.ThetaMaj,
		ThetaMin: p.ThetaMin,

		EtaA:       etaA,
		EtaMB:      p.EtaMB,
		EtaForward: etaForward,
		EtaSW:      etaSW,
		EtaWindow:  etaWindow,
		EtaInst:    etaInst,
		EtaCircuit: p.EtaCircuit,

		TbSky:    physics.CallenWeltonTemperature(f, psdSky),
		TbM1:     physics.CallenWeltonTemperature(f, psdM1),
		TbM2:     physics.CallenWeltonTemperature(f, psdM2),
		TbWO:     physics.CallenWeltonTemperature(f, psdWO),
		TbWindow: physics.CallenWeltonTemperature(f, psdWindow),
		TbCO:     physics.CallenWeltonTemperature(f, psdCOut),
		TbKID:    physics.CallenWeltonTemperature(f, psdKID),

		Pkid:     pkid,
		PkidSky:  psdKIDSky * wfCont,
		PkidWarm: psdKIDWarm * wfCont,
		PkidCold: psdKIDCold * wfCont,
		NPh:      pkid / (wfCont * physics.H * f),

		NEPkid:  nepKID,
		NEPinst: nepInst,

		NEFDLine:      nefdLine,
		NEFDContinuum: nefdCont,
		NEF:           nef,
		MDLF:          mdlf,

		SNR:              p.SNR,
		ObsHours:         p.ObsHours,
		OnSourceFraction: p.OnSourceFraction,
		OnSourceHours:    onSourceHours,

		EquivalentTrx: trx,
	}
}
