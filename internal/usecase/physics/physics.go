// Package physics holds the radiative-transfer and detector-noise formulas
// used by the sensitivity calculation. Every function is pure and works on
// a single frequency point.
package physics

import (
	"fmt"
	"math"

	"github.com/deshima-dev/desim/internal/domain"
)

const (
	H = 6.62607004e-34 // Planck constant, J s
	K = 1.38064852e-23 // Boltzmann constant, J/K
	E = 1.60217662e-19 // electron charge, C
	C = 299792458.0    // speed of light, m/s

	// DeltaAl is the superconducting gap energy of aluminium.
	DeltaAl = 188e-6 * E
	// EtaPB is the pair-breaking efficiency.
	EtaPB = 0.4
	// AlReflOhmicLoss is the reflectivity of an aluminium mirror surface
	// (Shitov et al., ISSTT 2008).
	AlReflOhmicLoss = 0.9975
	// EtaPol is the polarisation efficiency of a single-polarisation system.
	EtaPol = 0.5
)

// TemperatureMethod selects how a PSD is converted back to a temperature.
type TemperatureMethod string

const (
	CallenWelton  TemperatureMethod = "callen-welton"
	RayleighJeans TemperatureMethod = "rayleigh-jeans"
)

// RadTrans propagates a brightness temperature (or PSD) bkg through a
// medium of transmission eta whose own emission is medium.
func RadTrans(bkg, medium, eta float64) float64 {
	return eta*bkg + (1-eta)*medium
}

// PhotonOccupation is the Bose-Einstein occupation number at F [Hz] and T [K].
func PhotonOccupation(f, t float64) float64 {
	return 1 / math.Expm1(H*f/(K*t))
}

// JohnsonNyquistPSD is the single-mode thermal power spectral density in W/Hz.
func JohnsonNyquistPSD(f, t float64) float64 {
	return H * f * PhotonOccupation(f, t)
}

// TemperatureFromPSD converts a PSD [W/Hz] at F [Hz] back to a temperature.
func TemperatureFromPSD(f, psd float64, method TemperatureMethod) (float64, error) {
	switch method {
	case CallenWelton, "":
		return H * f / (K * math.Log1p(H*f/psd)), nil
	case RayleighJeans:
		return psd / K, nil
	default:
		return 0, fmt.Errorf("unknown temperature method %q: %w", method, domain.ErrInvalidConfig)
	}
}

// CallenWeltonTemperature is TemperatureFromPSD with the Callen-Welton method.
func CallenWeltonTemperature(f, psd float64) float64 {
	return H * f / (K * math.Log1p(H*f/psd))
}

// WindowResult is the output of WindowTransmission.
type WindowResult struct {
	PSD        float64 // PSD seen looking into the window from the cold optics
	Efficiency float64 // transmission of the window
	Reflection float64 // single-surface power reflection
}

// WindowTransmission propagates psdIn through an HDPE window. Reflected
// power terminates on the cold optics, absorbed power is re-emitted at the
// cabin temperature.
func WindowTransmission(f, psdIn, psdCabin, psdCold float64, w domain.WindowSpec) WindowResult {
	refl := math.Pow((1-w.NEff)/(1+w.NEff), 2)
	fc := f / C
	etaHDPE := math.Exp(-w.ThicknessM * 2 * math.Pi * w.NEff * (w.TanDelta*fc + w.Tan2Delta*fc*fc))

	psd := RadTrans(psdIn, psdCold, 1-refl)
	psd = RadTrans(psd, psdCabin, etaHDPE)
	psd = RadTrans(psd, psdCold, 1-refl)

	return WindowResult{
		PSD:        psd,
		Efficiency: (1 - refl) * (1 - refl) * etaHDPE,
		Reflection: refl,
	}
}

// ApertureEfficiency derives the aperture efficiency of a dish of diameter
// d [m] from the Gaussian main-beam HPBWs [rad] and main-beam efficiency.
func ApertureEfficiency(f, thetaMaj, thetaMin, etaMB, d float64) float64 {
	omegaMB := math.Pi * thetaMaj * thetaMin / math.Ln2 / 4
	omegaA := omegaMB / etaMB
	lambda := C / f
	ae := lambda * lambda / omegaA
	return ae / GeometricArea(d)
}

// GeometricArea of a circular aperture of diameter d.
func GeometricArea(d float64) float64 {
	r := d / 2
	return math.Pi * r * r
}

// SourceWindowEfficiency is the coupling from an astronomical point source
// to the cryostat window, including the factor 2 polarisation loss.
func SourceWindowEfficiency(etaA, etaPol, etaAtm, etaForward float64) float64 {
	return etaPol * etaAtm * etaA * etaForward
}

// PhotonNEPKID is the NEP of the KID with respect to the absorbed power
// pkid [W], loaded over the detection bandwidth wf [Hz]: photon Poisson,
// photon bunching and quasiparticle recombination terms.
func PhotonNEPKID(f, pkid, wf float64) float64 {
	poisson := 2 * pkid * H * f
	bunching := 2 * pkid * pkid / wf
	recombination := 4 * DeltaAl * pkid / EtaPB
	return math.Sqrt(poisson + bunching + recombination)
}

// SpectralNEFD converts an instrument NEP into a noise equivalent flux
// density for a dish of diameter d. The 1/sqrt(2) converts from the 0.5 s
// integration the NEP is defined for.
func SpectralNEFD(nepInst, etaSourceWindow, f, r, d float64) float64 {
	nesp := nepInst / etaSourceWindow
	nef := nesp / GeometricArea(d) / math.Sqrt2
	return nef / (f / r)
}
