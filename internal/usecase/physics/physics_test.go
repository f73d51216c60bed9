package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deshima-dev/desim/internal/domain"
)

func TestRadTrans(t *testing.T) {
	assert.InDelta(t, 39.0, RadTrans(10, 300, 0.9), 1e-12)
	assert.InDelta(t, 10.0, RadTrans(10, 300, 1), 1e-12)
	assert.InDelta(t, 300.0, RadTrans(10, 300, 0), 1e-12)
}

func TestJohnsonNyquistPSD_RayleighJeansLimit(t *testing.T) {
	// hF << kT: the PSD approaches kT.
	psd := JohnsonNyquistPSD(1e9, 300)
	assert.InEpsilon(t, K*300, psd, 1e-3)
}

func TestTemperatureFromPSD_InvertsJohnsonNyquist(t *testing.T) {
	for _, tc := range []struct{ f, temp float64 }{
		{350e9, 2.725},
		{350e9, 273},
		{220e9, 0.12},
		{440e9, 4},
	} {
		psd := JohnsonNyquistPSD(tc.f, tc.temp)
		got, err := TemperatureFromPSD(tc.f, psd, CallenWelton)
		require.NoError(t, err)
		assert.InEpsilon(t, tc.temp, got, 1e-9, "f=%g T=%g", tc.f, tc.temp)
		assert.InEpsilon(t, tc.temp, CallenWeltonTemperature(tc.f, psd), 1e-9)
	}
}

func TestTemperatureFromPSD_RayleighJeans(t *testing.T) {
	got, err := TemperatureFromPSD(350e9, K*10, RayleighJeans)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestTemperatureFromPSD_UnknownMethod(t *testing.T) {
	_, err := TemperatureFromPSD(350e9, 1e-22, "planck")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidConfig))
}

func TestWindowTransmission_Reference(t *testing.T) {
	w := domain.DefaultWindow()
	res := WindowTransmission(350e9, 1, 1, 1, w)

	assert.InDelta(t, 1.0, res.PSD, 1e-12, "uniform illumination must pass through")
	assert.InDelta(t, 0.8772811207048768, res.Efficiency, 1e-12)
	assert.InDelta(t, 0.042579994960947345, res.Reflection, 1e-12)
}

func TestWindowTransmission_Lossless(t *testing.T) {
	w := domain.WindowSpec{ThicknessM: 0, NEff: 1}
	res := WindowTransmission(350e9, 3e-22, 1e-21, 5e-23, w)

	assert.InDelta(t, 3e-22, res.PSD, 1e-36)
	assert.Equal(t, 1.0, res.Efficiency)
	assert.Equal(t, 0.0, res.Reflection)
}

func TestApertureEfficiency(t *testing.T) {
	theta := domain.ArcsecToRad(22)
	got := ApertureEfficiency(350e9, theta, theta, 0.6, 10)
	assert.InDelta(t, 0.43481765603174666, got, 1e-12)
}

func TestGeometricArea(t *testing.T) {
	assert.InDelta(t, 25*math.Pi, GeometricArea(10), 1e-12)
}

func TestSourceWindowEfficiency(t *testing.T) {
	assert.InDelta(t, 0.5*0.9*0.171*0.94, SourceWindowEfficiency(0.171, 0.5, 0.9, 0.94), 1e-15)
}

func TestPhotonNEPKID(t *testing.T) {
	got := PhotonNEPKID(350e9, 1e-11, 350e9/500/0.6)
	assert.InEpsilon(t, 4.2317716443845525e-16, got, 1e-9)
}

func TestSpectralNEFD_ScalesWithDiameter(t *testing.T) {
	small := SpectralNEFD(5e-17, 0.19, 350e9, 500, 10)
	large := SpectralNEFD(5e-17, 0.19, 350e9, 500, 20)
	assert.InEpsilon(t, 4.0, small/large, 1e-12)
}
