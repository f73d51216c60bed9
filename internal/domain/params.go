package domain

import "math"

// WindowSpec describes the HDPE cryostat window. It only matters when the
// window is not anti-reflection coated.
type WindowSpec struct {
	ThicknessM float64 `json:"thickness_m" validate:"gt=0"`
	TanDelta   float64 `json:"tandelta" validate:"gte=0"`
	Tan2Delta  float64 `json:"tan2delta" validate:"gte=0"`
	NEff       float64 `json:"n_eff" validate:"gte=1"`
}

// Params is the full input of one sensitivity evaluation.
// Units are SI unless noted on the field.
type Params struct {
	F   float64 `json:"F" validate:"gt=0"`         // Hz
	PWV float64 `json:"pwv" validate:"gte=0"`      // mm
	EL  float64 `json:"EL" validate:"gt=0,lte=90"` // deg
	R   float64 `json:"R" validate:"gt=0"`         // F/W_F

	EtaM1Spill float64 `json:"eta_M1_spill" validate:"gt=0,lte=1"`
	EtaM2Spill float64 `json:"eta_M2_spill" validate:"gt=0,lte=1"`
	EtaWO      float64 `json:"eta_wo" validate:"gt=0,lte=1"`

	WindowAR bool       `json:"window_AR"`
	Window   WindowSpec `json:"window"`

	EtaCO             float64 `json:"eta_co" validate:"gt=0,lte=1"`
	EtaLensAntennaRad float64 `json:"eta_lens_antenna_rad" validate:"gt=0,lte=1"`
	EtaCircuit        float64 `json:"eta_circuit" validate:"gt=0,lte=1"`
	EtaIBF            float64 `json:"eta_IBF" validate:"gt=0,lte=1"`

	ThetaMaj          float64 `json:"theta_maj" validate:"gt=0"` // rad, HPBW
	ThetaMin          float64 `json:"theta_min" validate:"gt=0"` // rad, HPBW
	EtaMB             float64 `json:"eta_mb" validate:"gt=0,lte=1"`
	TelescopeDiameter float64 `json:"telescope_diameter" validate:"gt=0"` // m

	TbCMB   float64 `json:"Tb_cmb" validate:"gt=0"`
	TpAmb   float64 `json:"Tp_amb" validate:"gt=0"`
	TpCabin float64 `json:"Tp_cabin" validate:"gt=0"`
	TpCO    float64 `json:"Tp_co" validate:"gt=0"`
	TpChip  float64 `json:"Tp_chip" validate:"gt=0"`

	SNR              float64 `json:"snr" validate:"gt=0"`
	ObsHours         float64 `json:"obs_hours" validate:"gt=0"`
	OnSourceFraction float64 `json:"on_source_fraction" validate:"gt=0,lte=1"`
	OnOff            bool    `json:"on_off"`

	// EtaAtm pins the atmospheric transmission instead of using the
	// atmosphere table.
	EtaAtm *float64 `json:"eta_atm,omitempty" validate:"omitempty,gt=0,lte=1"`
}

// ArcsecToRad converts arc seconds to radians.
func ArcsecToRad(arcsec float64) float64 {
	return arcsec * math.Pi / 180 / 3600
}

// RadToArcsec converts radians to arc seconds.
func RadToArcsec(rad float64) float64 {
	return rad * 180 / math.Pi * 3600
}

// DefaultWindow is the measured 8 mm HDPE window.
func DefaultWindow() WindowSpec {
	return WindowSpec{
		ThicknessM: 8e-3,
		TanDelta:   4.805e-4,
		Tan2Delta:  1e-8,
		NEff:       1.52,
	}
}

// DefaultParams returns the reference DESHIMA configuration on a 10 m dish.
func DefaultParams() Params {
	return Params{
		F:   350e9,
		PWV: 0.5,
		EL:  60,
		R:   500,

		EtaM1Spill: 0.99,
		EtaM2Spill: 0.90,
		EtaWO:      0.99,

		WindowAR: true,
		Window:   DefaultWindow(),

		EtaCO:             0.65,
		EtaLensAntennaRad: 0.81,
		EtaCircuit:        0.32,
		EtaIBF:            0.6,

		ThetaMaj:          ArcsecToRad(22),
		ThetaMin:          ArcsecToRad(22),
		EtaMB:             0.6,
		TelescopeDiameter: 10,

		TbCMB:   2.725,
		TpAmb:   273,
		TpCabin: 290,
		TpCO:    4,
		TpChip:  0.12,

		SNR:              5,
		ObsHours:         10,
		OnSourceFraction: 0.4,
		OnOff:            true,
	}
}
