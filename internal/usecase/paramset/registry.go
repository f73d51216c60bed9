// Package paramset addresses sensitivity parameters by name. Names follow
// the keyword arguments of the reference calculator (F, pwv, EL, eta_co, ...)
// so that command-line overrides and sweeps read the same as published
// parameter tables.
package paramset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/deshima-dev/desim/internal/domain"
)

type field struct {
	unit string
	get  func(p *domain.Params) float64
	set  func(p *domain.Params, v float64)
	flag bool
}

func scalar(unit string, ptr func(p *domain.Params) *float64) field {
	return field{
		unit: unit,
		get:  func(p *domain.Params) float64 { return *ptr(p) },
		set:  func(p *domain.Params, v float64) { *ptr(p) = v },
	}
}

func scaled(unit string, factor float64, ptr func(p *domain.Params) *float64) field {
	return field{
		unit: unit,
		get:  func(p *domain.Params) float64 { return *ptr(p) / factor },
		set:  func(p *domain.Params, v float64) { *ptr(p) = v * factor },
	}
}

func arcsec(ptr func(p *domain.Params) *float64) field {
	return field{
		unit: "arcsec",
		get:  func(p *domain.Params) float64 { return domain.RadToArcsec(*ptr(p)) },
		set:  func(p *domain.Params, v float64) { *ptr(p) = domain.ArcsecToRad(v) },
	}
}

func boolean(ptr func(p *domain.Params) *bool) field {
	return field{
		unit: "bool",
		get: func(p *domain.Params) float64 {
			if *ptr(p) {
				return 1
			}
			return 0
		},
		set:  func(p *domain.Params, v float64) { *ptr(p) = v != 0 },
		flag: true,
	}
}

var registry = map[string]field{
	"F":     scalar("Hz", func(p *domain.Params) *float64 { return &p.F }),
	"F_GHz": scaled("GHz", 1e9, func(p *domain.Params) *float64 { return &p.F }),
	"pwv":   scalar("mm", func(p *domain.Params) *float64 { return &p.PWV }),
	"EL":    scalar("deg", func(p *domain.Params) *float64 { return &p.EL }),
	"R":     scalar("", func(p *domain.Params) *float64 { return &p.R }),

	"eta_M1_spill": scalar("", func(p *domain.Params) *float64 { return &p.EtaM1Spill }),
	"eta_M2_spill": scalar("", func(p *domain.Params) *float64 { return &p.EtaM2Spill }),
	"eta_wo":       scalar("", func(p *domain.Params) *float64 { return &p.EtaWO }),

	"window_AR":        boolean(func(p *domain.Params) *bool { return &p.WindowAR }),
	"window_thickness": scalar("m", func(p *domain.Params) *float64 { return &p.Window.ThicknessM }),
	"tandelta":         scalar("", func(p *domain.Params) *float64 { return &p.Window.TanDelta }),
	"tan2delta":        scalar("", func(p *domain.Params) *float64 { return &p.Window.Tan2Delta }),
	"neffHDPE":         scalar("", func(p *domain.Params) *float64 { return &p.Window.NEff }),

	"eta_co":               scalar("", func(p *domain.Params) *float64 { return &p.EtaCO }),
	"eta_lens_antenna_rad": scalar("", func(p *domain.Params) *float64 { return &p.EtaLensAntennaRad }),
	"eta_circuit":          scalar("", func(p *domain.Params) *float64 { return &p.EtaCircuit }),
	"eta_IBF":              scalar("", func(p *domain.Params) *float64 { return &p.EtaIBF }),

	"theta_maj":          scalar("rad", func(p *domain.Params) *float64 { return &p.ThetaMaj }),
	"theta_min":          scalar("rad", func(p *domain.Params) *float64 { return &p.ThetaMin }),
	"theta_maj_arcsec":   arcsec(func(p *domain.Params) *float64 { return &p.ThetaMaj }),
	"theta_min_arcsec":   arcsec(func(p *domain.Params) *float64 { return &p.ThetaMin }),
	"eta_mb":             scalar("", func(p *domain.Params) *float64 { return &p.EtaMB }),
	"telescope_diameter": scalar("m", func(p *domain.Params) *float64 { return &p.TelescopeDiameter }),

	"Tb_cmb":   scalar("K", func(p *domain.Params) *float64 { return &p.TbCMB }),
	"Tp_amb":   scalar("K", func(p *domain.Params) *float64 { return &p.TpAmb }),
	"Tp_cabin": scalar("K", func(p *domain.Params) *float64 { return &p.TpCabin }),
	"Tp_co":    scalar("K", func(p *domain.Params) *float64 { return &p.TpCO }),
	"Tp_chip":  scalar("K", func(p *domain.Params) *float64 { return &p.TpChip }),

	"snr":                scalar("", func(p *domain.Params) *float64 { return &p.SNR }),
	"obs_hours":          scalar("h", func(p *domain.Params) *float64 { return &p.ObsHours }),
	"on_source_fraction": scalar("", func(p *domain.Params) *float64 { return &p.OnSourceFraction }),
	"on_off":             boolean(func(p *domain.Params) *bool { return &p.OnOff }),

	"eta_atm": {
		unit: "",
		get: func(p *domain.Params) float64 {
			if p.EtaAtm == nil {
				return 0
			}
			return *p.EtaAtm
		},
		set: func(p *domain.Params, v float64) {
			if v == 0 {
				p.EtaAtm = nil
				return
			}
			p.EtaAtm = &v
		},
	},
}

// Names returns every addressable parameter name, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Unit returns the unit a parameter is expressed in ("" for dimensionless).
func Unit(name string) (string, bool) {
	f, ok := registry[name]
	return f.unit, ok
}

// IsFlag reports whether name is a boolean parameter.
func IsFlag(name string) bool {
	return registry[name].flag
}

// Set assigns v to the named parameter of p.
func Set(p *domain.Params, name string, v float64) error {
	f, ok := registry[name]
	if !ok {
		return unknown(name)
	}
	f.set(p, v)
	return nil
}

// Get reads the named parameter of p.
func Get(p domain.Params, name string) (float64, error) {
	f, ok := registry[name]
	if !ok {
		return 0, unknown(name)
	}
	return f.get(&p), nil
}

func unknown(name string) error {
	msg := "unknown parameter"
	if near := suggest(name); near != "" {
		msg = fmt.Sprintf("unknown parameter (did you mean %s?)", near)
	}
	return domain.InvalidParam("paramset.lookup", name, msg)
}

func suggest(name string) string {
	low := strings.ToLower(name)
	for _, n := range Names() {
		if strings.ToLower(n) == low {
			return n
		}
	}
	return ""
}
