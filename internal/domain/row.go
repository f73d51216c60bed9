package domain

// Row is the result of one sensitivity evaluation. JSON names follow the
// column names used by the reference calculator so tables stay comparable.
type Row struct {
	F   float64 `json:"F"`   // Hz
	PWV float64 `json:"PWV"` // mm
	EL  float64 `json:"EL"`  // deg

	EtaAtm float64 `json:"eta_atm"`
	R      float64 `json:"R"`

	WFSpec float64 `json:"W_F_spec"` // Hz
	WFCont float64 `json:"W_F_cont"` // Hz

	ThetaMaj float64 `json:"theta_maj"`
	ThetaMin float64 `json:"theta_min"`

	EtaA       float64 `json:"eta_a"`
	EtaMB      float64 `json:"eta_mb"`
	EtaForward float64 `json:"eta_forward"`
	EtaSW      float64 `json:"eta_sw"`
	EtaWindow  float64 `json:"eta_window"`
	EtaInst    float64 `json:"eta_inst"`
	EtaCircuit float64 `json:"eta_circuit"`

	// Callen-Welton brightness temperatures along the optical chain, K.
	TbSky    float64 `json:"Tb_sky"`
	TbM1     float64 `json:"Tb_M1"`
	TbM2     float64 `json:"Tb_M2"`
	TbWO     float64 `json:"Tb_wo"`
	TbWindow float64 `json:"Tb_window"`
	TbCO     float64 `json:"Tb_co"`
	TbKID    float64 `json:"Tb_KID"`

	Pkid     float64 `json:"Pkid"` // W
	PkidSky  float64 `json:"Pkid_sky"`
	PkidWarm float64 `json:"Pkid_warm"`
	PkidCold float64 `json:"Pkid_cold"`
	NPh      float64 `json:"n_ph"`

	NEPkid  float64 `json:"NEPkid"`  // W/Hz^0.5
	NEPinst float64 `json:"NEPinst"` // W/Hz^0.5

	NEFDLine      float64 `json:"NEFD_line"`      // W/m^2/Hz s^0.5
	NEFDContinuum float64 `json:"NEFD_continuum"` // W/m^2/Hz s^0.5
	NEF           float64 `json:"NEF"`            // W/m^2 s^0.5
	MDLF          float64 `json:"MDLF"`           // W/m^2

	SNR              float64 `json:"snr"`
	ObsHours         float64 `json:"obs_hours"`
	OnSourceFraction float64 `json:"on_source_fraction"`
	OnSourceHours    float64 `json:"on_source_hours"`

	EquivalentTrx float64 `json:"equivalent_Trx"` // K, Rayleigh-Jeans
}

// Columns lists the row columns in table order.
var Columns = []string{
	"F", "PWV", "EL", "eta_atm", "R", "W_F_spec", "W_F_cont",
	"theta_maj", "theta_min", "eta_a", "eta_mb", "eta_forward", "eta_sw",
	"eta_window", "eta_inst", "eta_circuit",
	"Tb_sky", "Tb_M1", "Tb_M2", "Tb_wo", "Tb_window", "Tb_co", "Tb_KID",
	"Pkid", "Pkid_sky", "Pkid_warm", "Pkid_cold", "n_ph",
	"NEPkid", "NEPinst", "NEFD_line", "NEFD_continuum", "NEF", "MDLF",
	"snr", "obs_hours", "on_source_fraction", "on_source_hours", "equivalent_Trx",
}

// Values returns the row in Columns order.
func (r Row) Values() []float64 {
	return []float64{
		r.F, r.PWV, r.EL, r.EtaAtm, r.R, r.WFSpec, r.WFCont,
		r.ThetaMaj, r.ThetaMin, r.EtaA, r.EtaMB, r.EtaForward, r.EtaSW,
		r.EtaWindow, r.EtaInst, r.EtaCircuit,
		r.TbSky, r.TbM1, r.TbM2, r.TbWO, r.TbWindow, r.TbCO, r.TbKID,
		r.Pkid, r.PkidSky, r.PkidWarm, r.PkidCold, r.NPh,
		r.NEPkid, r.NEPinst, r.NEFDLine, r.NEFDContinuum, r.NEF, r.MDLF,
		r.SNR, r.ObsHours, r.OnSourceFraction, r.OnSourceHours, r.EquivalentTrx,
	}
}

// Column returns a single value by column name.
func (r Row) Column(name string) (float64, bool) {
	vals := r.Values()
	for i, c := range Columns {
		if c == name {
			return vals[i], true
		}
	}
	return 0, false
}

// Table is an ordered set of rows, one per sweep point.
type Table struct {
	Rows []Row `json:"rows"`
}

// Sweep varies one named parameter over Values. An empty sweep evaluates
// the base parameters once.
type Sweep struct {
	Param  string    `json:"param"`
	Values []float64 `json:"values"`
}

// IsZero reports whether the sweep evaluates a single point.
func (s Sweep) IsZero() bool {
	return s.Param == "" || len(s.Values) == 0
}
