package domain

// Band is the frequency coverage of a filterbank, in Hz.
// A zero band means the instrument is evaluated at Params.F only.
type Band struct {
	FMinHz float64
	FMaxHz float64
}

// IsZero reports whether no band was configured.
func (b Band) IsZero() bool {
	return b.FMinHz == 0 && b.FMaxHz == 0
}

// CheckSpec bounds one result column. Min and Max are optional.
type CheckSpec struct {
	Column string
	Min    *float64
	Max    *float64
}

// CheckResult is the output of a single check over a table.
type CheckResult struct {
	Name       string `json:"name"`
	Passed     bool   `json:"passed"`
	Message    string `json:"message"`
	Violations int    `json:"violations"`
}

// Instrument describes a spectrometer mounted on a telescope.
// Params holds the instrument-side values on top of DefaultParams.
type Instrument struct {
	Name        string
	Description string
	Band        Band
	Params      Params
	Checks      []CheckSpec
}

// InstrumentRef is a lightweight reference to an instrument file on disk.
type InstrumentRef struct {
	Name string
	Path string
}

// Conditions are the site and observation parameters of a run. Nil fields
// were not given and leave the instrument's value in place.
type Conditions struct {
	Name string
	Site string

	PWV   *float64
	EL    *float64
	TpAmb *float64
	TbCMB *float64

	SNR              *float64
	ObsHours         *float64
	OnSourceFraction *float64
	OnOff            *bool

	EtaAtm *float64
}

// Apply copies the given observing conditions onto p.
func (c Conditions) Apply(p *Params) {
	applyFloat(&p.PWV, c.PWV)
	applyFloat(&p.EL, c.EL)
	applyFloat(&p.TpAmb, c.TpAmb)
	applyFloat(&p.TbCMB, c.TbCMB)
	applyFloat(&p.SNR, c.SNR)
	applyFloat(&p.ObsHours, c.ObsHours)
	applyFloat(&p.OnSourceFraction, c.OnSourceFraction)
	if c.OnOff != nil {
		p.OnOff = *c.OnOff
	}
	if c.EtaAtm != nil {
		v := *c.EtaAtm
		p.EtaAtm = &v
	}
}

func applyFloat(dst, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// DefaultConditions sets nothing: a run without a conditions file uses the
// instrument's parameters as they are.
func DefaultConditions() Conditions {
	return Conditions{Name: "default"}
}

// ConditionsRef is a lightweight reference to a conditions file on disk.
type ConditionsRef struct {
	Name string
	Path string
}

// WorkspaceSpec is what the workspace initializer needs to scaffold a root.
type WorkspaceSpec struct {
	Root string
}
