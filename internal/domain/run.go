package domain

import "time"

// RunArtifact represents a persisted sensitivity run for reproducibility.
type RunArtifact struct {
	ID      string `json:"id"`
	Version string `json:"version"`

	InstrumentName string `json:"instrument"`
	InstrumentPath string `json:"instrument_path"`
	ConditionsName string `json:"conditions"`

	Params Params `json:"params"`
	Sweep  Sweep  `json:"sweep"`
	Table  Table  `json:"table"`

	Checks []CheckResult `json:"checks"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Failed reports whether any check of the run failed.
func (r RunArtifact) Failed() bool {
	for _, c := range r.Checks {
		if !c.Passed {
			return true
		}
	}
	return false
}

// RunRef is one line of the run index.
type RunRef struct {
	ID         string    `json:"id"`
	File       string    `json:"file"`
	Instrument string    `json:"instrument"`
	Conditions string    `json:"conditions"`
	Points     int       `json:"points"`
	StartedAt  time.Time `json:"started_at"`
}

// AtmosphereInfo summarizes an installed atmosphere table.
type AtmosphereInfo struct {
	Path   string  `json:"path"`
	Bytes  int64   `json:"bytes"`
	Rows   int     `json:"rows"`
	FMinHz float64 `json:"f_min_hz"`
	FMaxHz float64 `json:"f_max_hz"`
	PWVMin float64 `json:"pwv_min"`
	PWVMax float64 `json:"pwv_max"`
}
