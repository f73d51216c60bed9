package ports

// Atmosphere returns the atmospheric transmission seen by one spectrometer
// channel centred on fHz. r == 0 samples the exact frequency.
type Atmosphere interface {
	Transmission(fHz, pwvMM, elDeg, r float64) (float64, error)
}
