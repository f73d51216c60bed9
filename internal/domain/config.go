package domain

// Config represents the workspace configuration loaded from desim.yaml.
type Config struct {
	Defaults   DefaultsConfig   `mapstructure:"defaults"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Run        RunConfig        `mapstructure:"run"`
	Output     OutputConfig     `mapstructure:"output"`
	Serve      ServeConfig      `mapstructure:"serve"`
	Atmosphere AtmosphereConfig `mapstructure:"atmosphere"`
}

type DefaultsConfig struct {
	Instrument string `mapstructure:"instrument"`
	Conditions string `mapstructure:"conditions"`
}

type PathsConfig struct {
	InstrumentsDir string `mapstructure:"instruments_dir"`
	ConditionsDir  string `mapstructure:"conditions_dir"`
	RunsDir        string `mapstructure:"runs_dir"`
	Atmosphere     string `mapstructure:"atmosphere"`
}

type RunConfig struct {
	Workers int `mapstructure:"workers"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"`
}

type ServeConfig struct {
	Addr string `mapstructure:"addr"`
	// RateLimit is calculation requests per minute per client IP; 0 disables it.
	RateLimit int `mapstructure:"rate_limit"`
}

type AtmosphereConfig struct {
	// ChannelAirmass corrects channel-averaged transmission for elevation.
	ChannelAirmass bool `mapstructure:"channel_airmass"`
}

// DefaultConfig provides sane defaults if desim.yaml is partially missing.
func DefaultConfig() Config {
	return Config{
		Defaults: DefaultsConfig{
			Instrument: "deshima",
			Conditions: "aste",
		},
		Paths: PathsConfig{
			InstrumentsDir: "instruments",
			ConditionsDir:  "conditions",
			RunsDir:        "runs",
			Atmosphere:     "data/atm.csv",
		},
		Run:    RunConfig{Workers: 4},
		Output: OutputConfig{Format: "pretty"},
		Serve:  ServeConfig{Addr: "127.0.0.1:8350", RateLimit: 120},
	}
}
