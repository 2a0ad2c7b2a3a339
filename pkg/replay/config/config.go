package config

import "time"

type Config struct {
	SampleRate  uint32     `yaml:"sample_rate"`
	Input       string     `yaml:"input"`
	Codes       []string   `yaml:"codes,flow"`
	Protocols   []Protocol `yaml:"protocols"`
	MinRepeats  int        `yaml:"min_repeats"`
	MinBits     int        `yaml:"min_bits"`
	VerboseBits bool       `yaml:"verbose_bits"`
	StatsServer struct {
		Port            int           `yaml:"port"`
		RefreshInterval time.Duration `yaml:"refresh_interval_ms"`
	} `yaml:"stats_server"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	}
}

// Protocol is one slicer configuration; widths are in microseconds.
type Protocol struct {
	Name       string  `yaml:"name"`
	Modulation string  `yaml:"modulation"`
	ShortWidth float64 `yaml:"short_width"`
	LongWidth  float64 `yaml:"long_width"`
	SyncWidth  float64 `yaml:"sync_width"`
	GapLimit   float64 `yaml:"gap_limit"`
	ResetLimit float64 `yaml:"reset_limit"`
	Tolerance  float64 `yaml:"tolerance"`
}
