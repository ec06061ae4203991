// Package config implements the §9 configuration surface: YAML file
// defaults layered under CLI flag overrides, the same two-tier shape
// doismellburning-samoyed's direwolf port uses (tocalls.yaml +
// pflag-defined flags), built on spf13/viper so the YAML-vs-flag
// precedence is viper's own merge rather than a hand-rolled IsSet overlay.
package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"adsbcore/lib/crc"
)

// Units selects the presentation unit system. Affects presentation only
// (§9); the decoder core always computes in feet/knots internally.
type Units string

const (
	UnitsMetric   Units = "metric"
	UnitsImperial Units = "imperial"
)

// Config holds the §9 configuration fields. mapstructure tags drive
// viper's Unmarshal; yaml tags are kept alongside so a Config can still be
// hand-marshalled (e.g. by an operator generating a starter config file).
type Config struct {
	Correction   string  `mapstructure:"correction" yaml:"correction"` // "none", "one_bit", "two_bit"
	CRCCheck     bool    `mapstructure:"crc_check" yaml:"crc_check"`
	MinMessages  int     `mapstructure:"min_messages" yaml:"min_messages"`
	TTLSeconds   int     `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
	ReferenceLat float64 `mapstructure:"reference_lat" yaml:"reference_lat"`
	ReferenceLon float64 `mapstructure:"reference_lon" yaml:"reference_lon"`
	HasReference bool    `mapstructure:"-" yaml:"-"`
	Units        Units   `mapstructure:"units" yaml:"units"`
}

// Default returns the §9-specified defaults: one_bit correction, crc_check
// enabled, min_messages=2, ttl_seconds=60, no reference point, metric units.
func Default() Config {
	return Config{
		Correction:  "one_bit",
		CRCCheck:    true,
		MinMessages: 2,
		TTLSeconds:  60,
		Units:       UnitsMetric,
	}
}

// newViper returns a Viper instance seeded with Default()'s values, so a
// config source that only sets a few keys leaves the rest at their
// defaults.
func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("correction", d.Correction)
	v.SetDefault("crc_check", d.CRCCheck)
	v.SetDefault("min_messages", d.MinMessages)
	v.SetDefault("ttl_seconds", d.TTLSeconds)
	v.SetDefault("reference_lat", d.ReferenceLat)
	v.SetDefault("reference_lon", d.ReferenceLon)
	v.SetDefault("units", string(d.Units))
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.FinalizeReference()
	return cfg, nil
}

// LoadYAML reads a YAML file into a Config seeded with Default() values,
// so a file that only overrides a few fields leaves the rest at their
// defaults.
func LoadYAML(path string) (Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return decode(v)
}

// RegisterFlags adds the §9 fields as pflag flags, seeded from Default().
// Pair with Load to merge them under a YAML file: viper only lets a flag
// win when BindPFlags sees it was actually set on the command line, so an
// unset flag never clobbers a value the config file specified.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("correction", d.Correction, "CRC correction mode: none, one_bit, two_bit")
	fs.Bool("crc-check", d.CRCCheck, "crc_check configuration value; CRC validation runs regardless of it")
	fs.Int("min-messages", d.MinMessages, "ghost-suppression message count threshold")
	fs.Int("ttl-seconds", d.TTLSeconds, "aircraft record eviction TTL in seconds")
	fs.Float64("reference-lat", d.ReferenceLat, "receiver reference latitude")
	fs.Float64("reference-lon", d.ReferenceLon, "receiver reference longitude")
	fs.String("units", string(d.Units), "presentation units: metric or imperial")
}

// flagKeys maps each pflag name registered by RegisterFlags to its Config
// key, so Load can bind them individually instead of relying on
// BindPFlags's default "flag name equals key" assumption for the
// hyphenated names.
var flagKeys = map[string]string{
	"correction":    "correction",
	"crc-check":     "crc_check",
	"min-messages":  "min_messages",
	"ttl-seconds":   "ttl_seconds",
	"reference-lat": "reference_lat",
	"reference-lon": "reference_lon",
	"units":         "units",
}

// Load merges a YAML file at path (if non-empty) with fs's flags, in that
// precedence: a flag explicitly passed on the command line wins, then the
// YAML file, then Default()'s values. fs is normally one RegisterFlags was
// called on and Parse has already run on.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	v := newViper()
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return Config{}, fmt.Errorf("config: binding flag %s: %w", name, err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}
	return decode(v)
}

// FinalizeReference must be called after flag parsing: RegisterFlags can't
// tell "user passed 0.0" from "user didn't pass this flag", so HasReference
// is only trustworthy once both the lat and lon flags have been resolved.
func (c *Config) FinalizeReference() {
	c.HasReference = c.ReferenceLat != 0 || c.ReferenceLon != 0
}

// CRCMode translates the string correction field into crc.Mode.
func (c Config) CRCMode() (crc.Mode, error) {
	switch c.Correction {
	case "none":
		return crc.ModeNone, nil
	case "one_bit":
		return crc.ModeOneBit, nil
	case "two_bit":
		return crc.ModeTwoBit, nil
	default:
		return crc.ModeNone, fmt.Errorf("config: unknown correction mode %q", c.Correction)
	}
}
