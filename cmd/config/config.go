package config

import (
	"fmt"

	"github.com/omzlo/canbridge/models/flexcan"
	"github.com/omzlo/canbridge/models/helpers"
	"golang.org/x/exp/slices"
)

const CONFIG_FILE = "canbridge.conf"

type ChannelSettings struct {
	Index   int  `toml:"index"`
	BitRate uint `toml:"bitrate"`
	Enabled bool `toml:"enabled"`
}

type Configuration struct {
	LogLevel              uint              `toml:"log_level"`
	LogFile               string            `toml:"log_file"`
	SpinLimit             int               `toml:"spin_limit"`
	LegacyBitRateFallback bool              `toml:"legacy_bitrate_fallback"`
	MonitorInterval       uint              `toml:"monitor_interval"`
	Channels              []ChannelSettings `toml:"channel"`
}

// DefaultChannels is used when the configuration file has no [[channel]]
// table.
var DefaultChannels = []ChannelSettings{
	{Index: 0, BitRate: 250, Enabled: true},
	{Index: 1, BitRate: 250, Enabled: true},
	{Index: 2, BitRate: 250, Enabled: true},
}

func Default() Configuration {
	return Configuration{
		LogLevel:        3,
		SpinLimit:       flexcan.DEFAULT_SPIN_LIMIT,
		MonitorInterval: 10,
	}
}

var Settings = Default()

// Load reads file into Settings. A nil file means the default location; a
// missing file there is not an error.
func Load(file *helpers.FilePath) error {
	if file == nil {
		fp, err := helpers.LocateDotFile(CONFIG_FILE)
		if err != nil {
			return finish(&Settings)
		}
		file = fp
	}

	if err := helpers.LoadConfiguration(file, &Settings); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	return finish(&Settings)
}

func finish(c *Configuration) error {
	if len(c.Channels) == 0 {
		c.Channels = append([]ChannelSettings(nil), DefaultChannels...)
	}
	return c.Validate()
}

func (c *Configuration) Validate() error {
	var seen []int

	for _, ch := range c.Channels {
		if ch.Index < 0 || ch.Index >= flexcan.NUM_CONTROLLERS {
			return fmt.Errorf("channel index %d out of range 0-%d", ch.Index, flexcan.NUM_CONTROLLERS-1)
		}
		if slices.Contains(seen, ch.Index) {
			return fmt.Errorf("channel %d configured twice", ch.Index)
		}
		seen = append(seen, ch.Index)
		if ch.Enabled && ch.BitRate == 0 {
			return fmt.Errorf("channel %d has no bit rate", ch.Index)
		}
	}
	if c.SpinLimit < 0 {
		return fmt.Errorf("spin_limit must not be negative")
	}
	return nil
}

func (c *Configuration) DriverOptions() flexcan.Options {
	return flexcan.Options{
		SpinLimit:             c.SpinLimit,
		LegacyBitRateFallback: c.LegacyBitRateFallback,
	}
}
