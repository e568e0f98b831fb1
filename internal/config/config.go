// Package config loads DualLink's runtime configuration from DUALLINK_*
// environment variables (the cmd entry points apply their flags on top;
// no config file is read), grounded on
// _examples/LanternOps-breeze/apps/agent's cobra+viper bootstrap (a
// Config struct populated via viper.Unmarshal with mapstructure tags,
// env vars bound with a fixed prefix).
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/duallink/duallink/internal/model"
)

// EnvPrefix is the prefix every DualLink environment variable carries,
// e.g. DUALLINK_DISPLAY_COUNT (spec §6).
const EnvPrefix = "DUALLINK"

// MinDisplays and MaxDisplays bound the display count (spec §4.H, §6).
const (
	MinDisplays = 1
	MaxDisplays = 8
)

// ReceiverConfig is the receiver process's configuration.
type ReceiverConfig struct {
	DisplayCount int `mapstructure:"display_count"`
}

// SenderConfig is the sender process's configuration: host/pin/
// resolution/fps/bitrate, read from environment or UI per spec §6.
type SenderConfig struct {
	Host         string `mapstructure:"host"`
	PairingPIN   string `mapstructure:"pin"`
	Width        uint32 `mapstructure:"width"`
	Height       uint32 `mapstructure:"height"`
	FPS          uint32 `mapstructure:"fps"`
	BitrateBps   uint64 `mapstructure:"bitrate_bps"`
	DisplayIndex int    `mapstructure:"display_index"`
}

// ClampDisplayCount clamps n to [MinDisplays, MaxDisplays] per spec §6.
func ClampDisplayCount(n int) int {
	if n < MinDisplays {
		return MinDisplays
	}
	if n > MaxDisplays {
		return MaxDisplays
	}
	return n
}

// newViper builds a viper instance bound to the DUALLINK_ env prefix.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// LoadReceiverConfig reads the receiver configuration, defaulting
// DisplayCount to 1 and clamping it into range.
func LoadReceiverConfig() (ReceiverConfig, error) {
	v := newViper()
	v.SetDefault("display_count", 1)
	if err := v.BindEnv("display_count", "DUALLINK_DISPLAY_COUNT"); err != nil {
		return ReceiverConfig{}, fmt.Errorf("config: bind display_count: %w", err)
	}
	var cfg ReceiverConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ReceiverConfig{}, fmt.Errorf("config: unmarshal receiver config: %w", err)
	}
	cfg.DisplayCount = ClampDisplayCount(cfg.DisplayCount)
	return cfg, nil
}

// LoadSenderConfig reads the sender configuration, defaulting stream
// parameters to model.DefaultStreamConfig().
func LoadSenderConfig() (SenderConfig, error) {
	v := newViper()
	def := model.DefaultStreamConfig()
	v.SetDefault("host", "")
	v.SetDefault("pin", "")
	v.SetDefault("width", def.Resolution.Width)
	v.SetDefault("height", def.Resolution.Height)
	v.SetDefault("fps", def.TargetFPS)
	v.SetDefault("bitrate_bps", def.MaxBitrateBps)
	v.SetDefault("display_index", 0)

	for _, key := range []string{"host", "pin", "width", "height", "fps", "bitrate_bps", "display_index"} {
		if err := v.BindEnv(key); err != nil {
			return SenderConfig{}, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	var cfg SenderConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return SenderConfig{}, fmt.Errorf("config: unmarshal sender config: %w", err)
	}
	return cfg, nil
}

// StreamConfig builds a model.StreamConfig from a SenderConfig.
func (c SenderConfig) StreamConfig() model.StreamConfig {
	return model.StreamConfig{
		Resolution:    model.Resolution{Width: c.Width, Height: c.Height},
		TargetFPS:     c.FPS,
		MaxBitrateBps: c.BitrateBps,
		Codec:         model.CodecH264,
		LowLatency:    true,
	}
}
