package domain

import "time"

type Config struct {
	LogLevel string         `mapstructure:"logLevel" validate:"oneof=debug info warn error"`
	Player   PlayerConfig   `mapstructure:"player"`
	Mpv      MpvConfig      `mapstructure:"mpv"`
	Monitor  MonitorConfig  `mapstructure:"monitor"`
	Resolver ResolverConfig `mapstructure:"resolver"`
}

type PlayerConfig struct {
	ContainerID string  `mapstructure:"containerId" validate:"required"`
	Width       int     `mapstructure:"width" validate:"gt=0"`
	Height      int     `mapstructure:"height" validate:"gt=0"`
	Volume      float64 `mapstructure:"volume" validate:"gte=0,lte=100"`
	Autoplay    bool    `mapstructure:"autoplay"`
	Muted       bool    `mapstructure:"muted"`
}

// MpvConfig describes the mpv host. Regions maps a container id to the
// native window id mpv embeds into; 0 lets mpv open its own window.
type MpvConfig struct {
	Binary     string           `mapstructure:"binary" validate:"required"`
	SocketPath string           `mapstructure:"socketPath" validate:"required"`
	Regions    map[string]int64 `mapstructure:"regions"`
	ExtraArgs  []string         `mapstructure:"extraArgs"`
}

type MonitorConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	DBPath   string        `mapstructure:"dbPath"`
	Retain   int           `mapstructure:"retain" validate:"gte=0"`
}

type ResolverConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Format      string `mapstructure:"format"`
	CookiesPath string `mapstructure:"cookiesPath"`
}
