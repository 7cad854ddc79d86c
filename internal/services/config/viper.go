package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/logger"
	"github.com/gabrielcapilla/viewplay/internal/ports"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "VIEWPLAY"

type ViperConfigService struct {
	validate *validator.Validate
}

// SetDefaults registers every default value on the global viper instance.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("player.containerId", "video-container")
	viper.SetDefault("player.width", 1000)
	viper.SetDefault("player.height", 600)
	viper.SetDefault("player.volume", 50)
	viper.SetDefault("player.autoplay", false)
	viper.SetDefault("player.muted", false)

	viper.SetDefault("mpv.binary", "mpv")
	viper.SetDefault("mpv.socketPath", filepath.Join(os.TempDir(), "viewplay-mpv.sock"))
	viper.SetDefault("mpv.regions", map[string]int64{"video-container": 0})
	viper.SetDefault("mpv.extraArgs", []string{})

	viper.SetDefault("monitor.interval", "200ms")
	viper.SetDefault("monitor.dbPath", "")
	viper.SetDefault("monitor.retain", 5000)

	viper.SetDefault("resolver.enabled", true)
	viper.SetDefault("resolver.format", "best[ext=mp4]/best")
	viper.SetDefault("resolver.cookiesPath", "")
}

// AppDir is <UserConfigDir>/viewplay, created on demand. It is empty when
// no user config directory exists.
func AppDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Could not find user config directory, using current directory")
		return ""
	}
	appDir := filepath.Join(configDir, "viewplay")
	if err := os.MkdirAll(appDir, 0755); err != nil {
		logger.Log.Error().Err(err).Msg("Could not create viewplay config directory")
		return ""
	}
	return appDir
}

func NewViperConfigService(searchPaths ...string) ports.ConfigService {
	if len(searchPaths) == 0 {
		if dir := AppDir(); dir != "" {
			searchPaths = append(searchPaths, dir)
		}
		searchPaths = append(searchPaths, ".")
	}
	for _, p := range searchPaths {
		viper.AddConfigPath(p)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	return &ViperConfigService{validate: validator.New()}
}

func (s *ViperConfigService) Load() (domain.Config, error) {
	var cfg domain.Config

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			logger.Log.Info().Msg("Config file not found, creating with default values.")
			if err := viper.SafeWriteConfig(); err != nil {
				logger.Log.Warn().Err(err).Msg("Could not write default config file")
			}
		} else {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	if cfg.Monitor.DBPath == "" {
		if dir := AppDir(); dir != "" {
			cfg.Monitor.DBPath = filepath.Join(dir, "viewplay.db")
		}
	}

	if err := s.validate.Struct(cfg); err != nil {
		return cfg, describe(err)
	}
	return cfg, nil
}

func describe(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("%s failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
