package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/logger"
	"github.com/gabrielcapilla/viewplay/internal/player"
	"github.com/gabrielcapilla/viewplay/internal/ports"
	"github.com/gabrielcapilla/viewplay/internal/services/config"
	"github.com/gabrielcapilla/viewplay/internal/services/monitor"
	"github.com/gabrielcapilla/viewplay/internal/services/resolver"
	"github.com/gabrielcapilla/viewplay/internal/services/storage"
	"github.com/gabrielcapilla/viewplay/internal/services/surface"
	"github.com/gabrielcapilla/viewplay/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "viewplay [source]",
	Short:         "Embed a video player in a host window and track its playback state and viewability",
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runPlayer,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("container", "", "Host region the player is embedded into")
	flags.Int("width", 0, "Player width in pixels")
	flags.Int("height", 0, "Player height in pixels")
	flags.Float64("volume", 0, "Initial volume, 0-100")
	flags.Bool("autoplay", false, "Start playback as soon as the source loads")
	flags.Bool("muted", false, "Start muted")
	flags.Bool("headless", false, "Print the playback state on every sample instead of starting the monitor UI")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	bind := map[string]string{
		"player.containerId": "container",
		"player.width":       "width",
		"player.height":      "height",
		"player.volume":      "volume",
		"player.autoplay":    "autoplay",
		"player.muted":       "muted",
	}
	for key, flag := range bind {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
	if err := viper.BindPFlag("logLevel", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(err)
	}
}

func loadConfig() (domain.Config, error) {
	cfg, err := config.NewViperConfigService().Load()
	if err != nil {
		return cfg, fmt.Errorf("could not load configuration: %w", err)
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func openStore(cfg domain.Config) ports.SampleStore {
	if cfg.Monitor.DBPath == "" {
		return nil
	}
	store, err := storage.NewBboltStore(cfg.Monitor.DBPath)
	if err != nil {
		logger.Log.Warn().Err(err).Str("path", cfg.Monitor.DBPath).Msg("Samples will not be stored")
		return nil
	}
	return store
}

// configure applies the configured player settings and loads source.
func configure(c *player.Controller, cfg domain.Config, source string) error {
	if err := c.SetAutoplay(cfg.Player.Autoplay); err != nil {
		return err
	}
	if err := c.SetMute(cfg.Player.Muted); err != nil {
		return err
	}
	if err := c.SetVolume(cfg.Player.Volume); err != nil {
		return err
	}
	if source == "" {
		return nil
	}
	if cfg.Resolver.Enabled {
		resolved, err := resolver.NewYTDLPResolver(cfg.Resolver).Resolve(source)
		if err != nil {
			return err
		}
		source = resolved
	}
	return c.Load(source)
}

func runPlayer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var source string
	if len(args) > 0 {
		source = args[0]
	}

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	c := player.New(surface.NewMpvHost(cfg.Mpv), cfg.Player.ContainerID, cfg.Player.Width, cfg.Player.Height)
	defer c.Close()
	if err := c.Err(); err != nil {
		return err
	}
	if err := configure(c, cfg, source); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sampler := monitor.NewSampler(c, store, cfg.Monitor)

	headless, _ := cmd.Flags().GetBool("headless")
	if headless {
		out := cmd.OutOrStdout()
		sampler.OnSample(func(snap domain.Snapshot) {
			fmt.Fprintln(out, snap.State)
		})
		sampler.Run(ctx)
		return nil
	}

	go sampler.Run(ctx)

	p := tea.NewProgram(ui.InitialModel(c, source, cfg.Monitor.Interval), tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("monitor UI failed: %w", err)
	}
	return nil
}
