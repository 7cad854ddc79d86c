package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var Log zerolog.Logger

func init() {
	Log = zerolog.New(openSink()).With().Timestamp().Caller().Logger()
	Log.Info().Msg("Logger initialized.")
}

func openSink() io.Writer {
	logPath := filepath.Join(os.TempDir(), "viewplay.log")
	configDir, err := os.UserConfigDir()
	if err == nil {
		appDir := filepath.Join(configDir, "viewplay")
		if err := os.MkdirAll(appDir, 0755); err == nil {
			logPath = filepath.Join(appDir, "viewplay.log")
		}
	}

	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return file
}

// SetLevel applies a textual level; unknown values keep info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	Log = Log.Level(lvl)
}

// SetOutput redirects the logger, mainly for headless runs and tests.
func SetOutput(w io.Writer) {
	Log = Log.Output(w)
}
