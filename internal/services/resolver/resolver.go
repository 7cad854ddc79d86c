// Package resolver turns page URLs into media URLs a playback surface can
// load directly.
package resolver

import (
	"bytes"
	"fmt"
	"net/url"
	"os/exec"
	"path"
	"strings"

	"github.com/gabrielcapilla/viewplay/internal/domain"
	"github.com/gabrielcapilla/viewplay/internal/logger"
	"github.com/gabrielcapilla/viewplay/internal/ports"
)

var execCommand = exec.Command

const defaultFormat = "best[ext=mp4]/best"

var directExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".webm": true,
	".mkv":  true,
	".mov":  true,
	".ogv":  true,
	".m3u8": true,
	".mpd":  true,
}

type YTDLPResolver struct {
	format      string
	cookiesPath string
}

func NewYTDLPResolver(cfg domain.ResolverConfig) ports.SourceResolver {
	format := cfg.Format
	if format == "" {
		format = defaultFormat
	}
	return &YTDLPResolver{format: format, cookiesPath: cfg.CookiesPath}
}

func executeYTDLP(args ...string) ([]byte, error) {
	cmd := execCommand("yt-dlp", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if stderr.Len() > 0 {
		logger.Log.Debug().Strs("args", args).Str("stderr", stderr.String()).Msg("yt-dlp stderr")
	}

	if err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %s", strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// IsDirect reports whether source can be handed to a surface as is.
func IsDirect(source string) bool {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || u.Scheme == "file" {
		return true
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return true
	}
	return directExtensions[strings.ToLower(path.Ext(u.Path))]
}

func (r *YTDLPResolver) Resolve(source string) (string, error) {
	if IsDirect(source) {
		return source, nil
	}

	logger.Log.Info().Str("source", source).Msg("Resolving stream URL with yt-dlp")
	args := []string{"-f", r.format, "-g", "--no-playlist"}
	if r.cookiesPath != "" {
		args = append(args, "--cookies", r.cookiesPath)
	}
	output, err := executeYTDLP(append(args, source)...)
	if err != nil {
		return "", fmt.Errorf("error resolving %s: %w", source, err)
	}

	resolved := strings.TrimSpace(string(output))
	if resolved == "" {
		return "", fmt.Errorf("yt-dlp returned no URL for %s", source)
	}

	first := strings.Split(resolved, "\n")[0]
	logger.Log.Info().Str("source", source).Msg("Stream URL resolved")
	return first, nil
}
