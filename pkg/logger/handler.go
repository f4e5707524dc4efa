package logger

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// profile holds what each environment changes about the handler.
type profile struct {
	json         bool
	defaultLevel slog.Level
	formatTime   bool
}

var profiles = map[string]profile{
	"dev":  {defaultLevel: slog.LevelDebug, formatTime: true},
	"prod": {json: true, defaultLevel: slog.LevelInfo},
	"test": {defaultLevel: slog.LevelError},
}

func lookupProfile(env string) (profile, error) {
	p, ok := profiles[strings.ToLower(env)]
	if !ok {
		return profile{}, fmt.Errorf("unknown environment: %s (use 'dev', 'prod', or 'test')", env)
	}
	return p, nil
}

func createHandler(config Config, p profile, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   config.AddSource,
		ReplaceAttr: replacer(config, p),
	}
	if p.json {
		return slog.NewJSONHandler(config.Output, opts)
	}
	return slog.NewTextHandler(config.Output, opts)
}

// resolveLevel prefers an explicit level name and falls back to the profile
// default when the name is empty or unknown.
func resolveLevel(p profile, explicit string) slog.Level {
	if explicit == "" {
		return p.defaultLevel
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(explicit)); err != nil {
		return p.defaultLevel
	}
	return level
}

func replacer(config Config, p profile) func([]string, slog.Attr) slog.Attr {
	formatTime := p.formatTime && config.TimeFormat != ""
	shorten := config.AddSource && config.SourcePathLength > 0
	if !formatTime && !shorten {
		return nil
	}

	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 {
			return a
		}
		switch a.Key {
		case slog.TimeKey:
			if t, ok := a.Value.Any().(time.Time); ok && formatTime {
				a.Value = slog.StringValue(t.Format(config.TimeFormat))
			}
		case slog.SourceKey:
			if src, ok := a.Value.Any().(*slog.Source); ok && src != nil && shorten {
				src.File = shortenPath(src.File, config.SourcePathLength)
			}
		}
		return a
	}
}

// shortenPath keeps the last segments of a file path.
func shortenPath(path string, segments int) string {
	if segments <= 0 {
		return path
	}
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= segments {
		return path
	}
	return strings.Join(parts[len(parts)-segments:], "/")
}
