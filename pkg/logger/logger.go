package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

type Config struct {
	// Env selects the handler: dev (text), prod (JSON) or test (errors only)
	Env string
	// Level overrides the env default (debug, info, warn, error)
	Level     string
	AddSource bool
	// TimeFormat is used by the dev text handler
	TimeFormat string
	// SourcePathLength keeps only the last N segments of source paths
	SourcePathLength int
	// Output defaults to stdout
	Output io.Writer
}

// Logger is a wrapper around slog.Logger with additional methods
type Logger struct {
	*slog.Logger
	level slog.Level
}

func New(config Config) (*Logger, error) {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.TimeFormat == "" {
		config.TimeFormat = time.TimeOnly
	}

	p, err := lookupProfile(config.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to create log handler: %w", err)
	}
	level := resolveLevel(p, config.Level)

	logger := slog.New(createHandler(config, p, level))
	slog.SetDefault(logger)

	return &Logger{Logger: logger, level: level}, nil
}

// Must panics if logger creation fails
func Must(logger *Logger, err error) *Logger {
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	return logger
}

// Level reports the minimum level this logger emits
func (l *Logger) Level() slog.Level {
	return l.level
}

// Component returns a child logger tagged with the component name
func (l *Logger) Component(name string) *slog.Logger {
	return l.With("component", name)
}
