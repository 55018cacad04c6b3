package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/rs/zerolog"
)

// PackageLoggers lists every named logger used in this module
var PackageLoggers = []string{"transport", "server", "client", "pool", "game", "cmd"}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// hangmanLogger implements the ILogger interface on top of zerolog
type hangmanLogger struct {
	name  string
	mu    sync.RWMutex
	level logger.LogLevel
}

func (l *hangmanLogger) SetLevel(level logger.LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *hangmanLogger) enabled(level logger.LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level >= level
}

// event starts a record on the current sink so InitLoggers can redirect existing loggers
func (l *hangmanLogger) event(level zerolog.Level) *zerolog.Event {
	sinkMu.RLock()
	base := sink
	sinkMu.RUnlock()
	return base.WithLevel(level).Str("pkg", l.name)
}

func (l *hangmanLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.event(zerolog.DebugLevel).Msgf(format, args...)
	}
}

func (l *hangmanLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.event(zerolog.InfoLevel).Msgf(format, args...)
	}
}

func (l *hangmanLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.event(zerolog.WarnLevel).Msgf(format, args...)
	}
}

func (l *hangmanLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.event(zerolog.ErrorLevel).Msgf(format, args...)
	}
}

func (l *hangmanLogger) Panicf(format string, args ...interface{}) {
	if l.enabled(logger.CRITICAL) {
		l.event(zerolog.ErrorLevel).Msgf(format, args...)
	}
	panic(fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var (
	sinkMu      sync.RWMutex
	sink        = newSink(os.Stdout, DefaultLogFormat)
	factoryOnce sync.Once
)

// newSink creates the shared zerolog logger all package loggers derive from
func newSink(out io.Writer, format string) zerolog.Logger {
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}
	}
	// level filtering happens in hangmanLogger so SetLevel keeps working per package
	return zerolog.New(out).Level(zerolog.TraceLevel).With().Timestamp().Logger()
}

// CreateLogger implements the dragonboat logger Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &hangmanLogger{
		name:  pkgName,
		level: logger.INFO,
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// ValidateLogFormat checks a log format name
func ValidateLogFormat(format string) error {
	switch format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("invalid log format: %s. must be one of console, json", format)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the zerolog backed factory and sets the level of every package logger.
// It may be called again to change the output, the format or the level.
func InitLoggers(level, format string) error {
	return InitLoggersTo(os.Stdout, level, format)
}

// InitLoggersTo is InitLoggers with a custom output (used by the tests)
func InitLoggersTo(out io.Writer, level, format string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	if err := ValidateLogFormat(format); err != nil {
		return err
	}

	sinkMu.Lock()
	sink = newSink(out, format)
	sinkMu.Unlock()

	// dragonboat panics if the factory is set twice
	factoryOnce.Do(func() { logger.SetLoggerFactory(CreateLogger) })

	for _, name := range PackageLoggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
