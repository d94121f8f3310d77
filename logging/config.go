// Package logging builds the zap logger used by the CLI and the facade.
package logging

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"go.uber.org/zap/zapcore"
)

// Config represents the logger configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `mapstructure:"level" json:"level" default:"info"`

	// Format is the log format (json or console).
	Format string `mapstructure:"format" json:"format" default:"console"`

	// Director is the directory for rotated log files. Empty disables file output.
	Director string `mapstructure:"director" json:"director"`

	// FileName is the active log file name inside Director.
	FileName string `mapstructure:"file-name" json:"fileName" default:"augment.log"`

	// LogInTerminal enables logging to stderr in addition to file.
	LogInTerminal bool `mapstructure:"log-in-terminal" json:"logInTerminal" default:"true"`

	// TimeFormat is the time format string (uses Go time format).
	TimeFormat string `mapstructure:"time-format" json:"timeFormat" default:"2006/01/02 - 15:04:05"`

	// MaxSize is the maximum size in megabytes of the log file before it gets rotated.
	MaxSize int `mapstructure:"max-size" json:"maxSize" default:"100"`

	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int `mapstructure:"max-backups" json:"maxBackups" default:"10"`

	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int `mapstructure:"max-age" json:"maxAge" default:"7"`

	// Compress determines if the rotated log files should be compressed using gzip.
	Compress bool `mapstructure:"compress" json:"compress" default:"true"`
}

// DefaultConfig returns a Config populated from the default tags.
func DefaultConfig() Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("logging: defaults: %v", err))
	}
	return c
}

// TransportLevel converts the string level to zapcore.Level.
func (c Config) TransportLevel() zapcore.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
