package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a zap logger from cfg. Output goes to stderr when LogInTerminal
// is set and to a lumberjack-rotated file when Director is set. With neither,
// the logger discards everything.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(cfg.TransportLevel())
	enc := encoder(cfg)

	var cores []zapcore.Core
	if cfg.LogInTerminal {
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stderr), level))
	}
	if cfg.Director != "" {
		if err := os.MkdirAll(cfg.Director, 0o755); err != nil {
			return nil, err
		}
		name := cfg.FileName
		if name == "" {
			name = "augment.log"
		}
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Director, name),
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		// Files always get JSON so they stay machine-readable.
		cores = append(cores, zapcore.NewCore(jsonEncoder(cfg), zapcore.AddSync(rotator), level))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func encoderConfig(cfg Config) zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.MessageKey = "message"
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	if cfg.TimeFormat != "" {
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(cfg.TimeFormat)
	}
	return ec
}

func encoder(cfg Config) zapcore.Encoder {
	if cfg.Format == "json" {
		return jsonEncoder(cfg)
	}
	ec := encoderConfig(cfg)
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func jsonEncoder(cfg Config) zapcore.Encoder {
	return zapcore.NewJSONEncoder(encoderConfig(cfg))
}
