package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Dir     string
	Level   string // parsed by zapcore; unknown values fall back to info
	Console bool   // also write to stderr
}

func New(opts Options) (*zap.Logger, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	w := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, "slotwatch.log"),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), w, level)
	if opts.Console {
		console := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), level)
		core = zapcore.NewTee(core, console)
	}
	return zap.New(core), nil
}
