// Package logutil builds zap loggers from configuration.
package logutil

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig is the [log] section of a heapctl config file.
type LogConfig struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	Filename   string `toml:"filename"`
	MaxSize    int    `toml:"max-size"`
	MaxDays    int    `toml:"max-days"`
	MaxBackups int    `toml:"max-backups"`
}

// DefaultConfig logs info and above to stderr in console format.
func DefaultConfig() LogConfig {
	return LogConfig{Level: "info", Format: "console"}
}

func (c *LogConfig) getLevel() (zap.AtomicLevel, error) {
	if c.Level == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	return zap.ParseAtomicLevel(c.Level)
}

func (c *LogConfig) getEncoder() (zapcore.Encoder, error) {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	switch strings.ToLower(c.Format) {
	case "", "console":
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(ec), nil
	case "json":
		return zapcore.NewJSONEncoder(ec), nil
	default:
		return nil, fmt.Errorf("logutil: unknown log format %q", c.Format)
	}
}

func (c *LogConfig) getSyncer() zapcore.WriteSyncer {
	if c.Filename == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   c.Filename,
		MaxSize:    c.MaxSize,
		MaxAge:     c.MaxDays,
		MaxBackups: c.MaxBackups,
		LocalTime:  true,
	})
}

// New builds a logger from c.
func New(c LogConfig) (*zap.Logger, error) {
	level, err := c.getLevel()
	if err != nil {
		return nil, fmt.Errorf("logutil: %w", err)
	}
	enc, err := c.getEncoder()
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(enc, c.getSyncer(), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel)), nil
}
