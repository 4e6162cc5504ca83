package logging

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultConfig is a JSON production config writing to stderr, so logs never
// mix with the session output on stdout.
func DefaultConfig() zap.Config {
	logConf := zap.NewProductionConfig()
	logConf.Sampling = nil
	logConf.EncoderConfig.TimeKey = "time"
	logConf.EncoderConfig.LevelKey = "severity"
	logConf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConf.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	logConf.OutputPaths = []string{"stderr"}
	logConf.ErrorOutputPaths = []string{"stderr"}

	return logConf
}

// New builds a logger from DefaultConfig at the given level.
func New(level string) (*zap.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	logConf := DefaultConfig()
	logConf.Level = zap.NewAtomicLevelAt(l)

	return logConf.Build()
}

func ParseLevel(l string) (zapcore.Level, error) {
	l = strings.ToLower(strings.TrimSpace(l))
	switch l {
	case "":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "dpanic":
		return zapcore.DPanicLevel, nil
	case "panic":
		return zapcore.PanicLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		level, err := strconv.ParseInt(l, 10, 8)
		if err != nil {
			return 0, err
		}
		if level < int64(zapcore.DebugLevel) || level > int64(zapcore.FatalLevel) {
			return 0, fmt.Errorf("log level %d out of range", level)
		}
		return zapcore.Level(level), nil
	}
}
