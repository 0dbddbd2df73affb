// Package logger provides structured logging using zap.
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Faultbox/objmesh/internal/config"
	"github.com/Faultbox/objmesh/pkg/formats"
)

// Log is the global logger instance.
var Log *zap.Logger

// Log file rotation.
const (
	fileMaxSizeMB  = 20
	fileMaxBackups = 5
	fileMaxAgeDays = 14
)

// Init builds the global logger from the logging section of the config.
// Console output goes to stderr so command output on stdout stays clean.
func Init(cfg config.LoggingConfig) error {
	return initWith(cfg, os.Stderr)
}

// initWith installs a logger writing to console (if non-nil) and to
// cfg.LogFile (if set).
func initWith(cfg config.LoggingConfig, console io.Writer) error {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("logging level: %w", err)
	}

	var cores []zapcore.Core
	if console != nil {
		enc := zapcore.NewConsoleEncoder(encoderConfig(
			zapcore.TimeEncoderOfLayout("15:04:05"),
			zapcore.CapitalColorLevelEncoder,
		))
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(console), lvl))
	}
	if cfg.LogFile != "" {
		enc := zapcore.NewConsoleEncoder(encoderConfig(
			zapcore.ISO8601TimeEncoder,
			zapcore.CapitalLevelEncoder,
		))
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(fileWriter(cfg.LogFile)), lvl))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return nil
}

func encoderConfig(timeEnc zapcore.TimeEncoder, levelEnc zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       timeEnc,
		EncodeLevel:      levelEnc,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: " ",
	}
}

func fileWriter(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    fileMaxSizeMB,
		MaxBackups: fileMaxBackups,
		MaxAge:     fileMaxAgeDays,
		Compress:   true,
		LocalTime:  true,
	}
}

// InitNop installs a logger that discards everything.
func InitNop() {
	Log = zap.NewNop()
}

// Named returns a child logger tagged with a component name.
// It falls back to a no-op logger before Init has been called.
func Named(component string) *zap.Logger {
	if Log == nil {
		return zap.NewNop().Named(component)
	}
	return Log.Named(component)
}

// Sync flushes any buffered log entries.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

// File tags an entry with the mesh file it concerns.
func File(path string) zap.Field {
	return zap.String("file", path)
}

// Mesh logs the shape of a parsed mesh as one nested field.
func Mesh(m *formats.OBJMesh) zap.Field {
	return zap.Object("mesh", zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("format", m.Format.String())
		enc.AddInt("vertices", m.VertexCount())
		enc.AddInt("faces", m.FaceCount)
		enc.AddInt("collisions", m.Stats.Collisions)
		if m.SkippedLines > 0 {
			enc.AddInt("skipped_lines", m.SkippedLines)
		}
		if m.Overflows > 0 {
			enc.AddInt("overflows", m.Overflows)
		}
		return nil
	}))
}

// Failure logs err, adding the kind and line of parse errors.
func Failure(err error) zap.Field {
	return zap.Object("failure", zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
		enc.AddString("error", err.Error())
		var objErr *formats.OBJError
		if errors.As(err, &objErr) {
			enc.AddString("kind", objErr.Kind.String())
			if objErr.Line > 0 {
				enc.AddInt("line", objErr.Line)
			}
		}
		return nil
	}))
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Named("").Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Named("").Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Named("").Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Named("").Error(msg, fields...)
}
