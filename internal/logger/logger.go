// Package logger builds the structured JSON loggers shared by the server and its tools.
//
// Every line is a single JSON object carrying "ts" (RFC3339Nano in the configured
// time zone), "level" and "msg", followed by the call-site fields.
package logger

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxFileSizeMB  = 100
	maxFileBackups = 5
	maxFileAgeDays = 30
)

// New returns a JSON logger writing to w. Unknown levels fall back to info.
func New(w io.Writer, loc *time.Location, level string) *zap.Logger {
	if loc == nil {
		loc = time.UTC
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		MessageKey:    "msg",
		NameKey:       "component",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.In(loc).Format(time.RFC3339Nano))
		},
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), lvl)
	return zap.New(core)
}

// NewStdout returns a JSON logger writing one object per line to stdout.
func NewStdout(loc *time.Location, level string) *zap.Logger {
	return New(os.Stdout, loc, level)
}

// Open returns a stdout logger that also writes to a size-rotated file when path is set.
func Open(path string, loc *time.Location, level string) *zap.Logger {
	if path == "" {
		return NewStdout(loc, level)
	}
	return New(io.MultiWriter(os.Stdout, newRotatingFile(path)), loc, level)
}

func newRotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxFileSizeMB, // megabytes
		MaxBackups: maxFileBackups,
		MaxAge:     maxFileAgeDays, // days
		Compress:   true,
	}
}
