package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger emits one JSON line per action: service, action, then free-form
// fields. Errors never panic the process from here.
type Logger struct {
	z *zap.Logger
}

func New(service string) *Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.MessageKey = "action"
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(os.Stdout),
		zap.NewAtomicLevelAt(zapcore.DebugLevel),
	)
	host, _ := os.Hostname()
	z := zap.New(core).With(
		zap.String("service", service),
		zap.String("hostname", host),
	)
	return &Logger{z: z}
}

func toZap(fields map[string]any) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (l *Logger) Info(action string, fields map[string]any) {
	l.z.Info(action, toZap(fields)...)
}

func (l *Logger) Debug(action string, fields map[string]any) {
	l.z.Debug(action, toZap(fields)...)
}

func (l *Logger) Error(action string, err error, fields map[string]any) {
	fs := toZap(fields)
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	l.z.Error(action, fs...)
}

func (l *Logger) Sync() { _ = l.z.Sync() }
