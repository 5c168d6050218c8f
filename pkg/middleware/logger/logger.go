package logger

import (
	"context"
	"os"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ServiceEnv struct {
	Platform string
	Service  string
	Env      string
}

type LogConfig struct {
	Path       string
	LogLevel   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	ServiceEnv ServiceEnv
}

var (
	log   = otelzap.New(zap.NewNop())
	sugar = log.Sugar()
	sink  *lumberjack.Logger
)

func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Init replaces the package logger. Output goes to stdout and, when Path is
// set, to a size-rotated file.
func Init(conf *LogConfig) {
	level := zap.NewAtomicLevelAt(parseLevel(conf.LogLevel))
	encConf := zap.NewProductionEncoderConfig()
	encConf.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encConf), zapcore.Lock(os.Stdout), level),
	}
	if conf.Path != "" {
		sink = &lumberjack.Logger{
			Filename:   conf.Path,
			MaxSize:    withDefault(conf.MaxSizeMB, 100),
			MaxBackups: withDefault(conf.MaxBackups, 5),
			MaxAge:     withDefault(conf.MaxAgeDays, 30),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encConf), zapcore.AddSync(sink), level))
	}

	base := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1)).With(
		zap.String("platform", conf.ServiceEnv.Platform),
		zap.String("service", conf.ServiceEnv.Service),
		zap.String("env", conf.ServiceEnv.Env),
	)
	log = otelzap.New(base, otelzap.WithMinLevel(level.Level()))
	sugar = log.Sugar()
}

func withDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

func Close() {
	_ = log.Sync()
	if sink != nil {
		_ = sink.Close()
	}
}

func Debugf(ctx context.Context, format string, args ...any) {
	sugar.Ctx(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...any) {
	sugar.Ctx(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...any) {
	sugar.Ctx(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...any) {
	sugar.Ctx(ctx).Errorf(format, args...)
}

func Fatalf(ctx context.Context, format string, args ...any) {
	sugar.Ctx(ctx).Fatalf(format, args...)
}
