package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the process-wide logger. It is a no-op until Init runs so
// packages can log from tests without setup.
var Logger = zap.NewNop()

// Init builds the global logger: JSON production output when ENV is
// "production", colored development output otherwise.
func Init(env string, debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if env == "production" {
		cfg := zap.NewProductionConfig()
		if debug {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err = cfg.Build()
	} else {
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return err
	}
	Logger = l
	zap.ReplaceGlobals(l)
	return nil
}

// Sync flushes buffered entries. Errors from syncing a terminal are
// ignored.
func Sync() {
	_ = Logger.Sync()
}

func Info(msg string, fields ...zapcore.Field)  { Logger.Info(msg, fields...) }
func Warn(msg string, fields ...zapcore.Field)  { Logger.Warn(msg, fields...) }
func Error(msg string, fields ...zapcore.Field) { Logger.Error(msg, fields...) }
func Debug(msg string, fields ...zapcore.Field) { Logger.Debug(msg, fields...) }
func Fatal(msg string, fields ...zapcore.Field) { Logger.Fatal(msg, fields...) }
