// Package log — общий логгер утилиты поверх zap.
// По умолчанию пишет в stderr; TREEGEN_LOG_FILE перенаправляет вывод в файл.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logFileEnvKey = "TREEGEN_LOG_FILE"

var (
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	base        *zap.Logger
	sugar       *zap.SugaredLogger
)

func init() {
	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	cfg.EncoderConfig.CallerKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true

	if logFile := os.Getenv(logFileEnvKey); logFile != "" {
		cfg.OutputPaths = []string{logFile}
		cfg.ErrorOutputPaths = []string{logFile}
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("не удалось создать логгер: %v", err))
	}
	base = logger
	sugar = base.Sugar()
}

// SetLevel меняет уровень на лету.
func SetLevel(l zapcore.Level) {
	atomicLevel.SetLevel(l)
}

// SetVerbosity: verbose — отладка, quiet — только предупреждения и ошибки.
func SetVerbosity(verbose, quiet bool) {
	switch {
	case quiet:
		SetLevel(zapcore.WarnLevel)
	case verbose:
		SetLevel(zapcore.DebugLevel)
	default:
		SetLevel(zapcore.InfoLevel)
	}
}

// ReplaceCore подменяет ядро логгера и возвращает функцию, которая
// возвращает прежний логгер.
func ReplaceCore(core zapcore.Core) func() {
	prevBase, prevSugar := base, sugar
	base = zap.New(core)
	sugar = base.Sugar()
	return func() { base, sugar = prevBase, prevSugar }
}

func Sync() {
	_ = base.Sync()
}

func Debug(format string, args ...any) {
	sugar.Debugf(format, args...)
}

func Info(format string, args ...any) {
	sugar.Infof(format, args...)
}

func Warn(format string, args ...any) {
	sugar.Warnf(format, args...)
}

func Error(format string, args ...any) {
	sugar.Errorf(format, args...)
}
