// Package logger предоставляет единый интерфейс логирования поверх zap.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Logger — интерфейс логгера, которым пользуются все слои приложения.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
	With(keysAndValues ...any) Logger
	Sync()
}

// ZapLogger реализует Logger через zap.SugaredLogger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger создаёт логгер. mode: "prod"/"production" даёт JSON-вывод, иначе development-конфигурация.
func NewZapLogger(mode string, level string) (*ZapLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(level)))
	if err == nil && level != "" {
		cfg.Level = lvl
	}

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return &ZapLogger{sugar: z.Sugar()}, nil
}

// NewNop возвращает логгер, который ничего не пишет. Используется в тестах.
func NewNop() *ZapLogger {
	return &ZapLogger{sugar: zap.NewNop().Sugar()}
}

func (l *ZapLogger) Debugf(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

func (l *ZapLogger) Infof(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

func (l *ZapLogger) Warnf(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

// Errorf пишет сообщение уровня error и прикладывает ошибку отдельным полем.
func (l *ZapLogger) Errorf(err error, format string, args ...any) {
	if err == nil {
		l.sugar.Errorf(format, args...)
		return
	}
	l.sugar.With(zap.Error(err)).Errorf(format, args...)
}

// With возвращает дочерний логгер с дополнительными полями.
func (l *ZapLogger) With(keysAndValues ...any) Logger {
	return &ZapLogger{sugar: l.sugar.With(keysAndValues...)}
}

// Sync сбрасывает буферы; ошибка sync для stdout/stderr игнорируется.
func (l *ZapLogger) Sync() {
	_ = l.sugar.Sync()
}
