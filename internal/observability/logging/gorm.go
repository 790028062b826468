package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's output through slog. Statements are tagged with
// the store module so they can be told apart from scheduler logs.
type GormLogger struct {
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger maps a slog level onto gorm's: debug logs every statement,
// info and warn keep slow queries and errors, error keeps errors only.
func NewGormLogger(slowThreshold time.Duration, level slog.Level) *GormLogger {
	l := &GormLogger{slowThreshold: slowThreshold}

	switch {
	case level <= slog.LevelDebug:
		l.level = gormlogger.Info
	case level < slog.LevelError:
		l.level = gormlogger.Warn
	default:
		l.level = gormlogger.Error
	}

	return l
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level

	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, gormlogger.Info, slog.LevelInfo, msg, args...)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, gormlogger.Warn, slog.LevelWarn, msg, args...)
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, gormlogger.Error, slog.LevelError, msg, args...)
}

func (l *GormLogger) log(ctx context.Context, min gormlogger.LogLevel, level slog.Level, msg string, args ...any) {
	if l.level < min {
		return
	}

	slog.Default().Log(storeContext(ctx), level, fmt.Sprintf(msg, args...),
		slog.String("event", "store.log"),
	)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	ctx = storeContext(ctx)
	elapsed := time.Since(begin)

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		slog.ErrorContext(ctx, "store query failed",
			slog.String("event", "store.query.fail"),
			slog.String("error", err.Error()),
			slog.Duration("duration", elapsed),
			slog.String("sql", sql),
			slog.Int64("rows", rows),
		)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		slog.WarnContext(ctx, "slow store query",
			slog.String("event", "store.query.slow"),
			slog.Duration("duration", elapsed),
			slog.Duration("threshold", l.slowThreshold),
			slog.String("sql", sql),
			slog.Int64("rows", rows),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		slog.DebugContext(ctx, "store query",
			slog.String("event", "store.query"),
			slog.Duration("duration", elapsed),
			slog.String("sql", sql),
			slog.Int64("rows", rows),
		)
	}
}

func storeContext(ctx context.Context) context.Context {
	if ModuleFromContext(ctx) != "" {
		return ctx
	}

	return WithModule(ctx, ModuleStore)
}
