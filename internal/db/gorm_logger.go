package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetings/boardroom/internal/logging"
	"meetings/boardroom/internal/metrics"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger routes gorm's logging through zap and records query timings.
type GormLogger struct {
	level   gormlogger.LogLevel
	metrics *metrics.MetricsRegistry
}

var _ gormlogger.Interface = (*GormLogger)(nil)

func NewGormLogger(metricsReg *metrics.MetricsRegistry) *GormLogger {
	return &GormLogger{level: gormlogger.Warn, metrics: metricsReg}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logging.Info(fmt.Sprintf(msg, args...), "component", "gorm")
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logging.Warn(fmt.Sprintf(msg, args...), "component", "gorm")
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logging.Error(fmt.Sprintf(msg, args...), "component", "gorm")
	}
}

func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	queryType := queryTypeOf(sql)

	if l.metrics != nil {
		l.metrics.DBQueriesTotal.WithLabelValues(queryType).Inc()
		l.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(elapsed.Seconds())
	}

	switch {
	case err != nil && l.level >= gormlogger.Error &&
		!errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey):
		logging.Error("Query failed", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds(), "error", err.Error())
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		logging.Warn("Slow query", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	case l.level >= gormlogger.Info:
		logging.Debug("Query", "sql", sql, "rows", rows, "duration_ms", elapsed.Milliseconds())
	}
}

func queryTypeOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
