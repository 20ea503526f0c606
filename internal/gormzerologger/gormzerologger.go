// Package gormzerologger branche les logs gorm de l'archive des visites sur
// le logger zerolog global.
package gormzerologger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// opérations de l'archive, déduites du premier mot de la requête
const (
	OpInsert = "insert"
	OpPurge  = "purge"
	OpSelect = "select"
	OpSchema = "schema"
	OpOther  = "other"
)

type GormZerologger struct {
	Logger                    zerolog.Logger
	LogLevel                  logger.LogLevel
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
	// LogSQL ajoute la requête complète, elle contient les emails des visiteurs
	LogSQL bool
}

// New retourne un logger gorm pour la table d'archive donnée
func New(logLevel, table string) *GormZerologger {
	level := parseGormLogLevel(logLevel)
	return &GormZerologger{
		Logger:                    log.Logger.With().Str("component", "archive").Str("table", table).Logger(),
		LogLevel:                  level,
		SlowThreshold:             200 * time.Millisecond,
		IgnoreRecordNotFoundError: true,
		LogSQL:                    level >= logger.Info,
	}
}

// seules les requêtes en erreur ou lentes sont tracées hors debug
func parseGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug", "trace":
		return logger.Info
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	default:
		return logger.Warn
	}
}

// operation classe une requête de l'archive
func operation(sql string) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(sql), " ")
	switch strings.ToUpper(verb) {
	case "INSERT":
		return OpInsert
	case "DELETE":
		return OpPurge
	case "SELECT", "PRAGMA":
		return OpSelect
	case "CREATE", "ALTER", "DROP":
		return OpSchema
	default:
		return OpOther
	}
}

func (l *GormZerologger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *GormZerologger) Info(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Info {
		l.Logger.Info().Msgf(msg, data...)
	}
}

func (l *GormZerologger) Warn(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Warn {
		l.Logger.Warn().Msgf(msg, data...)
	}
}

func (l *GormZerologger) Error(ctx context.Context, msg string, data ...any) {
	if l.LogLevel >= logger.Error {
		l.Logger.Error().Msgf(msg, data...)
	}
}

func (l *GormZerologger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	op := operation(sql)

	fields := l.Logger.With().
		Str("op", op).
		Int64("elapsed_ms", elapsed.Milliseconds())
	switch op {
	case OpInsert:
		fields = fields.Int64("visits_written", rows)
	case OpPurge:
		fields = fields.Int64("visits_purged", rows)
	default:
		fields = fields.Int64("rows", rows)
	}
	if l.LogSQL {
		fields = fields.Str("sql", sql)
	}
	event := fields.Logger()

	switch {
	case err != nil && l.LogLevel >= logger.Error && (!errors.Is(err, gorm.ErrRecordNotFound) || !l.IgnoreRecordNotFoundError):
		event.Error().Err(err).Msg("Archive query failed")
	case l.SlowThreshold != 0 && elapsed > l.SlowThreshold && l.LogLevel >= logger.Warn:
		event.Warn().Dur("threshold", l.SlowThreshold).Msg("Slow archive query")
	case l.LogLevel >= logger.Info:
		event.Debug().Msg("Archive query")
	}
}
