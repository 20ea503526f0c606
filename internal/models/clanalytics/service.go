package clanalytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resumetracker/internal/clredis"
	"resumetracker/internal/models/clsink"
	"resumetracker/internal/models/clvisit"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// ErrNoCounters est retourné quand Redis n'est pas configuré
var ErrNoCounters = errors.New("realtime counters disabled")

// DailyReader lit les compteurs d'une journée
type DailyReader interface {
	Day(ctx context.Context, day string) (clredis.Daily, error)
}

// Purger supprime les visites archivées trop anciennes
type Purger interface {
	Purge(before time.Time) (int64, error)
}

type AnalyticsService struct {
	reader   clsink.Reader
	counters DailyReader
	now      func() time.Time
}

func NewAnalyticsService(reader clsink.Reader, counters DailyReader) *AnalyticsService {
	return &AnalyticsService{
		reader:   reader,
		counters: counters,
		now:      time.Now,
	}
}

// WithClock remplace l'horloge, pour les tests
func (as *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	as.now = now
	return as
}

func (as *AnalyticsService) lastUpdate() string {
	return as.now().UTC().Format(clvisit.TimestampLayout)
}

// GetStats relit la feuille et calcule les totaux
func (as *AnalyticsService) GetStats(ctx context.Context) (*Stats, error) {
	if as.reader == nil {
		return nil, errors.New("no sheet reader")
	}
	rows, err := as.reader.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("error reading rows: %w", err)
	}

	total, detected, rate := Summarize(rows)
	return &Stats{
		Mode:               "production",
		TotalViews:         total,
		EmailsDetected:     detected,
		EmailDetectionRate: rate,
		LastUpdate:         as.lastUpdate(),
	}, nil
}

// GetDevStats retourne les valeurs de remplacement du mode développement
func (as *AnalyticsService) GetDevStats() *DevStats {
	return &DevStats{
		Mode:               "development",
		TotalViews:         DevModePlaceholder,
		EmailsDetected:     DevModePlaceholder,
		EmailDetectionRate: DevModePlaceholder,
		Message:            DevModeMessage,
		LastUpdate:         as.lastUpdate(),
	}
}

// GetRealtimeStats récupère les compteurs du jour depuis Redis
func (as *AnalyticsService) GetRealtimeStats(ctx context.Context) (clredis.Daily, error) {
	if as.counters == nil {
		return clredis.Daily{}, ErrNoCounters
	}
	return as.counters.Day(ctx, as.now().UTC().Format(clvisit.DateLayout))
}

func cleanupOldVisits(purger Purger, days int, now time.Time) error {
	before := now.AddDate(0, 0, -days)
	deleted, err := purger.Purge(before)
	if err != nil {
		return err
	}
	log.Info().Int64("deleted", deleted).Time("before", before).Msg("Deleted old archived visits")
	return nil
}

// ScheduleRetention purge l'archive tous les jours à 2h du matin
func ScheduleRetention(purger Purger, days int) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc("0 2 * * *", func() {
		if err := cleanupOldVisits(purger, days, time.Now()); err != nil {
			log.Error().Err(err).Msg("Cleanup failed")
		} else {
			log.Info().Msg("Cleanup completed successfully")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("retention cron: %w", err)
	}

	c.Start()
	return c, nil
}
