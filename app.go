package main

import (
	"context"
	"fmt"
	"time"

	"resumetracker/internal/clredis"
	"resumetracker/internal/models/clanalytics"
	"resumetracker/internal/models/clconfig"
	"resumetracker/internal/models/clgeo"
	"resumetracker/internal/models/clsink"
	"resumetracker/internal/models/cltracker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// application regroupe les composants construits au démarrage
type application struct {
	conf          *clconfig.Config
	sheetsEnabled bool
	tracker       *cltracker.Tracker
	analytics     *clanalytics.AnalyticsService
	closers       []func() error
}

func newApplication(ctx context.Context, conf *clconfig.Config) (*application, error) {
	app := &application{conf: conf}

	locator, err := app.newLocator()
	if err != nil {
		app.Close()
		return nil, err
	}

	primary, reader := app.newPrimarySink(ctx)
	sink := primary
	if conf.Archive.Enabled {
		archive, err := clsink.OpenArchive(conf.Archive, conf.Logger.Level)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, archive.Close)

		retention, err := clanalytics.ScheduleRetention(archive, conf.Archive.RetentionDays)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() error {
			<-retention.Stop().Done()
			return nil
		})
		sink = clsink.NewMulti(primary, archive)
	}

	opts := []cltracker.Option{}
	var daily clanalytics.DailyReader
	if conf.Redis.Addr != "" {
		counters := app.newCounters(ctx)
		opts = append(opts, cltracker.WithCounters(counters))
		daily = counters
	}

	app.tracker = cltracker.New(locator, sink, opts...)
	app.analytics = clanalytics.NewAnalyticsService(reader, daily)
	log.Info().Str("sink", app.tracker.SinkName()).Bool("sheets", app.sheetsEnabled).Msg("Tracker ready")
	return app, nil
}

func (app *application) newLocator() (clgeo.Locator, error) {
	geo := app.conf.Geo
	if geo.Provider == "maxmind" {
		mm, err := clgeo.OpenMaxMind(geo.CityDB, geo.ASNDB)
		if err != nil {
			return nil, fmt.Errorf("maxmind: %w", err)
		}
		app.closers = append(app.closers, mm.Close)
		return mm, nil
	}
	return clgeo.NewIPAPI(geo.URL, geo.Timeout), nil
}

// newPrimarySink retourne Sheets quand les credentials sont valides, la console sinon
func (app *application) newPrimarySink(ctx context.Context) (clsink.Sink, clsink.Reader) {
	conf := app.conf
	if conf.Development() {
		return clsink.NewConsole(log.Logger), nil
	}

	s := conf.Sheets
	sheets, err := clsink.NewSheets(ctx, []byte(conf.SheetsCredentials()), s.SheetID, s.AppendRange, s.ReadRange)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize Google Sheets, falling back to development mode")
		return clsink.NewConsole(log.Logger), nil
	}

	app.sheetsEnabled = true
	return sheets, sheets
}

func (app *application) newCounters(ctx context.Context) *clredis.Counters {
	client := redis.NewClient(&redis.Options{
		Addr: app.conf.Redis.Addr,
		DB:   app.conf.Redis.Db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", app.conf.Redis.Addr).Msg("Redis unreachable, counters will be retried on each visit")
	}

	counters := clredis.New(client)
	app.closers = append(app.closers, counters.Close)
	return counters
}

// Close libère les ressources dans l'ordre inverse de leur création
func (app *application) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			log.Warn().Err(err).Msg("Close failed")
		}
	}
	app.closers = nil
}
