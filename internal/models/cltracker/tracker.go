// Package cltracker enchaîne l'extraction des signaux, l'inférence de l'email,
// la géolocalisation et l'écriture de la ligne pour chaque visite.
package cltracker

import (
	"context"
	"net/http"
	"time"

	"resumetracker/internal/models/clemail"
	"resumetracker/internal/models/clgeo"
	"resumetracker/internal/models/clsignals"
	"resumetracker/internal/models/clsink"
	"resumetracker/internal/models/clvisit"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Counter reçoit un événement par visite, en best effort
type Counter interface {
	Record(ctx context.Context, day, ip string, emailDetected, bot bool) error
}

type Tracker struct {
	locator  clgeo.Locator
	sink     clsink.Sink
	counters Counter
	now      func() time.Time
	logger   zerolog.Logger
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

func WithCounters(c Counter) Option {
	return func(t *Tracker) {
		t.counters = c
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func New(locator clgeo.Locator, sink clsink.Sink, opts ...Option) *Tracker {
	t := &Tracker{
		locator: locator,
		sink:    sink,
		now:     time.Now,
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SinkName retourne le nom du sink branché
func (t *Tracker) SinkName() string {
	if t.sink == nil {
		return ""
	}
	return t.sink.Name()
}

// Track construit la visite et l'écrit. Les erreurs de géolocalisation,
// de sink et de compteurs sont loggées, la visite est toujours retournée.
func (t *Tracker) Track(ctx context.Context, r *http.Request, provided *clemail.Provided) clvisit.Record {
	start := t.now()

	signals := clsignals.Extract(r)
	detection := clemail.Detect(provided, r.URL.Query(), signals.Referrer)

	rec := clvisit.Record{
		Timestamp:   start,
		IP:          signals.IP,
		Email:       detection.Email,
		EmailDomain: clemail.Domain(detection.Email),
		Company:     clemail.Company(detection.Email),
		EmailSource: detection.Source,
		Browser:     signals.Agent.Browser,
		OS:          signals.Agent.OS,
		Device:      signals.Agent.Device,
		DeviceType:  signals.Agent.DeviceType(),
		VisitorType: signals.Agent.VisitorType(),
		Language:    signals.Language,
		Encoding:    signals.Encoding,
		Referrer:    signals.ReferrerOrDirect(),
		UserAgent:   signals.Agent.Raw,
	}

	// la visite est écrite même si le client a coupé la connexion,
	// seul le délai de géolocalisation s'applique
	ctx = context.WithoutCancel(ctx)

	rec.Geo = t.locate(ctx, signals.IP)
	rec.Duration = t.now().Sub(start)

	if t.sink != nil {
		if err := t.sink.Append(ctx, rec); err != nil {
			t.logger.Error().Err(err).Str("sink", t.sink.Name()).Str("ip", rec.IP).Msg("Failed to append visit")
		}
	}

	if t.counters != nil {
		err := t.counters.Record(ctx, rec.Date(), rec.IP, detection.Found(), signals.Agent.Bot)
		if err != nil {
			t.logger.Warn().Err(err).Msg("Failed to update realtime counters")
		}
	}

	t.logger.Info().
		Str("ip", rec.IP).
		Str("email", rec.EmailOrNotDetected()).
		Str("company", rec.Company).
		Str("source", rec.EmailSource).
		Str("location", rec.Geo.City+", "+rec.Geo.Country).
		Str("visitor", rec.VisitorType).
		Dur("duration", rec.Duration).
		Msg("Logged visitor")

	return rec
}

func (t *Tracker) locate(ctx context.Context, ip string) clgeo.Location {
	if t.locator == nil {
		return clgeo.UnknownLocation()
	}
	loc, err := t.locator.Locate(ctx, ip)
	if err != nil {
		t.logger.Warn().Err(err).Str("ip", ip).Msg("Geolocation lookup failed")
		return clgeo.UnknownLocation()
	}
	return loc
}
