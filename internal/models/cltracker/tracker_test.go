package cltracker

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"resumetracker/internal/models/clemail"
	"resumetracker/internal/models/clgeo"
	"resumetracker/internal/models/clvisit"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type fakeLocator struct {
	loc   clgeo.Location
	err   error
	gotIP string
}

func (f *fakeLocator) Locate(_ context.Context, ip string) (clgeo.Location, error) {
	f.gotIP = ip
	return f.loc, f.err
}

// slowLocator attend le délai du contexte comme le ferait ipapi
type slowLocator struct {
	timeout time.Duration
}

func (s slowLocator) Locate(ctx context.Context, _ string) (clgeo.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	<-ctx.Done()
	return clgeo.UnknownLocation(), ctx.Err()
}

type recordingSink struct {
	records []clvisit.Record
	ctxErrs []error
	err     error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Append(ctx context.Context, rec clvisit.Record) error {
	s.records = append(s.records, rec)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return s.err
}

type recordingCounter struct {
	day      string
	ip       string
	detected bool
	bot      bool
	ctxErr   error
	err      error
}

func (c *recordingCounter) Record(ctx context.Context, day, ip string, emailDetected, bot bool) error {
	c.day, c.ip, c.detected, c.bot = day, ip, emailDetected, bot
	c.ctxErr = ctx.Err()
	return c.err
}

// ctxLocator retourne une localisation seulement si le contexte est actif
type ctxLocator struct{}

func (ctxLocator) Locate(ctx context.Context, _ string) (clgeo.Location, error) {
	if err := ctx.Err(); err != nil {
		return clgeo.UnknownLocation(), err
	}
	return paris(), nil
}

func paris() clgeo.Location {
	loc := clgeo.UnknownLocation()
	loc.City = "Paris"
	loc.Country = "France"
	loc.CountryCode = "FR"
	return loc
}

func newTestTracker(locator clgeo.Locator, sink *recordingSink, opts ...Option) *Tracker {
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	return New(locator, sink, opts...)
}

func TestTrackAutoDetectedEmail(t *testing.T) {
	locator := &fakeLocator{loc: paris()}
	sink := &recordingSink{}
	counter := &recordingCounter{}
	now := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	tr := newTestTracker(locator, sink, WithCounters(counter), WithClock(func() time.Time { return now }))

	req := httptest.NewRequest("GET", "/track?email=jane@acme-corp.io", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	req.Header.Set("User-Agent", chromeUA)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")

	rec := tr.Track(context.Background(), req, nil)

	assert.Equal(t, "1.2.3.4", rec.IP)
	assert.Equal(t, "1.2.3.4", locator.gotIP)
	assert.Equal(t, "jane@acme-corp.io", rec.Email)
	assert.Equal(t, "acme-corp.io", rec.EmailDomain)
	assert.Equal(t, "Acme Corp", rec.Company)
	assert.Equal(t, clemail.SourceAutoDetected, rec.EmailSource)
	assert.Equal(t, "Paris", rec.Geo.City)
	assert.Equal(t, "Human", rec.VisitorType)
	assert.Equal(t, "Direct", rec.Referrer)
	assert.Equal(t, now, rec.Timestamp)

	require.Len(t, sink.records, 1)
	assert.Equal(t, rec, sink.records[0])

	assert.Equal(t, "2024-03-09", counter.day)
	assert.Equal(t, "1.2.3.4", counter.ip)
	assert.True(t, counter.detected)
	assert.False(t, counter.bot)
}

func TestTrackProvidedEmail(t *testing.T) {
	sink := &recordingSink{}
	tr := newTestTracker(&fakeLocator{loc: paris()}, sink)

	req := httptest.NewRequest("GET", "/track-email?email=me@gmail.com&source=newsletter", nil)
	rec := tr.Track(context.Background(), req, clemail.NewProvided("me@gmail.com", "newsletter"))

	assert.Equal(t, "me@gmail.com", rec.Email)
	assert.Equal(t, "newsletter", rec.EmailSource)
	assert.Equal(t, clemail.PersonalEmail, rec.Company)
}

func TestTrackNoEmailBot(t *testing.T) {
	sink := &recordingSink{}
	counter := &recordingCounter{}
	tr := newTestTracker(&fakeLocator{loc: paris()}, sink, WithCounters(counter))

	req := httptest.NewRequest("GET", "/track", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")

	rec := tr.Track(context.Background(), req, nil)

	assert.Empty(t, rec.Email)
	assert.Equal(t, clemail.NotDetected, rec.EmailOrNotDetected())
	assert.Equal(t, clemail.SourceNone, rec.EmailSource)
	assert.Equal(t, clemail.Unknown, rec.Company)
	assert.Equal(t, "Bot", rec.VisitorType)
	assert.True(t, counter.bot)
	assert.False(t, counter.detected)
}

func TestTrackGeoTimeoutKeepsDefaults(t *testing.T) {
	sink := &recordingSink{}
	tr := newTestTracker(slowLocator{timeout: 20 * time.Millisecond}, sink)

	req := httptest.NewRequest("GET", "/track", nil)
	rec := tr.Track(context.Background(), req, nil)

	assert.Equal(t, clgeo.UnknownLocation(), rec.Geo)
	require.Len(t, sink.records, 1)
	assert.Len(t, sink.records[0].Row(), len(clvisit.Columns))
}

func TestTrackGeoError(t *testing.T) {
	sink := &recordingSink{}
	tr := newTestTracker(&fakeLocator{loc: paris(), err: errors.New("rate limited")}, sink)

	rec := tr.Track(context.Background(), httptest.NewRequest("GET", "/track", nil), nil)
	assert.Equal(t, clgeo.UnknownLocation(), rec.Geo)
}

func TestTrackSurvivesSinkAndCounterErrors(t *testing.T) {
	sink := &recordingSink{err: errors.New("quota exceeded")}
	counter := &recordingCounter{err: errors.New("redis down")}
	tr := newTestTracker(nil, sink, WithCounters(counter))

	req := httptest.NewRequest("GET", "/track", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	rec := tr.Track(context.Background(), req, nil)

	assert.Equal(t, "203.0.113.9", rec.IP)
	assert.Equal(t, clgeo.UnknownLocation(), rec.Geo)
	assert.Len(t, sink.records, 1)
	assert.Equal(t, "203.0.113.9", counter.ip)
}

func TestTrackAfterClientDisconnect(t *testing.T) {
	sink := &recordingSink{}
	counter := &recordingCounter{}
	tr := newTestTracker(ctxLocator{}, sink, WithCounters(counter))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest("GET", "/track?email=jane@acme.com", nil).WithContext(ctx)

	rec := tr.Track(ctx, req, nil)

	assert.Equal(t, "Paris", rec.Geo.City)
	require.Len(t, sink.records, 1)
	assert.NoError(t, sink.ctxErrs[0])
	assert.Equal(t, "jane@acme.com", sink.records[0].Email)
	assert.True(t, counter.detected)
	assert.NoError(t, counter.ctxErr)
}

func TestSinkName(t *testing.T) {
	assert.Equal(t, "recording", newTestTracker(nil, &recordingSink{}).SinkName())
	assert.Equal(t, "", New(nil, nil).SinkName())
}
