package clvisit

import (
	"fmt"
	"time"

	"resumetracker/internal/models/clgeo"
)

const (
	TimestampLayout = "2006-01-02T15:04:05.000Z"
	DateLayout      = "2006-01-02"
	TimeLayout      = "3:04:05 PM"
)

// Columns est l'en-tête de la feuille, dans l'ordre des colonnes A..AB
var Columns = []string{
	"Timestamp", "Date", "Time", "IP Address",
	"Email Address", "Email Domain", "Company", "Email Source",
	"City", "Region", "Country", "Country Code",
	"Latitude", "Longitude", "Postal Code", "Timezone",
	"Organization", "ASN",
	"Browser", "Operating System", "Device", "Device Type", "Visitor Type",
	"Language", "Accept Encoding", "Referrer", "User Agent", "Processing Time",
}

// EmailColumn est l'index de la colonne email
const EmailColumn = 4

// Record décrit une visite, construite une fois puis écrite dans le sink
type Record struct {
	Timestamp   time.Time
	IP          string
	Email       string
	EmailDomain string
	Company     string
	EmailSource string
	Geo         clgeo.Location
	Browser     string
	OS          string
	Device      string
	DeviceType  string
	VisitorType string
	Language    string
	Encoding    string
	Referrer    string
	UserAgent   string
	Duration    time.Duration
}

// EmailOrNotDetected retourne la valeur de la colonne email
func (r Record) EmailOrNotDetected() string {
	if r.Email == "" {
		return "Not Detected"
	}
	return r.Email
}

func (r Record) Date() string {
	return r.Timestamp.UTC().Format(DateLayout)
}

func (r Record) ProcessingTime() string {
	return fmt.Sprintf("%dms", r.Duration.Milliseconds())
}

// Row sérialise la visite dans l'ordre de Columns
func (r Record) Row() []any {
	return []any{
		r.Timestamp.UTC().Format(TimestampLayout),
		r.Date(),
		r.Timestamp.Format(TimeLayout),
		r.IP,
		r.EmailOrNotDetected(),
		r.EmailDomain,
		r.Company,
		r.EmailSource,
		r.Geo.City,
		r.Geo.Region,
		r.Geo.Country,
		r.Geo.CountryCode,
		coordinate(r.Geo.Latitude),
		coordinate(r.Geo.Longitude),
		r.Geo.Postal,
		r.Geo.Timezone,
		r.Geo.Org,
		r.Geo.ASN,
		r.Browser,
		r.OS,
		r.Device,
		r.DeviceType,
		r.VisitorType,
		r.Language,
		r.Encoding,
		r.Referrer,
		r.UserAgent,
		r.ProcessingTime(),
	}
}

// une coordonnée absente reste une cellule vide
func coordinate(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
