// Package clgeo résout une IP en localisation, via l'API ipapi.co ou une
// base MaxMind locale.
package clgeo

import (
	"context"
	"errors"
)

const Unknown = "Unknown"

var ErrNoData = errors.New("no geolocation data")

// Location regroupe les champs géographiques d'une visite
type Location struct {
	City        string
	Region      string
	Country     string
	CountryCode string
	Latitude    *float64
	Longitude   *float64
	Postal      string
	Timezone    string
	Org         string
	ASN         string
}

// Locator résout une IP
type Locator interface {
	Locate(ctx context.Context, ip string) (Location, error)
}

// UnknownLocation retourne la localisation par défaut, tout à Unknown
func UnknownLocation() Location {
	return Location{
		City:        Unknown,
		Region:      Unknown,
		Country:     Unknown,
		CountryCode: Unknown,
		Postal:      Unknown,
		Timezone:    Unknown,
		Org:         Unknown,
		ASN:         Unknown,
	}
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
