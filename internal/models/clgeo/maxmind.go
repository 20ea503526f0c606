package clgeo

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/oschwald/geoip2-golang/v2"
)

// MaxMind résout les IP avec les bases GeoLite2 City et ASN locales
type MaxMind struct {
	cityDB *geoip2.Reader
	asnDB  *geoip2.Reader
}

// OpenMaxMind ouvre les bases, la base ASN est optionnelle
func OpenMaxMind(cityPath, asnPath string) (*MaxMind, error) {
	cityDB, err := geoip2.Open(cityPath)
	if err != nil {
		return nil, fmt.Errorf("open city db %s: %w", cityPath, err)
	}

	m := &MaxMind{cityDB: cityDB}
	if asnPath != "" {
		asnDB, err := geoip2.Open(asnPath)
		if err != nil {
			cityDB.Close()
			return nil, fmt.Errorf("open asn db %s: %w", asnPath, err)
		}
		m.asnDB = asnDB
	}
	return m, nil
}

func (m *MaxMind) Locate(_ context.Context, ip string) (Location, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return UnknownLocation(), fmt.Errorf("invalid ip %q: %w", ip, err)
	}

	rec, err := m.cityDB.City(addr.Unmap())
	if err != nil {
		return UnknownLocation(), fmt.Errorf("city lookup: %w", err)
	}
	loc, found := fromCity(rec)

	if m.asnDB != nil {
		asn, err := m.asnDB.ASN(addr.Unmap())
		if err == nil && applyASN(&loc, asn) {
			found = true
		}
	}

	if !found {
		return UnknownLocation(), ErrNoData
	}
	return loc, nil
}

// fromCity copie un enregistrement City, false si l'IP est absente de la base
func fromCity(rec *geoip2.City) (Location, bool) {
	loc := UnknownLocation()
	if rec == nil || rec.Country.ISOCode == "" {
		return loc, false
	}

	loc.CountryCode = rec.Country.ISOCode
	loc.Country = orUnknown(rec.Country.Names.English)
	if len(rec.Subdivisions) > 0 {
		loc.Region = orUnknown(rec.Subdivisions[0].Names.English)
	}
	loc.City = orUnknown(rec.City.Names.English)
	loc.Postal = orUnknown(rec.Postal.Code)
	loc.Timezone = orUnknown(rec.Location.TimeZone)
	loc.Latitude = rec.Location.Latitude
	loc.Longitude = rec.Location.Longitude
	return loc, true
}

func applyASN(loc *Location, asn *geoip2.ASN) bool {
	if asn == nil || asn.AutonomousSystemNumber == 0 {
		return false
	}
	loc.ASN = fmt.Sprintf("AS%d", asn.AutonomousSystemNumber)
	loc.Org = orUnknown(asn.AutonomousSystemOrganization)
	return true
}

func (m *MaxMind) Close() error {
	var errs []error
	if m.cityDB != nil {
		errs = append(errs, m.cityDB.Close())
	}
	if m.asnDB != nil {
		errs = append(errs, m.asnDB.Close())
	}
	return errors.Join(errs...)
}
