package geo

import (
	"fmt"
	"log"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// defaultPaths are the conventional MaxMind database locations probed
// when no path is configured.
var defaultPaths = []string{
	"/usr/share/GeoIP/GeoLite2-City.mmdb",
	"/var/lib/GeoIP/GeoLite2-City.mmdb",
}

// Locator resolves IP addresses to a human-readable location. The
// database is optional; a Locator without one answers every lookup
// with an empty string and is always safe to call.
type Locator struct {
	db *geoip2.Reader
}

// NewLocator opens the GeoIP database at path, falling back to the
// conventional locations when path is empty. A missing database is
// not an error.
func NewLocator(path string) *Locator {
	candidates := defaultPaths
	if path != "" {
		candidates = []string{path}
	}

	for _, p := range candidates {
		db, err := geoip2.Open(p)
		if err == nil {
			log.Printf("[GEO] Using GeoIP database %s", p)
			return &Locator{db: db}
		}
	}

	log.Printf("[GEO] No GeoIP database found, geolocation disabled")
	return &Locator{}
}

// Close releases the database handle
func (l *Locator) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// LocationString returns "City, Country (CC)" for the address, or ""
// when the database is absent, the address is private, or the lookup
// fails.
func (l *Locator) LocationString(ip string) string {
	if l.db == nil {
		return ""
	}

	addr := net.ParseIP(ip)
	if addr == nil || addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() {
		return ""
	}

	record, err := l.db.City(addr)
	if err != nil {
		return ""
	}

	city := record.City.Names["en"]
	country := record.Country.Names["en"]
	code := record.Country.IsoCode

	switch {
	case city != "" && country != "":
		return fmt.Sprintf("%s, %s (%s)", city, country, code)
	case country != "":
		return fmt.Sprintf("%s (%s)", country, code)
	default:
		return ""
	}
}
