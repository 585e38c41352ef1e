package util

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

// GeoLocator resolves client IPs to "City/Country" using a local GeoIP2 /
// GeoLite2 database, with an in-memory cache in front of it.
type GeoLocator struct {
	reader *geoip2.Reader
	cache  *cache.Cache
	hits   int64
	misses int64
}

// NewGeoLocator opens the MMDB file at dbPath. An empty path yields a locator
// that resolves nothing, so callers never need a nil check.
func NewGeoLocator(dbPath string) (*GeoLocator, error) {
	// Cache entries for 24h, purge every hour
	g := &GeoLocator{cache: cache.New(24*time.Hour, time.Hour)}
	if dbPath == "" {
		return g, nil
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	g.reader = r
	return g, nil
}

// Close releases the database.
func (g *GeoLocator) Close() {
	if g == nil || g.reader == nil {
		return
	}
	_ = g.reader.Close()
	g.reader = nil
}

// Locate returns "City/Country", "Country", "City" or "" when unknown.
// Private, loopback and unparsable addresses are never looked up.
func (g *GeoLocator) Locate(ip string) string {
	if g == nil {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() || parsed.IsLinkLocalUnicast() {
		return ""
	}

	if v, ok := g.cache.Get(ip); ok {
		atomic.AddInt64(&g.hits, 1)
		if s, ok := v.(string); ok {
			return s
		}
	}
	atomic.AddInt64(&g.misses, 1)

	if g.reader == nil {
		return ""
	}
	rec, err := g.reader.City(parsed)
	if err != nil {
		Log().Debug("geoip lookup failed")
		return ""
	}

	city := rec.City.Names["en"]
	country := rec.Country.Names["en"]
	if country == "" {
		country = rec.Country.IsoCode
	}

	var location string
	switch {
	case city != "" && country != "":
		location = city + "/" + country
	case country != "":
		location = country
	default:
		location = city
	}
	g.cache.Set(ip, location, cache.DefaultExpiration)
	return location
}

// CacheMetrics returns cache hits, misses and current size.
func (g *GeoLocator) CacheMetrics() (hits int64, misses int64, size int) {
	return atomic.LoadInt64(&g.hits), atomic.LoadInt64(&g.misses), g.cache.ItemCount()
}
