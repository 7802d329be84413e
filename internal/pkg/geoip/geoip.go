// Package geoip provides optional GeoLite2 lookups used to fill country and
// city on track payloads when the forwarding headers did not carry them.
package geoip

import (
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Resolver wraps an optional GeoLite2 city database. A nil or unconfigured
// resolver answers every lookup with empty strings.
type Resolver struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
	logger *slog.Logger
}

// NewResolver opens the database at path. A missing or empty path disables
// GeoIP without error: the feature is optional.
func NewResolver(path string, logger *slog.Logger) *Resolver {
	r := &Resolver{logger: logger}
	if path == "" {
		logger.Debug("GeoIP database path not configured, lookups disabled")
		return r
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("GeoLite2 database not found, lookups disabled", slog.String("path", path))
		return r
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		logger.Warn("Failed to open GeoLite2 database, lookups disabled",
			slog.String("path", path), slog.Any("error", err))
		return r
	}

	logger.Info("GeoLite2 database loaded", slog.String("path", path))
	r.reader = reader
	return r
}

// Lookup resolves an IP address to country ISO code and city name. Unknown
// or unparsable addresses yield empty strings.
func (r *Resolver) Lookup(ipAddress string) (country, city string) {
	if r == nil {
		return "", ""
	}

	r.mu.RLock()
	reader := r.reader
	r.mu.RUnlock()
	if reader == nil {
		return "", ""
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return "", ""
	}

	record, err := reader.City(ip)
	if err != nil {
		r.logger.Debug("GeoIP lookup failed", slog.String("ip", ipAddress), slog.Any("error", err))
		return "", ""
	}

	country = record.Country.IsoCode
	if name, ok := record.City.Names["en"]; ok {
		city = name
	}
	return country, city
}

// Close releases the underlying database.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reader != nil {
		r.reader.Close()
		r.reader = nil
	}
}
