// Package geoip provides MMDB-based IP geolocation for visitor analytics.
// Works with any GeoIP2-format database (MaxMind GeoLite2, DB-IP Lite).
// A missing database file disables lookups rather than failing startup.
package geoip

import (
	"net"
	"os"

	"github.com/oschwald/geoip2-golang"
)

// GeoData contains geolocation information for an IP address
type GeoData struct {
	CountryCode string `json:"country_code,omitempty"`
	CountryName string `json:"country_name,omitempty"`
	City        string `json:"city,omitempty"`
}

// Reader provides IP geolocation lookups using an MMDB database
type Reader struct {
	db *geoip2.Reader
}

// NewReader creates a new GeoIP reader from an MMDB file.
// Returns nil, nil if no path is given or the file doesn't exist.
func NewReader(mmdbPath string) (*Reader, error) {
	if mmdbPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(mmdbPath); os.IsNotExist(err) {
		return nil, nil
	}

	db, err := geoip2.Open(mmdbPath)
	if err != nil {
		return nil, err
	}

	return &Reader{db: db}, nil
}

// Close releases the underlying database handle.
func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Lookup performs a geolocation lookup for the given IP address.
// Returns nil for invalid, private, or unknown addresses, and when no
// database is loaded.
func (r *Reader) Lookup(ipStr string) *GeoData {
	if r == nil || r.db == nil {
		return nil
	}

	// Accept "ip:port" by stripping the port.
	host, _, err := net.SplitHostPort(ipStr)
	if err != nil {
		host = ipStr
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}
	if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() {
		return nil
	}

	record, err := r.db.City(ip)
	if err != nil {
		return nil
	}

	data := &GeoData{
		CountryCode: record.Country.IsoCode,
		CountryName: record.Country.Names["en"],
		City:        record.City.Names["en"],
	}
	if data.CountryCode == "" && data.City == "" {
		return nil
	}
	return data
}
