package geoip

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

const cacheSize = 4096

type countryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Close() error
}

// Resolver maps client addresses to ISO country codes using a MaxMind
// database. Answers are memoised per address in a bounded LRU.
type Resolver struct {
	reader countryReader
	cache  *lru.Cache[netip.Addr, string]
}

// NewResolver opens the GeoIP database at path. An empty path yields a nil
// resolver, which answers every lookup with ErrUnavailable.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return newResolver(reader)
}

func newResolver(reader countryReader) (*Resolver, error) {
	cache, err := lru.New[netip.Addr, string](cacheSize)
	if err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("geoip: cache: %w", err)
	}
	return &Resolver{reader: reader, cache: cache}, nil
}

// CountryCode returns the ISO country code for ip. Addresses that never
// route publicly resolve to "" without touching the database.
func (r *Resolver) CountryCode(ip string) (string, error) {
	if r == nil || r.reader == nil {
		return "", ErrUnavailable
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("geoip: invalid ip %q", ip)
	}
	addr = addr.Unmap().WithZone("")
	if !routable(addr) {
		return "", nil
	}
	if code, ok := r.cache.Get(addr); ok {
		return code, nil
	}
	record, err := r.reader.Country(net.IP(addr.AsSlice()))
	if err != nil {
		return "", fmt.Errorf("geoip: lookup country: %w", err)
	}
	code := ""
	if record != nil {
		code = record.Country.IsoCode
	}
	r.cache.Add(addr, code)
	return code, nil
}

func routable(addr netip.Addr) bool {
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsMulticast())
}

// Lookup returns CountryCode as a plain function, or nil when r is nil so
// callers can skip IP lookups entirely.
func (r *Resolver) Lookup() func(ip string) (string, error) {
	if r == nil {
		return nil
	}
	return r.CountryCode
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
