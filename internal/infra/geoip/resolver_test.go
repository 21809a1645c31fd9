package geoip

import (
	"errors"
	"net"
	"path/filepath"
	"testing"

	"github.com/oschwald/geoip2-golang"
)

func TestNewResolverEmptyPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil || r != nil {
		t.Fatalf("NewResolver(empty) = %v, %v; want nil, nil", r, err)
	}
	if _, err := r.CountryCode("203.0.113.1"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("CountryCode on nil resolver err = %v", err)
	}
	if r.Lookup() != nil {
		t.Fatal("Lookup on nil resolver should be nil")
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close on nil resolver: %v", err)
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Fatal("expected error for missing database")
	}
}

type fakeReader struct {
	calls int
	codes map[string]string
	err   error
}

func (f *fakeReader) Country(ip net.IP) (*geoip2.Country, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rec := &geoip2.Country{}
	rec.Country.IsoCode = f.codes[ip.String()]
	return rec, nil
}

func (f *fakeReader) Close() error { return nil }

func TestCountryCodeCachesLookups(t *testing.T) {
	fake := &fakeReader{codes: map[string]string{"203.0.113.7": "ID"}}
	r, err := newResolver(fake)
	if err != nil {
		t.Fatal(err)
	}
	for _, ip := range []string{"203.0.113.7", " 203.0.113.7 ", "::ffff:203.0.113.7"} {
		code, err := r.CountryCode(ip)
		if err != nil || code != "ID" {
			t.Fatalf("CountryCode(%q) = %q, %v", ip, code, err)
		}
	}
	if fake.calls != 1 {
		t.Fatalf("reader calls = %d, want 1", fake.calls)
	}
}

func TestCountryCodeSkipsNonRoutable(t *testing.T) {
	fake := &fakeReader{}
	r, _ := newResolver(fake)
	for _, ip := range []string{"127.0.0.1", "10.1.2.3", "192.168.0.9", "0.0.0.0", "fe80::1", "::1", "169.254.1.1"} {
		code, err := r.CountryCode(ip)
		if err != nil || code != "" {
			t.Fatalf("CountryCode(%q) = %q, %v", ip, code, err)
		}
	}
	if fake.calls != 0 {
		t.Fatalf("reader consulted %d times", fake.calls)
	}
}

func TestCountryCodeErrors(t *testing.T) {
	fake := &fakeReader{err: errors.New("corrupt")}
	r, _ := newResolver(fake)
	if _, err := r.CountryCode("not-an-ip"); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := r.CountryCode("198.51.100.4"); err == nil {
		t.Fatal("expected reader error")
	}
	// failures are not cached
	fake.err = nil
	if _, err := r.CountryCode("198.51.100.4"); err != nil {
		t.Fatalf("retry: %v", err)
	}
}
