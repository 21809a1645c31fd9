package middleware

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// SupportedLocales lists the languages prompt derivation is tuned for. The
// first entry is the matcher's fallback.
var SupportedLocales = []language.Tag{
	language.English,
	language.Indonesian,
	language.Spanish,
	language.French,
	language.German,
	language.Portuguese,
	language.Japanese,
}

var localeMatcher = language.NewMatcher(SupportedLocales)

// countryHeaders are edge/CDN hints checked before any lookup, in order.
var countryHeaders = []string{"X-Country-Code", "X-IP-Country", "CF-IPCountry", "X-Appengine-Country"}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// Localization is what I18N learned about the caller.
type Localization struct {
	Locale  string // base language, e.g. "id"
	Country string // upper-case ISO 3166 code, may be empty
}

type localizationKey struct{}

// WithLocalization stores l in ctx.
func WithLocalization(ctx context.Context, l Localization) context.Context {
	return context.WithValue(ctx, localizationKey{}, l)
}

// I18N resolves the caller's country and locale, stores them in the request
// context and answers with Content-Language.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	fallback := matchLocale(defaultLocale)
	if fallback == "" {
		fallback = "en"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			l := Localization{Locale: detectLocale(r, fallback, country), Country: country}
			w.Header().Set("Content-Language", l.Locale)
			next.ServeHTTP(w, r.WithContext(WithLocalization(r.Context(), l)))
		})
	}
}

// detectLocale prefers X-Locale, then Accept-Language, then the country's
// dominant language, then fallback.
func detectLocale(r *http.Request, fallback, country string) string {
	candidates := []func() string{
		func() string { return matchLocale(r.Header.Get("X-Locale")) },
		func() string { return matchAcceptLanguage(r.Header.Get("Accept-Language")) },
		func() string { return matchCountry(country) },
		func() string { return matchLocale(fallback) },
	}
	for _, c := range candidates {
		if locale := c(); locale != "" {
			return locale
		}
	}
	return "en"
}

func matchAcceptLanguage(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return bestMatch(tags...)
}

func matchLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	return bestMatch(tag)
}

// matchCountry maps a region to its likely language ("JP" -> "ja").
func matchCountry(country string) string {
	region, err := language.ParseRegion(strings.TrimSpace(country))
	if err != nil {
		return ""
	}
	tag, err := language.Compose(language.Und, region)
	if err != nil {
		return ""
	}
	return bestMatch(tag)
}

func bestMatch(tags ...language.Tag) string {
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	base, _ := SupportedLocales[idx].Base()
	return base.String()
}

// LocaleFromContext returns the negotiated locale, "en" when I18N did not run.
func LocaleFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(localizationKey{}).(Localization); ok && l.Locale != "" {
		return l.Locale
	}
	return "en"
}

func CountryFromContext(ctx context.Context) string {
	l, _ := ctx.Value(localizationKey{}).(Localization)
	return l.Country
}

// ResolveCountry picks a country from edge headers, then an explicit region
// in X-Locale or Accept-Language, then lookup on the client IP.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	for _, key := range countryHeaders {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	for _, key := range []string{"X-Locale", "Accept-Language"} {
		if region := explicitRegion(r.Header.Get(key)); region != "" {
			return region
		}
	}
	if lookup == nil {
		return ""
	}
	ip := ClientIP(r)
	if ip == "" {
		return ""
	}
	country, err := lookup(ip)
	if err != nil {
		return ""
	}
	return strings.ToUpper(country)
}

// explicitRegion returns the first region written out in a locale list.
// Inferred regions do not count, so "en" does not imply US.
func explicitRegion(list string) string {
	for _, part := range strings.Split(list, ",") {
		token, _, _ := strings.Cut(part, ";")
		tag, err := language.Parse(strings.TrimSpace(token))
		if err != nil {
			continue
		}
		if region, conf := tag.Region(); conf == language.Exact {
			return region.String()
		}
	}
	return ""
}
