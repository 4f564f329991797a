// Package carrier moves per-instance secrets between requests in individual cookies.
//
// Every secret is its own cookie. Fields are never merged or encrypted into a single
// value, so a request may legitimately carry only part of the set (for example a
// domain and client credentials but no access token yet).
package carrier

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Cookie names.
const (
	FieldClientID     = "clientId"
	FieldClientSecret = "clientSecret"
	FieldDomain       = "domain"
	FieldAccessToken  = "accessToken"
	FieldRefreshToken = "refreshToken"
)

// DefaultTTL is the max-age of every carrier cookie.
const DefaultTTL = 24 * time.Hour

// AllFields lists every cookie the carrier owns.
var AllFields = []string{FieldClientID, FieldClientSecret, FieldDomain, FieldAccessToken, FieldRefreshToken}

// Fields maps cookie names to their raw values.
type Fields map[string]string

// Get returns the value for name and whether it was present.
func (f Fields) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

// Header encodes the fields as a Cookie request header, sorted by name.
func (f Fields) Header() string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+encodeValue(f[name]))
	}
	return strings.Join(pairs, "; ")
}

// Parse decodes a raw Cookie header. Pairs without "=" or with an empty name are
// skipped, and values keep everything after the first "=". A repeated name keeps
// its last value.
func Parse(header string) Fields {
	fields := make(Fields)
	if header == "" {
		return fields
	}
	for _, pair := range strings.Split(header, "; ") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		fields[name] = decodeValue(value)
	}
	return fields
}

// encodeValue percent-escapes the bytes a cookie value cannot hold (space,
// quote, comma, semicolon, backslash, controls) plus "%" itself. Plain tokens
// and host:port domains pass through unchanged.
func encodeValue(v string) string {
	return url.PathEscape(v)
}

// decodeValue reverses encodeValue. A value that is not valid escaping is kept as sent.
func decodeValue(v string) string {
	d, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return d
}

// FromRequest parses the Cookie header of r.
func FromRequest(r *http.Request) Fields {
	return Parse(strings.Join(r.Header.Values("Cookie"), "; "))
}

// Write sets one secure cookie per field with the given max-age.
func Write(w http.ResponseWriter, fields Fields, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		http.SetCookie(w, &http.Cookie{
			Name:    name,
			Value:   encodeValue(fields[name]),
			Path:    "/",
			Expires: time.Now().Add(ttl).UTC(),
			MaxAge:  int(ttl.Seconds()),
			Secure:  true,
		})
	}
}

// Clear expires the named cookies.
func Clear(w http.ResponseWriter, names ...string) {
	for _, name := range names {
		http.SetCookie(w, &http.Cookie{
			Name:    name,
			Value:   "",
			Path:    "/",
			Expires: time.Unix(0, 0).UTC(),
			MaxAge:  -1,
			Secure:  true,
		})
	}
}
