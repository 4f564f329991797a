// Package instance validates user-supplied instance domains.
package instance

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/BlackMission/fedisub/internal/domain"
)

// Normalize turns raw user input into a bare instance domain.
// It only rejects obvious garbage; host validity is left to the HTTP call made against it.
func Normalize(raw string) (domain.Instance, error) {
	d := strings.TrimSpace(raw)
	if d == "" {
		return domain.Instance{}, domain.ErrEmptyDomain
	}

	lower := strings.ToLower(d)
	for _, scheme := range []string{"https://", "http://"} {
		if strings.HasPrefix(lower, scheme) {
			lower = lower[len(scheme):]
			break
		}
	}
	d = strings.TrimRight(lower, "/")
	if d == "" {
		return domain.Instance{}, domain.ErrEmptyDomain
	}

	if strings.ContainsAny(d, "/?#@\\") || strings.ContainsFunc(d, isSpace) {
		return domain.Instance{}, fmt.Errorf("%w: %q", domain.ErrMalformedDomain, raw)
	}

	u, err := url.Parse("https://" + d)
	if err != nil || u.Host != d {
		return domain.Instance{}, fmt.Errorf("%w: %q", domain.ErrMalformedDomain, raw)
	}

	return domain.Instance{Domain: d}, nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
