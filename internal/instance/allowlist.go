package instance

import (
	"strings"

	"github.com/BlackMission/fedisub/internal/domain"
)

// Allowlist restricts which instances the broker registers with.
// An empty list allows every instance.
type Allowlist struct {
	exact    map[string]bool
	suffixes []string
}

// NewAllowlist builds an allow-list from patterns such as "example.social" or "*.example.social".
func NewAllowlist(patterns []string) *Allowlist {
	a := &Allowlist{exact: make(map[string]bool, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if strings.HasPrefix(p, "*.") {
			a.suffixes = append(a.suffixes, p[1:])
			continue
		}
		a.exact[p] = true
	}
	return a
}

// Empty reports whether the list lets everything through.
func (a *Allowlist) Empty() bool {
	return a == nil || (len(a.exact) == 0 && len(a.suffixes) == 0)
}

// Validate returns ErrInstanceNotAllowed when inst is not covered by the list.
func (a *Allowlist) Validate(inst domain.Instance) error {
	if a.Empty() {
		return nil
	}
	if a.exact[inst.Domain] {
		return nil
	}
	for _, s := range a.suffixes {
		if strings.HasSuffix(inst.Domain, s) {
			return nil
		}
	}
	return domain.ErrInstanceNotAllowed
}
