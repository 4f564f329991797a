package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackMission/fedisub/internal/domain"
)

func TestNormalize_Valid(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.social", "example.social"},
		{"  Example.Social  ", "example.social"},
		{"https://example.social", "example.social"},
		{"http://example.social/", "example.social"},
		{"HTTPS://example.social//", "example.social"},
		{"127.0.0.1:8443", "127.0.0.1:8443"},
		{"xn--bcher-kva.example", "xn--bcher-kva.example"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Domain)
			assert.Equal(t, "https://"+tt.want, got.BaseURL())
		})
	}
}

func TestNormalize_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "https://", "https:///"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, domain.ErrEmptyDomain, "input %q", in)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	for _, in := range []string{
		"example.social/path",
		"exa mple.social",
		"example.social?x=1",
		"example.social#frag",
		"user@example.social",
		"evil.example\\@good.example",
		"ftp://example.social",
	} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, domain.ErrMalformedDomain, "input %q", in)
	}
}

func TestAllowlist(t *testing.T) {
	empty := NewAllowlist(nil)
	assert.True(t, empty.Empty())
	assert.NoError(t, empty.Validate(domain.Instance{Domain: "anything.example"}))

	a := NewAllowlist([]string{"example.social", " *.pleroma.site ", ""})
	assert.False(t, a.Empty())
	assert.NoError(t, a.Validate(domain.Instance{Domain: "example.social"}))
	assert.NoError(t, a.Validate(domain.Instance{Domain: "fe.pleroma.site"}))
	assert.ErrorIs(t, a.Validate(domain.Instance{Domain: "pleroma.site"}), domain.ErrInstanceNotAllowed)
	assert.ErrorIs(t, a.Validate(domain.Instance{Domain: "other.social"}), domain.ErrInstanceNotAllowed)
}
