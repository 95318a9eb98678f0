package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "Plain words", in: "Gasthaus Zur Post", want: "gasthaus-zur-post"},
		{name: "Umlauts", in: "Café Müller", want: "cafe-muller"},
		{name: "Sharp s", in: "Weißes Rössl", want: "weisses-rossl"},
		{name: "Punctuation collapses", in: "  Joe's -- Diner!! ", want: "joe-s-diner"},
		{name: "Ampersand", in: "Fish & Chips", want: "fish-and-chips"},
		{name: "Digits kept", in: "Pier 39", want: "pier-39"},
		{name: "Nothing usable", in: "!!!", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slugify(tt.in)
			assert.Equal(t, tt.want, got)
			if got != "" {
				assert.True(t, IsValidSlug(got))
			}
		})
	}
}

func TestSlugify_Truncates(t *testing.T) {
	got := Slugify(strings.Repeat("ab ", 40))
	assert.LessOrEqual(t, len(got), MaxSlugLength)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestIsValidSlug(t *testing.T) {
	assert.True(t, IsValidSlug("gasthaus-zur-post"))
	assert.False(t, IsValidSlug("Gasthaus"))
	assert.False(t, IsValidSlug("double--hyphen"))
	assert.False(t, IsValidSlug("-leading"))
	assert.False(t, IsValidSlug(""))
}

func TestGenerateSecureToken(t *testing.T) {
	a, err := GenerateSecureToken(32)
	require.NoError(t, err)
	b, err := GenerateSecureToken(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
