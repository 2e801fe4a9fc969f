package record

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"XYZ", "XYZ"},
		{"$XYZ", "XYZ"},
		{"XYZ:", "XYZ"},
		{"X.Y.Z", "XYZ"},
		{"abc", "abc"}, // lowercase survives; ValidTicker rejects it
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTicker(tt.in))
	}
}

func TestValidTicker(t *testing.T) {
	assert.True(t, ValidTicker("A"))
	assert.True(t, ValidTicker("ABCDE"))
	assert.False(t, ValidTicker(""))
	assert.False(t, ValidTicker("ABCDEF"))
	assert.False(t, ValidTicker("abc"))
	assert.False(t, ValidTicker("AB1"))
}

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"enumeration prefix", "1. Acme Robotics", "Acme Robotics"},
		{"parenthetical removed", "Acme Robotics (NASDAQ: ACME)", "Acme Robotics"},
		{"both", "12. Acme Robotics (ACME), Inc.", "Acme Robotics, Inc."},
		{"whitespace", "  Acme  ", "Acme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCompany(tt.in))
		})
	}
}

func TestNormalizeCompanyTruncates(t *testing.T) {
	long := "A Very Long Corporate Name That Keeps Going And Going And Going"
	got := NormalizeCompany(long)
	assert.LessOrEqual(t, len(got), MaxCompanyLen)
}

func TestNormalizeCompanyTruncatesOnRunes(t *testing.T) {
	// Multi-byte runes near the limit must not be split mid-sequence.
	long := strings.Repeat("Ä", MaxCompanyLen+10)
	got := NormalizeCompany(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, MaxCompanyLen, utf8.RuneCountInString(got))
}

func TestParseCap(t *testing.T) {
	v, ok := ParseCap("1.5")
	assert.True(t, ok)
	assert.Equal(t, "$1.5B", FormatCap(v))

	v, ok = ParseCap("2.0")
	assert.True(t, ok, "threshold is inclusive")
	assert.Equal(t, "$2.0B", FormatCap(v))

	_, ok = ParseCap("2.5")
	assert.False(t, ok, "above the small-cap ceiling")

	_, ok = ParseCap("about two")
	assert.False(t, ok)
}

func TestFormatCapKeepsScale(t *testing.T) {
	tests := []struct{ in, want string }{
		{"2.0", "$2.0B"},
		{"1.50", "$1.50B"},
		{"2", "$2B"},
		{"0.75", "$0.75B"},
	}
	for _, tt := range tests {
		v, ok := ParseCap(tt.in)
		assert.True(t, ok, tt.in)
		assert.Equal(t, tt.want, FormatCap(v))
	}
}
