package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Baleshwar", "baleshwar"},
		{"  ODISHA  ", "odisha"},
		{"24 Parganas (North)", "24 parganas north"},
		{"Keonjhar (Kendujhar)", "keonjhar"},
		{"Kamrup (Metro)", "kamrup metro"},
		{"Jammu & Kashmir", "jammu and kashmir"},
		{"Jammu&Kashmir", "jammu and kashmir"},
		{"North   Twenty-Four Parganas", "north twenty-four parganas"},
		{"Y.S.R.", "ysr"},
		{"Ahmadnagar, ", "ahmadnagar"},
		{"Pune District", "pune"},
		{"Dakshin Kannada Zilla", "dakshin kannada"},
		{"Districtpur", "districtpur"},
		{"District", "district"},
		{"Foo District District", "foo"},
		{"a . b", "a b"},
		{"(Kendujhar)", "kendujhar"},
		{"Tab\tSeparated", "tab separated"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.input), "Normalize(%q)", tt.input)
	}
}

func TestNormalize_ComposedForms(t *testing.T) {
	precomposed := "Mah\u00e9"
	combining := "Mahe\u0301"
	assert.Equal(t, Normalize(precomposed), Normalize(combining))
	assert.Equal(t, "mah\u00e9", Normalize(combining))

	// Punctuation between the letter and its mark is dropped before composing.
	assert.Equal(t, "mah\u00e9", Normalize("Mahe.\u0301"))
	assert.Equal(t, NewKey("Puducherry", "Mah\u00e9"), NewKey("Puducherry", "Mahe.\u0301"))
}

func TestNormalize_FixedPoint(t *testing.T) {
	inputs := []string{
		"24 Parganas (North)",
		"Keonjhar (Kendujhar)",
		"foo (bar (baz))",
		"foo (north",
		"a . b . c",
		"X & Y & Z",
		"- leading hyphen",
		"Foo - District",
		"district district",
		"İstanbul",
		"Mahé",
		"\u00a0Nbsp\u00a0Name\u00a0",
		"((()))",
		"Sri Potti Sriramulu Nellore",
		"e.\u0301",
		"Mahe.\u0301",
		"x (y)\u0301",
		"N)\u0300hcrt",
		"a&\u0300b",
		"o-.\u0301\u0300",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize not idempotent for %q", in)

		super := SuperNormalize(in)
		assert.Equal(t, super, SuperNormalize(super), "SuperNormalize not idempotent for %q", in)
	}
}

func TestSuperNormalize(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"North Twenty-Four Parganas", "northtwentyfourparganas"},
		{"24 Parganas (North)", "24parganasnorth"},
		{"Y.S.R. Kadapa", "ysrkadapa"},
		{"Mahé", "mahe"},
		{"Baleshwar", "baleshwar"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SuperNormalize(tt.input), "SuperNormalize(%q)", tt.input)
	}
}

func TestNewKey(t *testing.T) {
	k := NewKey("Odisha", "Baleshwar")
	assert.Equal(t, Key("odisha:baleshwar"), k)

	state, district := k.Split()
	assert.Equal(t, "odisha", state)
	assert.Equal(t, "baleshwar", district)

	assert.Equal(t, NewKey("WEST BENGAL", "24 Parganas (North)"), NewKey(" West  Bengal", "24 PARGANAS (NORTH)"))
	assert.Equal(t, Key(":"), NewKey("", ""))
}
