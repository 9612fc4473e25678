package hgvs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		notation string
		want     []string
	}{
		{
			name:     "compound_notation",
			notation: "p.[Val57Gln;Tyr9Pro]",
			want:     []string{"Val57Gln", "Tyr9Pro"},
		},
		{
			name:     "single_bracketed",
			notation: "p.[Ala12Gly]",
			want:     []string{"Ala12Gly"},
		},
		{
			name:     "three_mutations_with_whitespace",
			notation: "p.[Val57Gln; Tyr9Pro ;Ala12Gly]",
			want:     []string{"Val57Gln", "Tyr9Pro", "Ala12Gly"},
		},
		{
			name:     "synonymous",
			notation: "p.=",
			want:     nil,
		},
		{
			name:     "absent",
			notation: "",
			want:     nil,
		},
		{
			name:     "empty_tokens_discarded",
			notation: "p.[Val57Gln;;Tyr9Pro;]",
			want:     []string{"Val57Gln", "Tyr9Pro"},
		},
		{
			// Unbracketed notation keeps its prefix: tokens are not
			// syntax-checked, only the bracket markup is stripped.
			name:     "unbracketed_passthrough",
			notation: "p.Val57Gln",
			want:     []string{"p.Val57Gln"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.notation))
		})
	}
}

func TestParseTokenCountMatchesSeparators(t *testing.T) {
	// n semicolon-separated tokens parse to exactly n atomic mutations.
	notations := map[string]int{
		"p.[Met1Val]":                            1,
		"p.[Met1Val;Leu2Pro]":                    2,
		"p.[Met1Val;Leu2Pro;Gly3Asp]":            3,
		"p.[Met1Val;Leu2Pro;Gly3Asp;Trp4Arg]":    4,
	}
	for notation, n := range notations {
		assert.Len(t, Parse(notation), n, "notation %q", notation)
	}
}

func TestIsSynonymous(t *testing.T) {
	assert.True(t, IsSynonymous("p.="))
	assert.False(t, IsSynonymous("p.[Val57Gln]"))
	assert.False(t, IsSynonymous(""))
}
