// Package hgvs extracts atomic mutations from HGVS protein notation strings
// as they appear in MaveDB score files.
package hgvs

import (
	"strings"
)

const (
	// Synonymous is the HGVS token for "no protein-level change". Records
	// carrying it contribute nothing downstream.
	Synonymous = "p.="

	compoundPrefix = "p.["
	compoundSuffix = "]"
	separator      = ";"
)

// Parse decomposes a compound HGVS protein notation such as
// "p.[Val57Gln;Tyr9Pro]" into its atomic mutation tokens, in order.
//
// An empty string or the synonymous indicator yields an empty result.
// The bracket markup is removed by literal substring replacement and tokens
// are split on ';' and trimmed; no further syntax validation is performed,
// so malformed tokens pass through unchanged.
func Parse(notation string) []string {
	if notation == "" || notation == Synonymous {
		return nil
	}

	stripped := strings.ReplaceAll(notation, compoundPrefix, "")
	stripped = strings.ReplaceAll(stripped, compoundSuffix, "")

	var mutations []string
	for _, token := range strings.Split(stripped, separator) {
		token = strings.TrimSpace(token)
		if token != "" {
			mutations = append(mutations, token)
		}
	}
	return mutations
}

// IsSynonymous reports whether the notation denotes no change at the protein
// level.
func IsSynonymous(notation string) bool {
	return notation == Synonymous
}
