package bluesky

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TagFacets returns a tag facet for every "#word" in text. Offsets are UTF-8 byte positions.
func TagFacets(text string) []Facet {
	var facets []Facet
	for i := 0; i < len(text); {
		if text[i] != '#' || (i > 0 && !boundary(text[:i])) {
			_, size := utf8.DecodeRuneInString(text[i:])
			i += size
			continue
		}
		end := i + 1
		for end < len(text) {
			r, size := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			end += size
		}
		tag := text[i+1 : end]
		if tag != "" && strings.IndexFunc(tag, unicode.IsLetter) >= 0 {
			facets = append(facets, Facet{
				Index:    ByteSlice{ByteStart: i, ByteEnd: end},
				Features: []FacetFeature{{Type: FacetTag, Tag: tag}},
			})
		}
		i = end
	}
	return facets
}

// boundary reports whether the text before a '#' ends in whitespace.
func boundary(before string) bool {
	r, _ := utf8.DecodeLastRuneInString(before)
	return unicode.IsSpace(r)
}
