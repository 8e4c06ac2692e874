// Package ingredients turns recognized label text into lookup candidates.
package ingredients

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minPieceLen is the shortest trimmed piece kept by SplitAndClean. Shorter
// fragments are almost always OCR noise or stray punctuation.
const minPieceLen = 3

var (
	// \s is ASCII-only in RE2; OCR output often carries Unicode spaces.
	headerPattern = regexp.MustCompile(`(?is)ingredients?[:\-\s\p{Z}\x{85}]+(.*)`)
	parenPattern  = regexp.MustCompile(`\(.*?\)`)
	stripPattern  = regexp.MustCompile(`[^a-zA-Z0-9 ]`)
	splitPattern  = regexp.MustCompile(`[,\n]`)
)

// Candidate is one ingredient piece and the name it is looked up by.
type Candidate struct {
	// Original is the trimmed piece as it appeared in the text.
	Original string `json:"original"`

	// SearchTerm is Original without parenthesized content and
	// non-alphanumeric characters.
	SearchTerm string `json:"search_term"`
}

// Skipped reports whether the candidate has nothing left to search for.
func (c Candidate) Skipped() bool { return c.SearchTerm == "" }

// Normalize returns the text following the first "ingredient" or
// "ingredients" header (case-insensitive, followed by at least one colon,
// hyphen or whitespace character, Unicode spaces included). Text without a
// header is returned as is.
func Normalize(text string) string {
	m := headerPattern.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	return m[1]
}

// SplitAndClean splits text on commas and newlines and builds a candidate
// for every piece longer than two characters after trimming. Order follows
// the text.
func SplitAndClean(text string) []Candidate {
	pieces := splitPattern.Split(text, -1)
	out := make([]Candidate, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) < minPieceLen {
			continue
		}
		out = append(out, Candidate{Original: p, SearchTerm: SearchTerm(p)})
	}
	return out
}

// SearchTerm removes parenthesized substrings and then every character
// outside [A-Za-z0-9 ], and trims the result.
//
//	SearchTerm("Sugar (white)")  // "Sugar"
//	SearchTerm("E-330")          // "E330"
func SearchTerm(piece string) string {
	s := parenPattern.ReplaceAllString(piece, "")
	s = stripPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Parse is Normalize followed by SplitAndClean.
func Parse(text string) []Candidate {
	return SplitAndClean(Normalize(text))
}
