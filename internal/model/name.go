package model

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var entitySuffixes = regexp.MustCompile(
	`(?i)[\s,]+(LLC|L\.?L\.?C\.?|INC\.?|INCORPORATED|CORP\.?|CORPORATION|` +
		`CO\.?|COMPANY|LTD\.?|LIMITED|L\.?P\.?|LLP|GMBH|S\.?A\.?|DBA|D/B/A)\.?\s*$`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// FoldName folds case, diacritics, commas and runs of whitespace, keeping
// the entity suffix: "Acme Imports, LLC" and "ACME IMPORTS LLC" fold alike,
// "Acme Imports Inc" does not.
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.ReplaceAll(folded, ",", " ")
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

// NormalizeName is FoldName with the trailing entity suffix stripped, for
// loose matching of the same company across spellings.
func NormalizeName(name string) string {
	n := entitySuffixes.ReplaceAllString(FoldName(name), "")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}
