// internal/matching/terms.go
package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// equipmentSynonyms groups equipment and cargo terms that describe the same
// capability. The first entry of each group is its canonical name.
var equipmentSynonyms = [][]string{
	{"reefer", "refrigerated", "cold", "frozen", "temperature-controlled", "temp-controlled"},
	{"flatbed", "open-deck", "flat bed"},
	{"dry-van", "enclosed", "box"},
	{"tanker", "liquid-bulk", "liquid"},
	{"hopper", "grain", "dry-bulk"},
	{"lowboy", "heavy-haul"},
	{"step-deck", "drop-deck"},
	{"conestoga", "curtain-side"},
	{"hazmat", "dangerous-goods", "hazardous"},
}

// termClasses maps every normalized synonym to the index of its group, and
// classMembers holds the normalized members of each group.
var (
	termClasses  map[string]int
	classMembers [][]string
)

func init() {
	termClasses = make(map[string]int)
	classMembers = make([][]string, len(equipmentSynonyms))
	for i, group := range equipmentSynonyms {
		for _, term := range group {
			n := NormalizeTerm(term)
			termClasses[n] = i
			classMembers[i] = append(classMembers[i], n)
		}
	}
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTerm lower-cases a free-text term, strips accents, and treats
// hyphens, underscores and slashes as spaces so "Dry-Van" and "dry van" agree.
func NormalizeTerm(term string) string {
	folded, _, err := transform.String(foldAccents, term)
	if err != nil {
		folded = term
	}
	folded = strings.ToLower(folded)
	folded = strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '/':
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// CanonicalTerm returns the canonical name of the synonym group a term belongs
// to, or the normalized term itself when it is not a known synonym.
func CanonicalTerm(term string) string {
	n := NormalizeTerm(term)
	if class, ok := termClasses[n]; ok {
		return classMembers[class][0]
	}
	return n
}

func expandTerm(n string) []string {
	if class, ok := termClasses[n]; ok {
		return classMembers[class]
	}
	return []string{n}
}

// TermsMatch reports whether two equipment or cargo terms describe the same
// thing. A match is a substring hit in either direction, first on the raw
// terms and then on their synonym groups. The relation is symmetric. A term
// that normalizes to nothing matches nothing, itself included.
func TermsMatch(a, b string) bool {
	na, nb := NormalizeTerm(a), NormalizeTerm(b)
	if na == "" || nb == "" {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}

	ca, aKnown := termClasses[na]
	cb, bKnown := termClasses[nb]
	if aKnown && bKnown && ca == cb {
		return true
	}

	for _, x := range expandTerm(na) {
		for _, y := range expandTerm(nb) {
			if strings.Contains(x, y) || strings.Contains(y, x) {
				return true
			}
		}
	}
	return false
}
