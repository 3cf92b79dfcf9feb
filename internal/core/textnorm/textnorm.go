// Package textnorm turns free-text BOQ lines and catalog names into
// comparable token form and scores how alike two such texts are.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// TokenWeight and EditWeight blend the two similarity signals. They sum
	// to one so the blended score stays in [0,1].
	TokenWeight = 0.4
	EditWeight  = 0.6
)

var measurementToken = regexp.MustCompile(`^\d+(\.\d+)?(mm|cm|m|mtr|km|in|inch|ft|kg|g|mg|t|ton|tons|mt|l|ltr|ml|sqm|sqft|cum|m2|m3|nos|no|pcs|pc)$`)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "of": {}, "for": {}, "with": {}, "the": {}, "to": {},
}

// Text is a prepared form of a string. Preparing once and comparing many
// times is how the catalog index avoids re-tokenizing entries per lookup.
type Text struct {
	Tokens []string
	Joined string
	stems  map[string]struct{}
}

func (t Text) Empty() bool {
	return t.Joined == ""
}

// Fold strips diacritics and lowercases.
func Fold(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(tr, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Tokenize folds s, replaces punctuation with spaces (a dot between two
// digits is kept) and splits on whitespace. Measurement tokens such as
// "12mm" and stop words are dropped unless nothing else would be left.
func Tokenize(s string) []string {
	folded := []rune(Fold(s))
	var b strings.Builder
	for i, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' && i > 0 && i+1 < len(folded) && unicode.IsDigit(folded[i-1]) && unicode.IsDigit(folded[i+1]):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	raw := strings.Fields(b.String())

	kept := make([]string, 0, len(raw))
	for _, tok := range raw {
		if measurementToken.MatchString(tok) {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		kept = append(kept, tok)
	}
	if len(kept) == 0 {
		return raw
	}
	return kept
}

func Prepare(s string) Text {
	tokens := Tokenize(s)
	stems := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		stems[Stem(tok)] = struct{}{}
	}
	return Text{
		Tokens: tokens,
		Joined: strings.Join(tokens, " "),
		stems:  stems,
	}
}

// Stem reduces an English token to its Snowball stem, returning the token
// itself when stemming fails.
func Stem(tok string) string {
	stemmed, err := snowball.Stem(tok, "english", true)
	if err != nil || stemmed == "" {
		return tok
	}
	return stemmed
}

// Similarity blends the share of query stems found in the candidate with an
// edit-distance similarity of the joined token strings. Identical prepared
// strings score exactly 1.
func Similarity(query, candidate Text) float64 {
	if query.Empty() || candidate.Empty() {
		return 0
	}
	if query.Joined == candidate.Joined {
		return 1
	}
	return TokenWeight*TokenOverlap(query, candidate) + EditWeight*EditSimilarity(query.Joined, candidate.Joined)
}

// TokenOverlap is |Q ∩ C| / |Q| over stemmed token sets.
func TokenOverlap(query, candidate Text) float64 {
	if len(query.stems) == 0 {
		return 0
	}
	shared := 0
	for stem := range query.stems {
		if _, ok := candidate.stems[stem]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(query.stems))
}

// EditSimilarity is 1 - levenshtein(a, b) / max(len(a), len(b)) in runes.
func EditSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1
	}
	sim := 1 - float64(Levenshtein(ra, rb))/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

func Levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
