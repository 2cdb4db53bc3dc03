package vocab

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalization policy:
//   - input is NFC-normalized, so composed and decomposed accents compare equal
//   - a word is a run of letters and combining marks; accents are preserved
//   - apostrophes (' and ’) and hyphens join two word runes ("don't", "well-known");
//     leading, trailing and doubled joiners are dropped
//   - ’ is stored as '
//   - digits, whitespace, punctuation and symbols are boundaries
//   - words are lowercased without language-specific tailoring
//
// No stemming happens: "cats" and "cat" are different words.

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r)
}

func isJoiner(r rune) bool {
	return r == '\'' || r == '’' || r == '-'
}

// Tokenize splits text into normalized words in order of appearance.
// Empty or whitespace-only input yields an empty sequence.
func Tokenize(text string) WordSequence {
	seq := WordSequence{}
	if strings.TrimSpace(text) == "" {
		return seq
	}

	// cases.Caser holds state and must not be shared between goroutines.
	lower := cases.Lower(language.Und)

	var cur strings.Builder
	var pending rune
	hasPending := false

	flush := func() {
		if cur.Len() > 0 {
			seq = append(seq, lower.String(cur.String()))
			cur.Reset()
		}
		hasPending = false
	}

	for _, r := range norm.NFC.String(text) {
		switch {
		case isWordRune(r):
			if hasPending {
				cur.WriteRune(pending)
				hasPending = false
			}
			cur.WriteRune(r)
		case isJoiner(r):
			if cur.Len() == 0 {
				continue
			}
			if hasPending {
				flush()
				continue
			}
			pending = r
			if pending == '’' {
				pending = '\''
			}
			hasPending = true
		default:
			flush()
		}
	}
	flush()
	return seq
}

// NormalizeWord applies the tokenizer rules to a single word. Input holding
// several words ("New York") keeps them joined by one space; such a value never
// equals a token, so reference entries go through UniqueEntries instead.
func NormalizeWord(s string) string {
	return strings.Join(Tokenize(s), " ")
}
