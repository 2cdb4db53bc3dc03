package segment

import (
	"regexp"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// Token is a single analyzed unit of Japanese text.
type Token struct {
	Surface       string   // as written (e.g. "行っ")
	BaseForm      string   // dictionary form (e.g. "行く")
	Reading       string   // katakana reading
	PartsOfSpeech []string // Kagome IPA features
	PrimaryPOS    string
}

// Japanese segments text with kagome and yields the base forms of content words.
type Japanese struct {
	t *tokenizer.Tokenizer
}

// NewJapanese creates a segmenter backed by the IPA dictionary.
func NewJapanese() (*Japanese, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Japanese{t: t}, nil
}

// Analyze breaks text into tokens with readings and base forms.
func (j *Japanese) Analyze(text string) []Token {
	var result []Token
	for _, token := range j.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		if strings.TrimSpace(token.Surface) == "" {
			continue
		}

		// IPA features: 0-3 POS levels, 4-5 conjugation, 6 base form, 7 reading.
		features := token.Features()

		base := token.Surface
		if len(features) > 6 && features[6] != "*" {
			base = features[6]
		}
		reading := ""
		if len(features) > 7 && features[7] != "*" {
			reading = features[7]
		}
		primaryPOS := ""
		if len(features) > 0 {
			primaryPOS = features[0]
		}

		result = append(result, Token{
			Surface:       token.Surface,
			BaseForm:      base,
			Reading:       reading,
			PartsOfSpeech: features,
			PrimaryPOS:    primaryPOS,
		})
	}
	return result
}

var asciiOnly = regexp.MustCompile(`^[a-zA-Z0-9\s[:punct:]]+$`)

// skipPOS lists grammatical classes that never count as vocabulary.
var skipPOS = map[string]bool{
	"記号":   true,
	"補助記号": true,
	"助詞":   true,
	"助動詞":  true,
}

// Segment implements vocab.Segmenter. Symbols, particles, auxiliaries,
// numbers and ASCII runs are skipped; the remaining tokens are reported by base form.
func (j *Japanese) Segment(text string) vocab.WordSequence {
	seq := vocab.WordSequence{}
	for _, t := range j.Analyze(text) {
		if skipPOS[t.PrimaryPOS] {
			continue
		}
		if len(t.PartsOfSpeech) > 1 && t.PartsOfSpeech[1] == "数" {
			continue
		}
		if asciiOnly.MatchString(t.Surface) {
			continue
		}
		w := vocab.NormalizeWord(t.BaseForm)
		if w == "" {
			continue
		}
		seq = append(seq, w)
	}
	return seq
}
