// Package segment provides language-specific word segmenters for the vocab engine.
package segment

import (
	"fmt"
	"strings"

	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// Supported language codes.
const (
	LangEnglish  = "en"
	LangJapanese = "ja"
)

// Latin segments space-delimited scripts with the default tokenizer rules.
type Latin struct{}

// Segment implements vocab.Segmenter.
func (Latin) Segment(text string) vocab.WordSequence { return vocab.Tokenize(text) }

// ForLanguage returns the segmenter for a language code. An empty code means English.
func ForLanguage(lang string) (vocab.Segmenter, error) {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", LangEnglish:
		return Latin{}, nil
	case LangJapanese:
		return NewJapanese()
	default:
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
}
