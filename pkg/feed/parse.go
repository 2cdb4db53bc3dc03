package feed

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/japaniel/vocabdiff/pkg/vocab"
)

// ParseRows decodes a feed body: a JSON array whose rows are either arrays
// ([word, translation, ...]) or bare scalars. Boolean cells become "true" or
// "false" and numbers keep their literal text. Rows without a word are dropped.
func ParseRows(body []byte) ([]vocab.Entry, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrMalformed)
	}
	doc := gjson.ParseBytes(body)
	if doc.IsObject() {
		// The sheet script answers {"Response":"False"} when it has nothing to serve.
		if doc.Get("Response").String() == "False" {
			return nil, fmt.Errorf("%w: feed reported no data", ErrMalformed)
		}
		return nil, fmt.Errorf("%w: expected an array of rows", ErrMalformed)
	}
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: expected an array of rows", ErrMalformed)
	}

	rows := doc.Array()
	entries := make([]vocab.Entry, 0, len(rows))
	for _, row := range rows {
		var e vocab.Entry
		if row.IsArray() {
			cells := row.Array()
			if len(cells) == 0 {
				continue
			}
			e.Word = cellString(cells[0])
			if len(cells) > 1 {
				e.Translation = cellString(cells[1])
			}
		} else {
			e.Word = cellString(row)
		}
		e.Word = strings.TrimSpace(e.Word)
		e.Translation = strings.TrimSpace(e.Translation)
		if e.Word == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func cellString(c gjson.Result) string {
	switch c.Type {
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Number:
		return c.Raw
	case gjson.String:
		return c.Str
	default:
		return ""
	}
}

// ParseEntries reads a flat list of "word" or "word,translation" lines.
// Only the first comma separates the word; empty lines and empty words are ignored.
func ParseEntries(lines []string) []vocab.Entry {
	entries := make([]vocab.Entry, 0, len(lines))
	for _, line := range lines {
		word, translation, _ := strings.Cut(line, ",")
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		entries = append(entries, vocab.Entry{Word: word, Translation: strings.TrimSpace(translation)})
	}
	return entries
}

// Flatten is the inverse of ParseEntries, used to store entries in the cache.
func Flatten(entries []vocab.Entry) []string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		if e.Translation == "" {
			lines = append(lines, e.Word)
			continue
		}
		lines = append(lines, e.Word+","+e.Translation)
	}
	return lines
}
