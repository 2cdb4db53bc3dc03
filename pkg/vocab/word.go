// Package vocab implements the vocabulary-diff engine: turning free text into
// normalized words and finding the ones missing from a known vocabulary.
package vocab

// WordSequence is the ordered list of words found in a text, duplicates included.
type WordSequence []string

// Entry is a known word as recorded by a vocabulary source.
// Translation is only present for spreadsheet rows; it never takes part in diffing.
type Entry struct {
	Word        string
	Translation string
}

// WordSet is a set of unique words that remembers first-occurrence order.
// The zero value is an empty set ready for reads; use NewWordSet to build one.
type WordSet struct {
	order []string
	index map[string]struct{}
}

// NewWordSet builds a set from words, keeping the first occurrence of each.
// Empty strings are skipped.
func NewWordSet(words ...string) WordSet {
	s := WordSet{
		order: make([]string, 0, len(words)),
		index: make(map[string]struct{}, len(words)),
	}
	for _, w := range words {
		s.add(w)
	}
	return s
}

func (s *WordSet) add(w string) {
	if w == "" {
		return
	}
	if _, ok := s.index[w]; ok {
		return
	}
	s.index[w] = struct{}{}
	s.order = append(s.order, w)
}

// Len returns the number of unique words.
func (s WordSet) Len() int { return len(s.order) }

// Contains reports whether w is in the set.
func (s WordSet) Contains(w string) bool {
	_, ok := s.index[w]
	return ok
}

// Words returns the words in first-occurrence order. The slice is a copy.
func (s WordSet) Words() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Equal reports whether both sets hold the same words in the same order.
func (s WordSet) Equal(other WordSet) bool {
	if len(s.order) != len(other.order) {
		return false
	}
	for i := range s.order {
		if s.order[i] != other.order[i] {
			return false
		}
	}
	return true
}
