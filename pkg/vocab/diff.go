package vocab

// UniqueOf reduces a sequence to its unique words, in first-occurrence order.
func UniqueOf(seq WordSequence) WordSet {
	return NewWordSet(seq...)
}

// UniqueEntries reduces vocabulary entries to the set of their normalized words.
// Translations are ignored and entries that normalize to nothing are dropped.
// A multi-word entry ("New York") contributes each of its words, since text
// is only ever split into single words.
func UniqueEntries(entries []Entry) WordSet {
	s := WordSet{
		order: make([]string, 0, len(entries)),
		index: make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		for _, w := range Tokenize(e.Word) {
			s.add(w)
		}
	}
	return s
}

// Diff returns the words of candidate that are not in reference, in candidate order.
// It runs in O(|reference| + |candidate|).
func Diff(reference, candidate WordSet) WordSet {
	out := WordSet{
		order: make([]string, 0, len(candidate.order)),
		index: make(map[string]struct{}, len(candidate.order)),
	}
	for _, w := range candidate.order {
		if reference.Contains(w) {
			continue
		}
		out.add(w)
	}
	return out
}

// Source names the provider that computed a DiffResult.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// DiffResult is the outcome of comparing one text against a vocabulary.
type DiffResult struct {
	AllWords    []string `json:"all_words"`
	UniqueWords []string `json:"uniq_words"`
	NewWords    []string `json:"new_words"`
	Source      Source   `json:"-"`
}

// Segmenter turns text into a word sequence.
type Segmenter interface {
	Segment(text string) WordSequence
}

// SegmenterFunc adapts a plain function to Segmenter.
type SegmenterFunc func(text string) WordSequence

// Segment calls f.
func (f SegmenterFunc) Segment(text string) WordSequence { return f(text) }

// Engine runs the tokenize, dedupe and diff pipeline with a pluggable segmenter.
type Engine struct {
	seg Segmenter
}

// NewEngine creates an engine. A nil segmenter falls back to Tokenize.
func NewEngine(seg Segmenter) *Engine {
	if seg == nil {
		seg = SegmenterFunc(Tokenize)
	}
	return &Engine{seg: seg}
}

// Compute diffs text against reference.
func (e *Engine) Compute(text string, reference WordSet) DiffResult {
	all := e.seg.Segment(text)
	uniq := UniqueOf(all)
	fresh := Diff(reference, uniq)

	allWords := make([]string, len(all))
	copy(allWords, all)
	return DiffResult{
		AllWords:    allWords,
		UniqueWords: uniq.Words(),
		NewWords:    fresh.Words(),
		Source:      SourceLocal,
	}
}

// Compute diffs text against reference using the default tokenizer.
func Compute(text string, reference WordSet) DiffResult {
	return NewEngine(nil).Compute(text, reference)
}
