// Package chunker splits raw text into synthesizer-safe segments.
//
// The synthesis backend only accepts short inputs, so unbounded text is cut
// into an ordered sequence of bounded chunks. Splitting is sentence-aware:
// chunks end on sentence terminators whenever possible, and only fall back
// to word boundaries when a single sentence is itself over the limit. A
// word is never split, even when it alone exceeds the limit.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxLen is the default chunk size in runes, a little under what the
// synthesis endpoint tolerates per request.
const DefaultMaxLen = 180

// defaultTerminators covers Latin sentence punctuation plus the Devanagari
// danda and double danda used by several Indic scripts, and paragraph breaks.
var defaultTerminators = []rune{'.', '!', '?', '।', '॥', '\n'}

// Options configures the splitting behavior.
type Options struct {
	// MaxLen is the maximum chunk length in runes. Defaults to DefaultMaxLen.
	MaxLen int

	// Terminators is the set of sentence-ending runes. A run of consecutive
	// terminators stays attached to the sentence it closes.
	Terminators []rune
}

func (o Options) withDefaults() Options {
	if o.MaxLen <= 0 {
		o.MaxLen = DefaultMaxLen
	}
	if len(o.Terminators) == 0 {
		o.Terminators = defaultTerminators
	}
	return o
}

// Split cuts text into an ordered sequence of non-empty chunks.
//
// Text that already fits the limit is returned as a single trimmed chunk.
// Otherwise consecutive sentences are packed greedily until the next one
// would overflow, and oversized sentences are packed word by word. The
// word order and content of the input are preserved exactly; only the
// whitespace at chunk boundaries is trimmed.
func Split(text string, opts Options) []string {
	opts = opts.withDefaults()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if utf8.RuneCountInString(trimmed) <= opts.MaxLen {
		return []string{trimmed}
	}

	terms := make(map[rune]bool, len(opts.Terminators))
	for _, r := range opts.Terminators {
		terms[r] = true
	}

	var chunks []string
	var current string

	flush := func() {
		if c := strings.TrimSpace(current); c != "" {
			chunks = append(chunks, c)
		}
		current = ""
	}

	for _, sentence := range sentences(text, terms) {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(sentence) <= opts.MaxLen {
			current += sentence
			continue
		}
		flush()

		if utf8.RuneCountInString(sentence) <= opts.MaxLen {
			current = sentence
			continue
		}

		// The sentence alone is over the limit: pack its words instead.
		// A single word longer than the limit is emitted whole.
		for _, word := range strings.Fields(sentence) {
			need := utf8.RuneCountInString(word)
			if current != "" {
				need++ // joining space
			}
			if utf8.RuneCountInString(current)+need <= opts.MaxLen {
				if current != "" {
					current += " "
				}
				current += word
			} else {
				flush()
				current = word
			}
		}
	}
	flush()

	return chunks
}

// sentences tokenizes text into pieces, each a sentence with its run of
// terminator runes attached. Trailing text without a terminator forms the
// final piece.
func sentences(text string, terms map[rune]bool) []string {
	var pieces []string
	var b strings.Builder
	inTerm := false

	for _, r := range text {
		if terms[r] {
			inTerm = true
			b.WriteRune(r)
			continue
		}
		if inTerm {
			pieces = append(pieces, b.String())
			b.Reset()
			inTerm = false
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		pieces = append(pieces, b.String())
	}
	return pieces
}
