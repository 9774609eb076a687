// Copyright 2024 The mumble-embedding Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package sentence segments a markdown.TextBlock into the sentences
// it contains, by running a character-level transducer over its
// fragments.
package sentence

import (
	"strings"

	"github.com/codemonger-io/mumble-embedding/markdown"
)

// Sentence is a maximal run of characters in a text block bounded by
// sentence-break tokens, with its range in the original source.
//
// Range endpoints are counted in characters from the start of the
// block's first fragment, consistent with how the transducer itself
// advances; callers needing true byte offsets into the source must
// convert through the indexing layer that produced the block.
type Sentence struct {
	Text  string
	Range markdown.Range
}

// ExtractSentences produces the sentences contained in block.
//
// A Code block always yields exactly one sentence equal to its body;
// a Text block is segmented by feeding its fragments through a
// Transducer in order.
func ExtractSentences(block markdown.TextBlock) []Sentence {
	if block.Kind == markdown.CodeBlockBlock {
		return []Sentence{{Text: block.Code, Range: block.Range}}
	}
	return extractSentencesFromFragments(block.Fragments)
}

func extractSentencesFromFragments(fragments []markdown.Fragment) []Sentence {
	if len(fragments) == 0 {
		return nil
	}
	t := NewTransducer(fragments[0].Range.Start)
	var tokens []Token
	for _, fragment := range fragments {
		switch fragment.Kind {
		case markdown.TextFragment:
			for _, ch := range fragment.Content {
				tokens = append(tokens, t.Next(ch)...)
			}
		case markdown.CodeFragment, markdown.URLFragment:
			tokens = append(tokens, t.NextString(fragment.Content)...)
		}
	}
	tokens = append(tokens, t.Finish()...)
	return assemble(tokens)
}

// assemble folds a token stream into sentences: Char and String
// tokens append to the currently open buffer (opening one if none is
// open yet, using the token's own range); SentenceBreak opens a new,
// empty buffer at its range, whose start then moves to the first
// token appended to it. Empty-string sentences are dropped at the end.
func assemble(tokens []Token) []Sentence {
	var sentences []Sentence
	for _, tok := range tokens {
		switch tok.Kind {
		case CharToken:
			appendRune(&sentences, tok.Char, tok.Range)
		case StringToken:
			appendString(&sentences, tok.String, tok.Range)
		case SentenceBreakToken:
			sentences = append(sentences, Sentence{Range: tok.Range})
		}
	}
	// A sentence with no non-whitespace content is either fully empty
	// (two adjacent breaks) or trailing whitespace preserved by
	// finalization with nothing after it; both are dropped.
	out := sentences[:0]
	for _, s := range sentences {
		if strings.TrimSpace(s.Text) != "" {
			out = append(out, s)
		}
	}
	return out
}

func appendRune(sentences *[]Sentence, ch rune, r markdown.Range) {
	if n := len(*sentences); n > 0 {
		last := &(*sentences)[n-1]
		if last.Text == "" {
			last.Range.Start = r.Start
		}
		last.Text += string(ch)
		last.Range.End = r.End
		return
	}
	*sentences = append(*sentences, Sentence{Text: string(ch), Range: r})
}

func appendString(sentences *[]Sentence, s string, r markdown.Range) {
	if n := len(*sentences); n > 0 {
		last := &(*sentences)[n-1]
		if last.Text == "" {
			last.Range.Start = r.Start
		}
		last.Text += s
		last.Range.End = r.End
		return
	}
	*sentences = append(*sentences, Sentence{Text: s, Range: r})
}
