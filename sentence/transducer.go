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

package sentence

import (
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/codemonger-io/mumble-embedding/markdown"
)

// TokenKind names the output alphabet of the Transducer.
type TokenKind uint8

const (
	_ TokenKind = iota

	// CharToken carries a single emitted character.
	CharToken
	// StringToken carries an opaque fragment's content emitted whole.
	StringToken
	// SentenceBreakToken marks a zero-width sentence boundary.
	SentenceBreakToken
)

// Token is one unit of the Transducer's output stream.
type Token struct {
	Kind   TokenKind
	Char   rune
	String string
	Range  markdown.Range
}

// stateKind names the Transducer's states.
type stateKind uint8

const (
	initialState stateKind = iota
	characterState
	whitespaceState
	periodAndState
	whitespacePeriodAndState
)

// transducerState is a tagged union over the Transducer's states,
// following the source's state-as-value discipline: transitions are
// modeled as a function (state, input) -> (state, outputs) rather
// than mutating a variant in place.
type transducerState struct {
	kind stateKind
	w0   int // whitespaceState, whitespacePeriodAndState
	p0   int // periodAndState, whitespacePeriodAndState
}

// Transducer labels the characters of a single text fragment
// sequence with sentence-relevant tokens, carrying state across
// fragment boundaries so a pending whitespace run or tentative
// terminator immediately before an opaque Code/Url fragment is
// resolved correctly; this is the stateful dialect, as opposed to one
// that concatenates opaque strings directly without routing them
// through transducer state.
type Transducer struct {
	numChars int
	state    transducerState
}

// NewTransducer creates a Transducer whose character counter starts
// at start, the character offset of the first fragment it will
// process.
func NewTransducer(start int) *Transducer {
	return &Transducer{
		numChars: start,
		state:    transducerState{kind: initialState},
	}
}

func isWhitespace(ch rune) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	default:
		return false
	}
}

// isSentenceBreak reports whether ch is an unambiguous sentence
// terminator. '.' is excluded: it is the tentative terminator,
// handled separately.
//
// ch is folded through golang.org/x/text/width first so that a
// fullwidth or halfwidth variant of a listed terminator (e.g. a
// halfwidth ideographic full stop, U+FF61) is recognized the same as
// its canonical form, so terminator detection is not limited to one
// script.
func isSentenceBreak(ch rune) bool {
	switch width.Fold(ch) {
	case '?', '!', ';', '。', '！', '？':
		return true
	default:
		return false
	}
}

// isTentativeTerminator reports whether ch is the tentative sentence
// terminator '.', folding fullwidth/halfwidth variants the same way
// as isSentenceBreak.
func isTentativeTerminator(ch rune) bool {
	return width.Fold(ch) == '.'
}

// Next feeds one character to the transducer and returns the tokens
// it emits.
func (t *Transducer) Next(ch rune) []Token {
	k := t.numChars
	var out []Token
	switch t.state.kind {
	case initialState:
		t.state, out = initialNext(k, ch)
	case characterState:
		t.state, out = characterNext(k, ch)
	case whitespaceState:
		t.state, out = whitespaceNext(k, t.state.w0, ch)
	case periodAndState:
		t.state, out = periodAndNext(k, t.state.p0, ch)
	case whitespacePeriodAndState:
		t.state, out = whitespacePeriodAndNext(k, t.state.w0, t.state.p0, ch)
	}
	t.numChars++
	return out
}

// NextString feeds one opaque fragment's content to the transducer as
// a single atomic token, advancing the character counter by its rune
// count.
func (t *Transducer) NextString(s string) []Token {
	k := t.numChars
	n := utf8.RuneCountInString(s)
	prefix := t.materializePending(k)
	out := append(prefix, Token{
		Kind:   StringToken,
		String: s,
		Range:  markdown.Range{Start: k, End: k + n},
	})
	t.state = transducerState{kind: characterState}
	t.numChars += n
	return out
}

// materializePending flushes whatever whitespace/period the current
// state is holding back, as the "other character" transitions do, so
// an opaque token can be substituted for the final character token.
func (t *Transducer) materializePending(k int) []Token {
	switch t.state.kind {
	case whitespaceState:
		w0 := t.state.w0
		return []Token{charTok(' ', w0, k)}
	case periodAndState:
		p0 := t.state.p0
		return []Token{charTok('.', p0, p0+1)}
	case whitespacePeriodAndState:
		w0, p0 := t.state.w0, t.state.p0
		return []Token{charTok(' ', w0, p0), charTok('.', p0, p0+1)}
	default:
		return nil
	}
}

// Finish flushes any state held back at the end of a fragment
// sequence.
func (t *Transducer) Finish() []Token {
	switch t.state.kind {
	case whitespaceState:
		w0 := t.state.w0
		return []Token{charTok(' ', w0, t.numChars)}
	case periodAndState:
		p0 := t.state.p0
		return []Token{charTok('.', p0, p0+1), breakTok(p0 + 1)}
	case whitespacePeriodAndState:
		p0 := t.state.p0
		return []Token{charTok('.', p0, p0+1), breakTok(p0 + 1)}
	default:
		return nil
	}
}

func initialNext(k int, ch rune) (transducerState, []Token) {
	if isWhitespace(ch) {
		return transducerState{kind: whitespaceState, w0: k}, nil
	}
	return transducerState{kind: characterState}, []Token{charTok(ch, k, k+1)}
}

func characterNext(k int, ch rune) (transducerState, []Token) {
	switch {
	case isWhitespace(ch):
		return transducerState{kind: whitespaceState, w0: k}, nil
	case isTentativeTerminator(ch):
		return transducerState{kind: periodAndState, p0: k}, nil
	case isSentenceBreak(ch):
		return transducerState{kind: initialState}, []Token{charTok(ch, k, k+1), breakTok(k + 1)}
	default:
		return transducerState{kind: characterState}, []Token{charTok(ch, k, k+1)}
	}
}

func whitespaceNext(k, w0 int, ch rune) (transducerState, []Token) {
	switch {
	case isWhitespace(ch):
		return transducerState{kind: whitespaceState, w0: w0}, nil
	case isTentativeTerminator(ch):
		return transducerState{kind: whitespacePeriodAndState, w0: w0, p0: k}, nil
	case isSentenceBreak(ch):
		// Drop the whitespace, commit the terminator, return to Initial.
		return transducerState{kind: initialState}, []Token{charTok(ch, k, k+1), breakTok(k + 1)}
	default:
		return transducerState{kind: characterState}, []Token{charTok(' ', w0, k), charTok(ch, k, k+1)}
	}
}

func periodAndNext(k, p0 int, ch rune) (transducerState, []Token) {
	if isWhitespace(ch) {
		return transducerState{kind: initialState}, []Token{charTok('.', p0, p0+1), breakTok(p0 + 1)}
	}
	// Rollback: the period was not a terminator after all.
	return transducerState{kind: characterState}, []Token{charTok('.', p0, p0+1), charTok(ch, k, k+1)}
}

func whitespacePeriodAndNext(k, w0, p0 int, ch rune) (transducerState, []Token) {
	if isWhitespace(ch) {
		return transducerState{kind: initialState}, []Token{charTok('.', p0, p0+1), breakTok(p0 + 1)}
	}
	return transducerState{kind: characterState}, []Token{charTok(' ', w0, p0), charTok('.', p0, p0+1), charTok(ch, k, k+1)}
}

func charTok(ch rune, start, end int) Token {
	return Token{Kind: CharToken, Char: ch, Range: markdown.Range{Start: start, End: end}}
}

func breakTok(at int) Token {
	return Token{Kind: SentenceBreakToken, Range: markdown.Range{Start: at, End: at}}
}
