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

package markdown

import (
	"fmt"

	"github.com/codemonger-io/mumble-embedding/apperr"
)

// ExtractTextBlocks runs the Block Extractor over a Markdown event
// stream in document order, returning the ordered TextBlocks the
// stream describes.
//
// ExtractTextBlocks is the sole entry point of this package; it does
// not itself produce the event stream (see internal/mdadapt for a
// concrete producer); the Block Extractor itself depends only on a
// Markdown event stream.
func ExtractTextBlocks(events []Event) ([]TextBlock, error) {
	ex := newExtractor()
	for _, ev := range events {
		if err := ex.processEvent(ev); err != nil {
			return nil, err
		}
	}
	return ex.finish()
}

// contextKind names the states of the Block Extractor's context
// stack.
type contextKind uint8

const (
	blankContext contextKind = iota
	paragraphContext
	codeBlockContext
	linkContext
	strikethroughContext
)

// paragraphKind distinguishes the three containers whose bodies are
// collected through the paragraphContext state: a plain paragraph, a
// list item body, and a GFM table cell.
type paragraphKind uint8

const (
	paragraphKindParagraph paragraphKind = iota
	paragraphKindItem
	paragraphKindTableCell
)

// frame is one entry of the context stack. Only the fields relevant
// to kind are meaningful; this mirrors the original Rust
// TextBlockExtractorState enum as a tagged struct, since Go lacks
// sum types.
type frame struct {
	kind contextKind

	// paragraphContext
	paragraphKind paragraphKind
	fragments     []Fragment

	// codeBlockContext
	language    string
	hasLanguage bool
	hasCode     bool
	code        string
	codeRange   Range
}

// extractor holds the Block Extractor's running state: a stack of
// open contexts and the blocks emitted so far.
type extractor struct {
	stack  []frame
	blocks []TextBlock
}

func newExtractor() *extractor {
	return &extractor{
		stack: []frame{{kind: blankContext}},
	}
}

func (ex *extractor) pop() (frame, error) {
	if len(ex.stack) == 0 {
		return frame{}, apperr.InvalidContext("Markdown processing is in an undefined state")
	}
	top := ex.stack[len(ex.stack)-1]
	ex.stack = ex.stack[:len(ex.stack)-1]
	return top, nil
}

func (ex *extractor) push(f frame) {
	ex.stack = append(ex.stack, f)
}

func (ex *extractor) processEvent(ev Event) error {
	top, err := ex.pop()
	if err != nil {
		return err
	}
	switch top.kind {
	case blankContext:
		return ex.processBlank(ev)
	case paragraphContext:
		return ex.processParagraph(top, ev)
	case codeBlockContext:
		return ex.processCodeBlock(top, ev)
	case linkContext:
		return ex.processLink(top, ev)
	case strikethroughContext:
		return ex.processStrikethrough(top, ev)
	default:
		return apperr.InvalidContext("unknown context")
	}
}

func (ex *extractor) processBlank(ev Event) error {
	switch ev.Kind {
	case StartParagraph:
		ex.push(frame{kind: blankContext})
		ex.push(frame{kind: paragraphContext, paragraphKind: paragraphKindParagraph})
		return nil
	case StartCodeBlock:
		ex.push(frame{kind: blankContext})
		ex.push(frame{
			kind:        codeBlockContext,
			language:    ev.Language,
			hasLanguage: ev.HasLanguage,
			codeRange:   ev.Range,
		})
		return nil
	case StartBlockQuote, StartList, StartTable, StartTableRow:
		// Nested Markdown structure: the contents are processed by a
		// fresh Blank frame; the outer Blank resumes once it closes.
		ex.push(frame{kind: blankContext})
		ex.push(frame{kind: blankContext})
		return nil
	case EndBlockQuote, EndList, EndTable, EndTableRow:
		// The nested Blank unwound without ever seeing unmatched
		// content; nothing to emit.
		return nil
	case StartItem:
		ex.push(frame{kind: blankContext})
		ex.push(frame{kind: paragraphContext, paragraphKind: paragraphKindItem})
		return nil
	case StartTableCell:
		ex.push(frame{kind: blankContext})
		ex.push(frame{kind: paragraphContext, paragraphKind: paragraphKindTableCell})
		return nil
	default:
		return apperr.InvalidContext("Markdown content must start but got %v", ev.Kind)
	}
}

func (ex *extractor) processParagraph(f frame, ev Event) error {
	switch ev.Kind {
	case EndParagraph:
		if f.paragraphKind != paragraphKindParagraph {
			return apperr.InvalidContext("paragraph end is expected but got %v", ev.Kind)
		}
		ex.emitParagraph(f.fragments)
		return nil
	case EndItem:
		if f.paragraphKind != paragraphKindItem {
			return apperr.InvalidContext("item end is expected but got %v", ev.Kind)
		}
		ex.emitParagraph(f.fragments)
		return nil
	case EndTableCell:
		if f.paragraphKind != paragraphKindTableCell {
			return apperr.InvalidContext("table cell end is expected but got %v", ev.Kind)
		}
		ex.emitParagraph(f.fragments)
		return nil
	case HardBreakEvent:
		// Ends the current paragraph and starts a new one of the
		// same kind at the same stack level.
		ex.emitParagraph(f.fragments)
		ex.push(frame{kind: paragraphContext, paragraphKind: f.paragraphKind})
		return nil
	case TextEvent:
		f.fragments = appendText(f.fragments, ev.Text, ev.Range)
		ex.push(f)
		return nil
	case CodeEvent, HTMLEvent:
		f.fragments = append(f.fragments, Fragment{Kind: CodeFragment, Content: ev.Text, Range: ev.Range})
		ex.push(f)
		return nil
	case StartLink:
		ex.push(f)
		ex.push(frame{kind: linkContext})
		return nil
	case StartStrikethrough:
		ex.push(f)
		ex.push(frame{kind: strikethroughContext})
		return nil
	case StartStrong, EndStrong, StartEmphasis, EndEmphasis:
		// Decoration only; does not affect the fragment sequence.
		ex.push(f)
		return nil
	case SoftBreakEvent:
		f.fragments = appendSoftBreak(f.fragments)
		ex.push(f)
		return nil
	default:
		return apperr.InvalidContext("not implemented yet: %v", ev.Kind)
	}
}

func (ex *extractor) emitParagraph(fragments []Fragment) {
	ex.blocks = append(ex.blocks, TextBlock{
		Kind:      ParagraphBlock,
		Fragments: fragments,
		Range:     fragmentsRange(fragments),
	})
}

func (ex *extractor) processCodeBlock(f frame, ev Event) error {
	switch ev.Kind {
	case EndCodeBlock:
		if !f.hasCode {
			return apperr.InvalidData("code block must have a code")
		}
		ex.blocks = append(ex.blocks, TextBlock{
			Kind:        CodeBlockBlock,
			Language:    f.language,
			HasLanguage: f.hasLanguage,
			Code:        f.code,
			Range:       f.codeRange,
		})
		return nil
	case TextEvent:
		if f.hasCode {
			return apperr.InvalidContext("code block has multiple code")
		}
		f.hasCode = true
		f.code = ev.Text
		ex.push(f)
		return nil
	default:
		return apperr.InvalidContext("not implemented yet: %v", ev.Kind)
	}
}

func (ex *extractor) processLink(f frame, ev Event) error {
	switch ev.Kind {
	case EndLink:
		fragments := f.fragments
		if len(fragments) == 0 {
			if ev.Title != "" {
				fragments = append(fragments, Fragment{Kind: TextFragment, Content: ev.Title, Range: ev.Range})
			} else {
				fragments = append(fragments, Fragment{Kind: URLFragment, Content: ev.URL, Range: ev.Range})
			}
		}
		for _, fragment := range fragments {
			if err := ex.processFragment(fragment); err != nil {
				return err
			}
		}
		return nil
	case TextEvent:
		f.fragments = append(f.fragments, Fragment{Kind: TextFragment, Content: ev.Text, Range: ev.Range})
		ex.push(f)
		return nil
	case CodeEvent:
		f.fragments = append(f.fragments, Fragment{Kind: CodeFragment, Content: ev.Text, Range: ev.Range})
		ex.push(f)
		return nil
	default:
		return apperr.InvalidContext("not implemented yet: %v", ev.Kind)
	}
}

// processFragment feeds a fragment collected by a Link context into
// the paragraph it is nested in, applying the same text-coalescing
// rule as a direct Text event.
func (ex *extractor) processFragment(fragment Fragment) error {
	top, err := ex.pop()
	if err != nil {
		return err
	}
	if top.kind != paragraphContext {
		return apperr.InvalidContext("nested fragment is not allowed in %s", contextName(top.kind))
	}
	top.fragments = appendFragment(top.fragments, fragment)
	ex.push(top)
	return nil
}

func (ex *extractor) processStrikethrough(f frame, ev Event) error {
	switch ev.Kind {
	case EndStrikethrough:
		return nil
	case TextEvent, CodeEvent:
		ex.push(f)
		return nil
	default:
		return apperr.InvalidContext("not allowed in strikethrough: %v", ev.Kind)
	}
}

func (ex *extractor) finish() ([]TextBlock, error) {
	top, err := ex.pop()
	if err != nil {
		return nil, err
	}
	if top.kind != blankContext || len(ex.stack) != 0 {
		return nil, apperr.InvalidContext("Markdown processing prematurely ended")
	}
	return ex.blocks, nil
}

func contextName(k contextKind) string {
	switch k {
	case blankContext:
		return "Blank"
	case paragraphContext:
		return "Paragraph"
	case codeBlockContext:
		return "CodeBlock"
	case linkContext:
		return "Link"
	case strikethroughContext:
		return "Strikethrough"
	default:
		return fmt.Sprintf("contextKind(%d)", k)
	}
}

// appendText implements the Text-event coalescing rule: contiguous
// plain text is concatenated into one Fragment whose range spans from
// the first start to the last end.
func appendText(fragments []Fragment, text string, r Range) []Fragment {
	return appendFragment(fragments, Fragment{Kind: TextFragment, Content: text, Range: r})
}

// appendFragment appends fragment to fragments, coalescing it into
// the last fragment if both are Text.
func appendFragment(fragments []Fragment, fragment Fragment) []Fragment {
	if n := len(fragments); n > 0 && fragments[n-1].isText() && fragment.Kind == TextFragment {
		last := &fragments[n-1]
		last.Content += fragment.Content
		last.Range.End = fragment.Range.End
		return fragments
	}
	return append(fragments, fragment)
}

// appendSoftBreak appends a line break to the last fragment iff it is
// Text, leaving its range untouched (the break contributes no new
// source bytes to the fragment's own span).
func appendSoftBreak(fragments []Fragment) []Fragment {
	if n := len(fragments); n > 0 && fragments[n-1].isText() {
		fragments[n-1].Content += "\n"
	}
	return fragments
}

// fragmentsRange computes a paragraph block's range as spanning its
// first fragment's start to its last fragment's end. An empty
// fragment list (possible for a hard break immediately closing a
// paragraph) yields NullRange.
func fragmentsRange(fragments []Fragment) Range {
	if len(fragments) == 0 {
		return NullRange()
	}
	return Range{Start: fragments[0].Range.Start, End: fragments[len(fragments)-1].Range.End}
}
