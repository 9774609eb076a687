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

// Package mdadapt turns a goldmark Markdown document into the flat,
// byte-ranged event stream the markdown package's Block Extractor
// consumes. It is the upstream parser named as an external
// collaborator: the Block Extractor itself never imports goldmark.
package mdadapt

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/codemonger-io/mumble-embedding/apperr"
	"github.com/codemonger-io/mumble-embedding/markdown"
)

// md is the shared parser configuration: GFM tables, strikethrough,
// task lists, and autolinks, matching the extension set the Block
// Extractor's contract requires.
var md = goldmark.New(
	goldmark.WithExtensions(gfmExtensions()...),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Events parses source as Markdown and returns the event stream
// describing it, in document order.
func Events(source []byte) ([]markdown.Event, error) {
	doc := md.Parser().Parse(text.NewReader(source))
	a := &adapter{source: source}
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		if err := a.visitBlock(child); err != nil {
			return nil, err
		}
	}
	return a.events, nil
}

type adapter struct {
	source []byte
	events []markdown.Event
}

func (a *adapter) emit(ev markdown.Event) {
	a.events = append(a.events, ev)
}

// visitBlock dispatches a block-level node. A Paragraph/TextBlock
// reached here is wrapped in its own StartParagraph/EndParagraph; the
// ones directly under a list item are flattened by visitListItem
// instead.
func (a *adapter) visitBlock(n gmast.Node) error {
	switch n.Kind() {
	case gmast.KindParagraph, gmast.KindTextBlock:
		return a.visitParagraphLike(n, markdown.StartParagraph, markdown.EndParagraph)
	case gmast.KindBlockquote:
		a.emit(markdown.Event{Kind: markdown.StartBlockQuote})
		if err := a.visitBlockChildren(n); err != nil {
			return err
		}
		a.emit(markdown.Event{Kind: markdown.EndBlockQuote})
		return nil
	case gmast.KindList:
		a.emit(markdown.Event{Kind: markdown.StartList})
		if err := a.visitBlockChildren(n); err != nil {
			return err
		}
		a.emit(markdown.Event{Kind: markdown.EndList})
		return nil
	case gmast.KindListItem:
		return a.visitListItem(n)
	case gmast.KindCodeBlock, gmast.KindFencedCodeBlock:
		return a.visitCodeBlock(n)
	case extast.KindTable:
		a.emit(markdown.Event{Kind: markdown.StartTable})
		if err := a.visitBlockChildren(n); err != nil {
			return err
		}
		a.emit(markdown.Event{Kind: markdown.EndTable})
		return nil
	case extast.KindTableHeader, extast.KindTableRow:
		a.emit(markdown.Event{Kind: markdown.StartTableRow})
		if err := a.visitTableCells(n); err != nil {
			return err
		}
		a.emit(markdown.Event{Kind: markdown.EndTableRow})
		return nil
	default:
		return apperr.InvalidContext("unsupported markdown block: %s", n.Kind())
	}
}

func (a *adapter) visitBlockChildren(n gmast.Node) error {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if err := a.visitBlock(child); err != nil {
			return err
		}
	}
	return nil
}

// visitListItem flattens every Paragraph/TextBlock child of a list
// item directly into the Item context, whether the list is tight or
// loose: the Block Extractor expects inline content immediately after
// StartItem, with no nested StartParagraph. Any other child block
// (such as a nested List or Blockquote) is emitted under the Item
// through visitBlock.
func (a *adapter) visitListItem(n gmast.Node) error {
	a.emit(markdown.Event{Kind: markdown.StartItem})
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case gmast.KindParagraph, gmast.KindTextBlock:
			if err := a.visitInlineChildren(child); err != nil {
				return err
			}
		default:
			if err := a.visitBlock(child); err != nil {
				return err
			}
		}
	}
	a.emit(markdown.Event{Kind: markdown.EndItem})
	return nil
}

func (a *adapter) visitTableCells(n gmast.Node) error {
	for cell := n.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if cell.Kind() != extast.KindTableCell {
			return apperr.InvalidContext("unsupported markdown block: %s", cell.Kind())
		}
		a.emit(markdown.Event{Kind: markdown.StartTableCell})
		if err := a.visitInlineChildren(cell); err != nil {
			return err
		}
		a.emit(markdown.Event{Kind: markdown.EndTableCell})
	}
	return nil
}

func (a *adapter) visitParagraphLike(n gmast.Node, start, end markdown.EventKind) error {
	a.emit(markdown.Event{Kind: start})
	if err := a.visitInlineChildren(n); err != nil {
		return err
	}
	a.emit(markdown.Event{Kind: end})
	return nil
}

func (a *adapter) visitCodeBlock(n gmast.Node) error {
	lines := n.Lines()
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(a.source))
	}
	r := markdown.NullRange()
	if lines.Len() > 0 {
		r = markdown.Range{Start: lines.At(0).Start, End: lines.At(lines.Len() - 1).Stop}
	}
	ev := markdown.Event{Kind: markdown.StartCodeBlock, Range: r}
	if fenced, ok := n.(*gmast.FencedCodeBlock); ok {
		if lang := fenced.Language(a.source); lang != nil {
			ev.Language = string(lang)
			ev.HasLanguage = true
		} else {
			ev.HasLanguage = true
		}
	}
	a.emit(ev)
	a.emit(markdown.Event{Kind: markdown.TextEvent, Text: buf.String(), Range: r})
	a.emit(markdown.Event{Kind: markdown.EndCodeBlock})
	return nil
}

// visitInlineChildren walks the inline content of a paragraph-like or
// table-cell node, translating Text nodes character-range by
// character-range and interleaving SoftBreak/HardBreak events exactly
// where the source line breaks.
func (a *adapter) visitInlineChildren(n gmast.Node) error {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if err := a.visitInline(child); err != nil {
			return err
		}
	}
	return nil
}

func (a *adapter) visitInline(n gmast.Node) error {
	switch v := n.(type) {
	case *gmast.Text:
		seg := v.Segment
		a.emit(markdown.Event{
			Kind:  markdown.TextEvent,
			Text:  string(seg.Value(a.source)),
			Range: markdown.Range{Start: seg.Start, End: seg.Stop},
		})
		switch {
		case v.HardLineBreak():
			a.emit(markdown.Event{Kind: markdown.HardBreakEvent})
		case v.SoftLineBreak():
			a.emit(markdown.Event{Kind: markdown.SoftBreakEvent})
		}
		return nil
	case *gmast.String:
		a.emit(markdown.Event{Kind: markdown.TextEvent, Text: string(v.Value)})
		return nil
	case *gmast.CodeSpan:
		text, r := a.collectInlineText(v)
		a.emit(markdown.Event{Kind: markdown.CodeEvent, Text: text, Range: r})
		return nil
	case *gmast.RawHTML:
		text, r := a.collectSegments(v.Segments)
		a.emit(markdown.Event{Kind: markdown.HTMLEvent, Text: text, Range: r})
		return nil
	case *gmast.AutoLink:
		url := string(v.URL(a.source))
		label := string(v.Label(a.source))
		a.emit(markdown.Event{Kind: markdown.StartLink})
		if label != "" {
			a.emit(markdown.Event{Kind: markdown.TextEvent, Text: label})
		}
		a.emit(markdown.Event{Kind: markdown.EndLink, URL: url})
		return nil
	case *gmast.Link:
		a.emit(markdown.Event{Kind: markdown.StartLink})
		if err := a.visitInlineChildren(n); err != nil {
			return err
		}
		a.emit(markdown.Event{Kind: markdown.EndLink, URL: string(v.Destination), Title: string(v.Title)})
		return nil
	case *gmast.Emphasis:
		start, end := markdown.StartEmphasis, markdown.EndEmphasis
		if v.Level >= 2 {
			start, end = markdown.StartStrong, markdown.EndStrong
		}
		a.emit(markdown.Event{Kind: start})
		if err := a.visitInlineChildren(n); err != nil {
			return err
		}
		a.emit(markdown.Event{Kind: end})
		return nil
	default:
		if isStrikethrough(n) {
			a.emit(markdown.Event{Kind: markdown.StartStrikethrough})
			if err := a.visitInlineChildren(n); err != nil {
				return err
			}
			a.emit(markdown.Event{Kind: markdown.EndStrikethrough})
			return nil
		}
		if isTaskCheckBox(n) {
			return nil
		}
		return apperr.InvalidContext("unsupported markdown inline node: %s", n.Kind())
	}
}

func (a *adapter) collectInlineText(n gmast.Node) (string, markdown.Range) {
	var buf bytes.Buffer
	r := markdown.NullRange()
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		t, ok := child.(*gmast.Text)
		if !ok {
			continue
		}
		buf.Write(t.Segment.Value(a.source))
		if !r.IsValid() {
			r = markdown.Range{Start: t.Segment.Start, End: t.Segment.Stop}
		} else {
			r.End = t.Segment.Stop
		}
	}
	return buf.String(), r
}

func (a *adapter) collectSegments(segs *text.Segments) (string, markdown.Range) {
	var buf bytes.Buffer
	r := markdown.NullRange()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		buf.Write(seg.Value(a.source))
		if !r.IsValid() {
			r = markdown.Range{Start: seg.Start, End: seg.Stop}
		} else {
			r.End = seg.Stop
		}
	}
	return buf.String(), r
}
