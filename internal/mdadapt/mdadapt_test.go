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

package mdadapt

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codemonger-io/mumble-embedding/apperr"
	"github.com/codemonger-io/mumble-embedding/markdown"
)

func TestEventsSimpleParagraph(t *testing.T) {
	got, err := Events([]byte("hi there\n"))
	if err != nil {
		t.Fatalf("Events(...) error = %v", err)
	}
	want := []markdown.Event{
		{Kind: markdown.StartParagraph},
		{Kind: markdown.TextEvent, Text: "hi there", Range: markdown.Range{Start: 0, End: 8}},
		{Kind: markdown.EndParagraph},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Events(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestEventsFencedCodeBlock(t *testing.T) {
	got, err := Events([]byte("```rust\nfn x(){}\n```\n"))
	if err != nil {
		t.Fatalf("Events(...) error = %v", err)
	}
	codeRange := markdown.Range{Start: 8, End: 17}
	want := []markdown.Event{
		{Kind: markdown.StartCodeBlock, Range: codeRange, Language: "rust", HasLanguage: true},
		{Kind: markdown.TextEvent, Text: "fn x(){}\n", Range: codeRange},
		{Kind: markdown.EndCodeBlock},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Events(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestEventsTightListItemFlattensParagraph(t *testing.T) {
	got, err := Events([]byte("- item one\n"))
	if err != nil {
		t.Fatalf("Events(...) error = %v", err)
	}
	want := []markdown.Event{
		{Kind: markdown.StartList},
		{Kind: markdown.StartItem},
		{Kind: markdown.TextEvent, Text: "item one", Range: markdown.Range{Start: 2, End: 10}},
		{Kind: markdown.EndItem},
		{Kind: markdown.EndList},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Events(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestEventsLinkWithText(t *testing.T) {
	got, err := Events([]byte("see [text](http://x.y) now\n"))
	if err != nil {
		t.Fatalf("Events(...) error = %v", err)
	}
	want := []markdown.Event{
		{Kind: markdown.StartParagraph},
		{Kind: markdown.TextEvent, Text: "see ", Range: markdown.Range{Start: 0, End: 4}},
		{Kind: markdown.StartLink},
		{Kind: markdown.TextEvent, Text: "text", Range: markdown.Range{Start: 5, End: 9}},
		{Kind: markdown.EndLink, URL: "http://x.y"},
		{Kind: markdown.TextEvent, Text: " now", Range: markdown.Range{Start: 22, End: 26}},
		{Kind: markdown.EndParagraph},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Events(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestEventsStrikethroughAbsorbsText(t *testing.T) {
	got, err := Events([]byte("a ~~gone~~ b\n"))
	if err != nil {
		t.Fatalf("Events(...) error = %v", err)
	}
	want := []markdown.Event{
		{Kind: markdown.StartParagraph},
		{Kind: markdown.TextEvent, Text: "a ", Range: markdown.Range{Start: 0, End: 2}},
		{Kind: markdown.StartStrikethrough},
		{Kind: markdown.TextEvent, Text: "gone", Range: markdown.Range{Start: 4, End: 8}},
		{Kind: markdown.EndStrikethrough},
		{Kind: markdown.TextEvent, Text: " b", Range: markdown.Range{Start: 10, End: 12}},
		{Kind: markdown.EndParagraph},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Events(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestEventsStrongEmphasis(t *testing.T) {
	got, err := Events([]byte("a **b** c\n"))
	if err != nil {
		t.Fatalf("Events(...) error = %v", err)
	}
	want := []markdown.Event{
		{Kind: markdown.StartParagraph},
		{Kind: markdown.TextEvent, Text: "a ", Range: markdown.Range{Start: 0, End: 2}},
		{Kind: markdown.StartStrong},
		{Kind: markdown.TextEvent, Text: "b", Range: markdown.Range{Start: 4, End: 5}},
		{Kind: markdown.EndStrong},
		{Kind: markdown.TextEvent, Text: " c", Range: markdown.Range{Start: 7, End: 9}},
		{Kind: markdown.EndParagraph},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Events(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestEventsHeadingIsUnsupported(t *testing.T) {
	_, err := Events([]byte("# Title\n"))
	if !errors.Is(err, apperr.ErrInvalidContext) {
		t.Fatalf("Events(...) error = %v; want ErrInvalidContext", err)
	}
}

func TestEventsRoundTripsThroughExtractor(t *testing.T) {
	events, err := Events([]byte("Hello. World!\n"))
	if err != nil {
		t.Fatalf("Events(...) error = %v", err)
	}
	blocks, err := markdown.ExtractTextBlocks(events)
	if err != nil {
		t.Fatalf("ExtractTextBlocks(...) error = %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("ExtractTextBlocks(...) = %d blocks; want 1", len(blocks))
	}
	if len(blocks[0].Fragments) != 1 || blocks[0].Fragments[0].Content != "Hello. World!" {
		t.Errorf("ExtractTextBlocks(...)[0].Fragments = %+v; want single fragment %q", blocks[0].Fragments, "Hello. World!")
	}
}
