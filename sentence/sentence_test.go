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
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/codemonger-io/mumble-embedding/markdown"
)

func textBlock(fragments ...markdown.Fragment) markdown.TextBlock {
	r := markdown.NullRange()
	if len(fragments) > 0 {
		r = markdown.Range{Start: fragments[0].Range.Start, End: fragments[len(fragments)-1].Range.End}
	}
	return markdown.TextBlock{Kind: markdown.ParagraphBlock, Fragments: fragments, Range: r}
}

func textFragment(s string, start, end int) markdown.Fragment {
	return markdown.Fragment{Kind: markdown.TextFragment, Content: s, Range: markdown.Range{Start: start, End: end}}
}

func TestExtractSentencesSimpleText(t *testing.T) {
	block := textBlock(textFragment("simple text", 0, 11))
	got := ExtractSentences(block)
	want := []Sentence{{Text: "simple text", Range: markdown.Range{Start: 0, End: 11}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractSentences(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSentencesCodeThenText(t *testing.T) {
	block := textBlock(
		markdown.Fragment{Kind: markdown.CodeFragment, Content: "<unnamed>", Range: markdown.Range{Start: 0, End: 9}},
		textFragment(" panicked at", 9, 21),
	)
	got := ExtractSentences(block)
	want := []Sentence{{Text: "<unnamed> panicked at", Range: markdown.Range{Start: 0, End: 21}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractSentences(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSentencesTwoSentences(t *testing.T) {
	block := textBlock(textFragment("Hello. World!", 0, 13))
	got := ExtractSentences(block)
	want := []Sentence{
		{Text: "Hello.", Range: markdown.Range{Start: 0, End: 6}},
		{Text: "World!", Range: markdown.Range{Start: 7, End: 13}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractSentences(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSentencesPeriodFollowedByLetterDoesNotSplit(t *testing.T) {
	// The first period in "e.g." is immediately followed by a letter,
	// so it rolls back rather than committing a break, unlike the
	// second period, which is followed by whitespace and does commit.
	block := textBlock(textFragment("See e.g. foo.", 0, 13))
	got := ExtractSentences(block)
	want := []Sentence{
		{Text: "See e.g.", Range: markdown.Range{Start: 0, End: 8}},
		{Text: "foo.", Range: markdown.Range{Start: 9, End: 13}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractSentences(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSentencesParagraphBreak(t *testing.T) {
	a := ExtractSentences(textBlock(textFragment("A", 0, 1)))
	b := ExtractSentences(textBlock(textFragment("B", 3, 4)))
	wantA := []Sentence{{Text: "A", Range: markdown.Range{Start: 0, End: 1}}}
	wantB := []Sentence{{Text: "B", Range: markdown.Range{Start: 3, End: 4}}}
	if diff := cmp.Diff(wantA, a); diff != "" {
		t.Errorf("ExtractSentences(A) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantB, b); diff != "" {
		t.Errorf("ExtractSentences(B) mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSentencesCodeBlock(t *testing.T) {
	block := markdown.TextBlock{
		Kind:        markdown.CodeBlockBlock,
		Language:    "rust",
		HasLanguage: true,
		Code:        "fn x(){}\n",
		Range:       markdown.Range{Start: 0, End: 20},
	}
	got := ExtractSentences(block)
	want := []Sentence{{Text: "fn x(){}\n", Range: markdown.Range{Start: 0, End: 20}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractSentences(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSentencesTrailingWhitespaceNoEmptySentence(t *testing.T) {
	block := textBlock(textFragment("Done.   ", 0, 8))
	got := ExtractSentences(block)
	if len(got) != 1 {
		t.Fatalf("ExtractSentences(...) = %d sentences; want 1: %+v", len(got), got)
	}
	if got[0].Text != "Done." {
		t.Errorf("ExtractSentences(...)[0].Text = %q; want %q", got[0].Text, "Done.")
	}
}

func TestExtractSentencesOpaqueTokenNeverSplits(t *testing.T) {
	block := textBlock(
		textFragment("visit ", 0, 6),
		markdown.Fragment{Kind: markdown.URLFragment, Content: "https://a.b/x.y?z=1", Range: markdown.Range{Start: 6, End: 25}},
		textFragment(" now.", 25, 30),
	)
	got := ExtractSentences(block)
	if len(got) != 1 {
		t.Fatalf("ExtractSentences(...) = %d sentences; want 1: %+v", len(got), got)
	}
	want := "visit https://a.b/x.y?z=1 now."
	if got[0].Text != want {
		t.Errorf("ExtractSentences(...)[0].Text = %q; want %q", got[0].Text, want)
	}
}

func TestExtractSentencesWhitespaceUnambiguousTerminator(t *testing.T) {
	// "Wait !" - whitespace pending, then an unambiguous terminator:
	// drop the whitespace, commit the terminator, start a fresh
	// sentence.
	block := textBlock(textFragment("Wait !Go", 0, 8))
	got := ExtractSentences(block)
	want := []Sentence{
		{Text: "Wait!", Range: markdown.Range{Start: 0, End: 6}},
		{Text: "Go", Range: markdown.Range{Start: 6, End: 8}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractSentences(...) mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractSentencesFullwidthTerminatorFolds(t *testing.T) {
	block := textBlock(textFragment("これは文です。次。", 0, 9))
	got := ExtractSentences(block)
	if len(got) != 2 {
		t.Fatalf("ExtractSentences(...) = %d sentences; want 2: %+v", len(got), got)
	}
}
