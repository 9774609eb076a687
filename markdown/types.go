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

// FragmentKind identifies the content type of an inline Fragment.
// Fragment kind governs how the Sentence Transducer later interprets
// a fragment's characters: Text is scanned character by character,
// Code and URL are opaque tokens that never induce a sentence break.
type FragmentKind uint8

const (
	_ FragmentKind = iota

	// TextFragment is ordinary text.
	TextFragment
	// CodeFragment is inline code or raw HTML.
	CodeFragment
	// URLFragment is the destination of a link with no visible text.
	URLFragment
)

func (k FragmentKind) String() string {
	switch k {
	case TextFragment:
		return "Text"
	case CodeFragment:
		return "Code"
	case URLFragment:
		return "Url"
	default:
		return "FragmentKind(0)"
	}
}

// Fragment is a typed, byte-ranged piece of inline content within a
// paragraph-like TextBlock.
type Fragment struct {
	Kind    FragmentKind
	Content string
	Range   Range
}

// isText reports whether f holds ordinary text, the only kind that
// coalesces with its neighbor.
func (f Fragment) isText() bool {
	return f.Kind == TextFragment
}

// BlockKind identifies the shape of a TextBlock.
type BlockKind uint8

const (
	_ BlockKind = iota

	// ParagraphBlock is a paragraph or list item body: a sequence of
	// inline fragments.
	ParagraphBlock
	// CodeBlockBlock is a fenced or indented code block: a single
	// opaque body.
	CodeBlockBlock
)

func (k BlockKind) String() string {
	switch k {
	case ParagraphBlock:
		return "Text"
	case CodeBlockBlock:
		return "Code"
	default:
		return "BlockKind(0)"
	}
}

// TextBlock is a maximal span of user-visible content at paragraph,
// list-item, or code-block granularity.
//
// Fragments is populated when Kind is ParagraphBlock. Language,
// HasLanguage, and Code are populated when Kind is CodeBlockBlock;
// HasLanguage distinguishes a fenced block with no info string
// (HasLanguage true, Language "") from an indented code block
// (HasLanguage false).
type TextBlock struct {
	Kind        BlockKind
	Fragments   []Fragment
	Language    string
	HasLanguage bool
	Code        string
	Range       Range
}
