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

// Package markdown extracts an ordered sequence of text blocks from a
// Markdown event stream, preserving byte offsets back into the
// original source.
package markdown

import "fmt"

// Range is a half-open byte interval [Start, End) into a source
// document.
type Range struct {
	Start int
	End   int
}

// NullRange returns an invalid Range, used as a zero value sentinel
// before a Range has been determined.
func NullRange() Range {
	return Range{Start: -1, End: -1}
}

// IsValid reports whether r was built from real offsets.
func (r Range) IsValid() bool {
	return r.Start >= 0 && r.End >= r.Start
}

// Contains reports whether r lies entirely within other.
func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

func (r Range) String() string {
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}
