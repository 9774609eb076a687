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
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/extension"
)

func gfmExtensions() []goldmark.Extender {
	return []goldmark.Extender{extension.GFM}
}

func isStrikethrough(n gmast.Node) bool {
	return n.Kind() == extast.KindStrikethrough
}

// isTaskCheckBox reports whether n is a GFM task-list checkbox marker.
// It carries only a checked bit, not text, so the Item containing it
// is still processed as an ordinary nested paragraph; the box itself
// contributes nothing to the event stream.
func isTaskCheckBox(n gmast.Node) bool {
	return n.Kind() == extast.KindTaskCheckBox
}
