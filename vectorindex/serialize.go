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

package vectorindex

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Serialize encodes idx into a single self-contained blob, the Go
// equivalent of the original database's on-disk protobuf layout
// (here a single file rather than one object per partition/codebook,
// since nothing in this pipeline streams a database larger than
// fits in memory).
func (idx *Index) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(idx); err != nil {
		return nil, fmt.Errorf("serialize vector index: %w", err)
	}
	return buf.Bytes(), nil
}

// Load decodes an Index previously written by Serialize.
func Load(data []byte) (*Index, error) {
	var idx Index
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&idx); err != nil {
		return nil, fmt.Errorf("load vector index: %w", err)
	}
	return &idx, nil
}
