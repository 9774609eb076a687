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

package posts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemonger-io/mumble-embedding/apperr"
	"github.com/codemonger-io/mumble-embedding/embedding"
)

func TestSplitPostIntoSentencesUsesContentByDefault(t *testing.T) {
	post := Post{ID: "post-1", Content: "Hello. World!\n"}
	sentences, err := SplitPostIntoSentences(post)
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	assert.Equal(t, "Hello.", sentences[0].Content)
	assert.Equal(t, "World!", sentences[1].Content)
	assert.Equal(t, "post-1", sentences[0].PostID)
}

func TestSplitPostIntoSentencesPrefersSource(t *testing.T) {
	post := Post{
		ID:      "post-2",
		Content: "short form",
		Source:  &PostSource{Content: "Longer essay. Second sentence.\n", MediaType: "text/markdown"},
	}
	sentences, err := SplitPostIntoSentences(post)
	require.NoError(t, err)
	require.Len(t, sentences, 2)
	assert.Equal(t, "Longer essay.", sentences[0].Content)
}

func TestSplitPostIntoSentencesRejectsUnsupportedMarkdown(t *testing.T) {
	post := Post{ID: "post-3", Content: "# Heading\n"}
	_, err := SplitPostIntoSentences(post)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidContext))
}

func TestSentenceIDEncodesPostAndRange(t *testing.T) {
	post := Post{ID: "post-1", Content: "Hello. World!\n"}
	sentences, err := SplitPostIntoSentences(post)
	require.NoError(t, err)
	assert.Equal(t, "post-1#0-6", sentences[0].ID())
}

func TestZipSentencesWithDataReordersByIndex(t *testing.T) {
	sentences := []Sentence{
		{PostID: "p", Content: "first"},
		{PostID: "p", Content: "second"},
	}
	data := []embedding.Datum{
		{Index: 1, Embedding: []float64{0.2}},
		{Index: 0, Embedding: []float64{0.1}},
	}
	embeddings, err := zipSentencesWithData(sentences, data)
	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Equal(t, []float64{0.1}, embeddings[0].Embedding)
	assert.Equal(t, []float64{0.2}, embeddings[1].Embedding)
	assert.Equal(t, "first", embeddings[0].Content)
}

func TestZipSentencesWithDataCountMismatchFails(t *testing.T) {
	sentences := []Sentence{{PostID: "p", Content: "only one"}}
	_, err := zipSentencesWithData(sentences, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidData))
}

func TestEmbeddingMarshalRoundTrips(t *testing.T) {
	e := Embedding{ID: "post-1#0-6", Content: "Hello.", Embedding: []float64{0.1, 0.2}}
	data, err := e.Marshal()
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}
