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

// Package posts models a user's mumblings, splits them into sentences
// ready for embedding, and orchestrates batched embedding creation.
package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/codemonger-io/mumble-embedding/apperr"
	"github.com/codemonger-io/mumble-embedding/embedding"
	"github.com/codemonger-io/mumble-embedding/internal/mdadapt"
	"github.com/codemonger-io/mumble-embedding/markdown"
	"github.com/codemonger-io/mumble-embedding/sentence"
)

// Post is a single mumbling as stored in the object store.
type Post struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Content   string      `json:"content"`
	Published string      `json:"published"`
	Source    *PostSource `json:"source,omitempty"`
}

// PostSource is an alternate-format rendering of a post's content,
// e.g. a longer essay attached to a short-form post. When present, it
// supersedes Post.Content as the text to segment.
type PostSource struct {
	Content   string `json:"content"`
	MediaType string `json:"mediaType"`
}

// body returns the Markdown text to segment: the attached source's
// content when present, the post's own content otherwise.
func (p Post) body() string {
	if p.Source != nil {
		return p.Source.Content
	}
	return p.Content
}

// Sentence is one sentence extracted from a post, with its range in
// the post's body.
type Sentence struct {
	PostID  string
	Content string
	Range   markdown.Range
}

// ID returns a stable identifier for the sentence, derived from its
// source post and position: "{post_id}#{start}-{end}".
func (s Sentence) ID() string {
	return fmt.Sprintf("%s#%d-%d", s.PostID, s.Range.Start, s.Range.End)
}

// SplitPostIntoSentences segments post's body into sentences by
// running it through the Markdown event adapter, the Block Extractor,
// and the Sentence Transducer in turn.
func SplitPostIntoSentences(post Post) ([]Sentence, error) {
	events, err := mdadapt.Events([]byte(post.body()))
	if err != nil {
		return nil, err
	}
	blocks, err := markdown.ExtractTextBlocks(events)
	if err != nil {
		return nil, err
	}
	var sentences []Sentence
	for _, block := range blocks {
		for _, s := range sentence.ExtractSentences(block) {
			sentences = append(sentences, Sentence{
				PostID:  post.ID,
				Content: s.Text,
				Range:   s.Range,
			})
		}
	}
	return sentences, nil
}

// Embedding is an embedding vector produced from a sentence's
// content, keyed by the sentence's stable ID.
type Embedding struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Embedding []float64 `json:"embedding"`
}

// Unmarshal decodes a JSON-encoded Embedding, the format persisted by
// the CLI's create subcommand and consumed by its build subcommand.
func Unmarshal(data []byte) (Embedding, error) {
	var e Embedding
	if err := json.Unmarshal(data, &e); err != nil {
		return Embedding{}, fmt.Errorf("decode embedding: %w", err)
	}
	return e, nil
}

// Marshal encodes e as JSON.
func (e Embedding) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// CreateEmbeddingsForSentences requests one embedding vector per
// sentence in a single batched call, re-sorting the API's response by
// its returned index before zipping it back with the sentences that
// produced it (the API does not guarantee response order matches
// request order).
func CreateEmbeddingsForSentences(ctx context.Context, client *embedding.Client, sentences []Sentence, logger *zap.Logger) ([]Embedding, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(sentences) == 0 {
		return nil, nil
	}
	inputs := make([]string, len(sentences))
	for i, s := range sentences {
		inputs[i] = s.Content
	}
	data, usage, err := client.CreateEmbeddings(ctx, embedding.DefaultModel, inputs)
	if err != nil {
		return nil, err
	}
	logger.Info("created embeddings",
		zap.Int("count", len(sentences)),
		zap.Int64("prompt_tokens", usage.PromptTokens),
		zap.Int64("total_tokens", usage.TotalTokens),
	)
	return zipSentencesWithData(sentences, data)
}

// zipSentencesWithData sorts data by its reported Index and pairs each
// sentence with the embedding vector computed for it, failing if their
// counts don't match.
func zipSentencesWithData(sentences []Sentence, data []embedding.Datum) ([]Embedding, error) {
	if len(data) != len(sentences) {
		return nil, apperr.InvalidData(
			"failed to create embeddings for one or more sentences: got %d for %d", len(data), len(sentences),
		)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	embeddings := make([]Embedding, len(sentences))
	for i, s := range sentences {
		embeddings[i] = Embedding{
			ID:        s.ID(),
			Content:   s.Content,
			Embedding: data[i].Embedding,
		}
	}
	return embeddings, nil
}
