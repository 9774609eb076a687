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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codemonger-io/mumble-embedding/embedding"
	"github.com/codemonger-io/mumble-embedding/internal/config"
	"github.com/codemonger-io/mumble-embedding/objectstore"
	"github.com/codemonger-io/mumble-embedding/pipestream"
	"github.com/codemonger-io/mumble-embedding/posts"
)

const createBatchSize = 10
const createConcurrency = 4

var createCmd = &cobra.Command{
	Use:   "create <username> <out-dir>",
	Short: "Segments a user's mumblings into sentences and creates embeddings for them",
	Args:  cobra.ExactArgs(2),
	RunE:  runCreate,
}

func runCreate(cmd *cobra.Command, args []string) error {
	username, outDir := args[0], args[1]
	ctx := cmd.Context()
	logger := zap.L()

	cfg := config.Load()
	if err := config.Require(
		[2]string{"OBJECTS_BUCKET_NAME", cfg.ObjectsBucketName},
		[2]string{"OPENAI_API_KEY", cfg.OpenAIAPIKey},
	); err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	store, err := objectstore.NewStore(ctx, cfg.ObjectsBucketName, logger)
	if err != nil {
		return err
	}

	logger.Info("pulling mumblings", zap.String("username", username))
	prefix := fmt.Sprintf("objects/users/%s/posts/", username)
	keys, err := store.ListKeys(ctx, prefix)
	if err != nil {
		return err
	}

	var allSentences []posts.Sentence
	for _, key := range keys {
		logger.Info("retrieving post", zap.String("key", key))
		body, err := store.Fetch(ctx, key)
		if err != nil {
			return err
		}
		var post posts.Post
		if err := json.Unmarshal(body, &post); err != nil {
			return fmt.Errorf("decode post %s: %w", key, err)
		}
		sentences, err := posts.SplitPostIntoSentences(post)
		if err != nil {
			return fmt.Errorf("split post %s into sentences: %w", key, err)
		}
		allSentences = append(allSentences, sentences...)
	}
	logger.Info("segmented mumblings", zap.Int("sentences", len(allSentences)))

	client := embedding.NewClient(cfg.OpenAIAPIKey, logger)

	in := make(chan posts.Sentence, len(allSentences))
	for _, s := range allSentences {
		in <- s
	}
	close(in)
	batches := pipestream.Chunk[posts.Sentence](in, createBatchSize)
	results := pipestream.MapAsync(ctx, batches, createConcurrency, func(ctx context.Context, batch []posts.Sentence) ([]posts.Embedding, error) {
		return posts.CreateEmbeddingsForSentences(ctx, client, batch, logger)
	})
	embeddings, err := pipestream.Collect(pipestream.FlattenResults(results))
	if err != nil {
		return fmt.Errorf("create embeddings: %w", err)
	}

	for _, e := range embeddings {
		path := filepath.Join(outDir, sanitizeFilename(e.ID)+".json")
		data, err := e.Marshal()
		if err != nil {
			return fmt.Errorf("encode embedding %s: %w", e.ID, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write embedding %s: %w", path, err)
		}
		logger.Info("saved embedding", zap.String("id", e.ID), zap.String("path", path))
	}
	return nil
}

// sanitizeFilename replaces characters a sentence ID carries
// ("{post_id}#{start}-{end}", where post_id may itself contain
// slashes) that aren't safe in a single path segment.
func sanitizeFilename(id string) string {
	return strings.NewReplacer("/", "_", "#", "_").Replace(id)
}
