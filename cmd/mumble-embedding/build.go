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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codemonger-io/mumble-embedding/embedding"
	"github.com/codemonger-io/mumble-embedding/internal/config"
	"github.com/codemonger-io/mumble-embedding/objectstore"
	"github.com/codemonger-io/mumble-embedding/posts"
	"github.com/codemonger-io/mumble-embedding/vectorindex"
)

// defaultK and defaultNprobe match the values the original CLI uses
// for its optional test query.
const defaultK = 10
const defaultNprobe = 1

var (
	testQuery  string
	useS3Build bool
)

var buildCmd = &cobra.Command{
	Use:   "build <in-dir> <out-path>",
	Short: "Builds a vector index from a directory of embedding files",
	Args:  cobra.ExactArgs(2),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&testQuery, "test-query", "", "run a nearest-neighbor test query against the freshly built index")
	buildCmd.Flags().BoolVar(&useS3Build, "s3", false, "upload the built index to the database bucket instead of writing it locally")
}

func runBuild(cmd *cobra.Command, args []string) error {
	inDir, outPath := args[0], args[1]
	ctx := cmd.Context()
	logger := zap.L()

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return fmt.Errorf("read input directory: %w", err)
	}

	cfg := vectorindex.DefaultConfig()
	var vectors []vectorindex.Vector
	contentByID := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(inDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		e, err := posts.Unmarshal(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		if len(e.Embedding) != cfg.VectorSize {
			return fmt.Errorf("embedding %s has size %d, want %d", e.ID, len(e.Embedding), cfg.VectorSize)
		}
		vectors = append(vectors, vectorindex.Vector{ID: e.ID, Values: toFloat32(e.Embedding)})
		contentByID[e.ID] = e.Content
	}
	logger.Info("loaded embeddings", zap.Int("count", len(vectors)))

	idx, err := vectorindex.Build(vectors, cfg, func(e vectorindex.BuildEvent) {
		logger.Info("build progress", zap.String("event", e.String()))
	})
	if err != nil {
		return fmt.Errorf("build vector index: %w", err)
	}
	for i, v := range vectors {
		if err := idx.SetAttributeAt(i, "content_id", vectorindex.StringAttribute(v.ID)); err != nil {
			return fmt.Errorf("attach content_id to vector %d: %w", i, err)
		}
	}

	if testQuery != "" {
		if err := runTestQuery(ctx, idx, testQuery, contentByID, logger); err != nil {
			return fmt.Errorf("test query: %w", err)
		}
	}

	blob, err := idx.Serialize()
	if err != nil {
		return fmt.Errorf("serialize vector index: %w", err)
	}

	if useS3Build {
		cfg := config.Load()
		if err := config.Require([2]string{"DATABASE_BUCKET_NAME", cfg.DatabaseBucketName}); err != nil {
			return err
		}
		store, err := objectstore.NewStore(ctx, cfg.DatabaseBucketName, logger)
		if err != nil {
			return err
		}
		if err := store.Upload(ctx, outPath, blob); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(outPath, blob, 0644); err != nil {
			return fmt.Errorf("write vector index: %w", err)
		}
	}
	logger.Info("saved vector index", zap.String("path", outPath), zap.Bool("s3", useS3Build))
	return nil
}

// runTestQuery embeds queryText and reports its nearest neighbors
// against the freshly built index, printing each result's sentence
// content directly from the embeddings just loaded (the persisted
// `query` subcommand reports only each result's content ID).
func runTestQuery(ctx context.Context, idx *vectorindex.Index, queryText string, contentByID map[string]string, logger *zap.Logger) error {
	cfg := config.Load()
	if err := config.Require([2]string{"OPENAI_API_KEY", cfg.OpenAIAPIKey}); err != nil {
		return err
	}
	client := embedding.NewClient(cfg.OpenAIAPIKey, logger)
	data, _, err := client.CreateEmbeddings(ctx, embedding.DefaultModel, []string{queryText})
	if err != nil {
		return err
	}
	results, err := idx.Query(toFloat32(data[0].Embedding), defaultK, defaultNprobe, func(e vectorindex.QueryEvent) {
		logger.Info("test query progress", zap.String("event", e.String()))
	})
	if err != nil {
		return err
	}
	for i, r := range results {
		contentID, _ := r.Attributes["content_id"].AsString()
		logger.Info("test query result",
			zap.Int("rank", i),
			zap.String("content_id", contentID),
			zap.String("content", contentByID[contentID]),
			zap.Float32("squared_distance", r.SquaredDistance),
		)
	}
	return nil
}

func toFloat32(vs []float64) []float32 {
	out := make([]float32, len(vs))
	for i, v := range vs {
		out[i] = float32(v)
	}
	return out
}
