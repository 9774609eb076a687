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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codemonger-io/mumble-embedding/embedding"
	"github.com/codemonger-io/mumble-embedding/internal/config"
	"github.com/codemonger-io/mumble-embedding/objectstore"
	"github.com/codemonger-io/mumble-embedding/vectorindex"
)

var useS3Query bool

var queryCmd = &cobra.Command{
	Use:   "query <db-path> <query-text>",
	Short: "Embeds a query string and finds its nearest neighbors in a persisted vector index",
	Args:  cobra.ExactArgs(2),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&useS3Query, "s3", false, "load the index from the database bucket instead of a local file")
}

func runQuery(cmd *cobra.Command, args []string) error {
	dbPath, queryText := args[0], args[1]
	ctx := cmd.Context()
	logger := zap.L()

	cfg := config.Load()
	if err := config.Require([2]string{"OPENAI_API_KEY", cfg.OpenAIAPIKey}); err != nil {
		return err
	}

	client := embedding.NewClient(cfg.OpenAIAPIKey, logger)
	data, _, err := client.CreateEmbeddings(ctx, embedding.DefaultModel, []string{queryText})
	if err != nil {
		return err
	}
	queryVector := toFloat32(data[0].Embedding)

	var blob []byte
	if useS3Query {
		if err := config.Require([2]string{"DATABASE_BUCKET_NAME", cfg.DatabaseBucketName}); err != nil {
			return err
		}
		store, err := objectstore.NewStore(ctx, cfg.DatabaseBucketName, logger)
		if err != nil {
			return err
		}
		blob, err = store.Fetch(ctx, dbPath)
		if err != nil {
			return err
		}
	} else {
		blob, err = os.ReadFile(dbPath)
		if err != nil {
			return fmt.Errorf("read vector index: %w", err)
		}
	}

	idx, err := vectorindex.Load(blob)
	if err != nil {
		return fmt.Errorf("load vector index: %w", err)
	}

	results, err := idx.Query(queryVector, defaultK, defaultNprobe, func(e vectorindex.QueryEvent) {
		logger.Info("query progress", zap.String("event", e.String()))
	})
	if err != nil {
		return err
	}
	for i, r := range results {
		contentID, _ := r.Attributes["content_id"].AsString()
		logger.Info("query result",
			zap.Int("rank", i),
			zap.String("content_id", contentID),
			zap.Float32("squared_distance", r.SquaredDistance),
		)
	}
	return nil
}
