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

// Package embedding creates text embedding vectors through the OpenAI
// API.
package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"go.uber.org/zap"

	"github.com/codemonger-io/mumble-embedding/apperr"
)

// DefaultModel is the embedding model used when a caller does not
// request a specific one.
const DefaultModel = "text-embedding-ada-002"

// User identifies this pipeline to OpenAI's abuse-monitoring, per
// https://platform.openai.com/docs/guides/safety-best-practices/end-user-ids.
const User = "mumble_embedding"

// Datum is one embedding vector with the index of the input text it
// corresponds to, as returned by the API (not necessarily in request
// order).
type Datum struct {
	Index     int
	Embedding []float64
}

// Usage reports the API's token accounting for one request.
type Usage struct {
	PromptTokens int64
	TotalTokens  int64
}

// Client creates embeddings through the OpenAI API.
type Client struct {
	openai openai.Client
	logger *zap.Logger
}

// NewClient builds a Client authenticated with apiKey. A nil logger
// disables logging.
func NewClient(apiKey string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		openai: openai.NewClient(option.WithAPIKey(apiKey)),
		logger: logger,
	}
}

// CreateEmbeddings requests an embedding vector for each of inputs
// under model, returning the data in the order the API responded
// (callers needing request order must re-sort by Datum.Index).
func (c *Client) CreateEmbeddings(ctx context.Context, model string, inputs []string) ([]Datum, Usage, error) {
	if model == "" {
		model = DefaultModel
	}
	params := openai.EmbeddingNewParams{
		Model: model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: inputs,
		},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
		User:           param.NewOpt(User),
	}
	resp, err := c.openai.Embeddings.New(ctx, params)
	if err != nil {
		return nil, Usage{}, fmt.Errorf("embedding request failed: %w", err)
	}
	data, usage, err := processResponse(resp, len(inputs))
	if err != nil {
		return nil, Usage{}, err
	}
	c.logger.Debug("received embedding usage",
		zap.Int64("prompt_tokens", usage.PromptTokens),
		zap.Int64("total_tokens", usage.TotalTokens),
	)
	return data, usage, nil
}

// processResponse converts an API response into Datum/Usage values,
// failing if the response did not carry exactly one vector per input.
func processResponse(resp *openai.EmbeddingNewResponse, numInputs int) ([]Datum, Usage, error) {
	if len(resp.Data) != numInputs {
		return nil, Usage{}, apperr.InvalidData(
			"embedding API returned %d vectors for %d inputs", len(resp.Data), numInputs,
		)
	}
	data := make([]Datum, len(resp.Data))
	for i, d := range resp.Data {
		data[i] = Datum{Index: int(d.Index), Embedding: d.Embedding}
	}
	usage := Usage{PromptTokens: resp.Usage.PromptTokens, TotalTokens: resp.Usage.TotalTokens}
	return data, usage, nil
}
