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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemonger-io/mumble-embedding/apperr"
)

func testConfig() Config {
	return Config{Partitions: 2, Divisions: 2, Clusters: 2, VectorSize: 4}
}

func testVectors() []Vector {
	return []Vector{
		{ID: "a", Values: []float32{0, 0, 0, 0}},
		{ID: "b", Values: []float32{0.1, 0, 0, 0.1}},
		{ID: "c", Values: []float32{10, 10, 10, 10}},
		{ID: "d", Values: []float32{10.1, 10, 10, 9.9}},
	}
}

func TestBuildRejectsMismatchedVectorSize(t *testing.T) {
	vectors := []Vector{{ID: "a", Values: []float32{1, 2, 3}}}
	_, err := Build(vectors, testConfig(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidData))
}

func TestBuildRejectsIndivisibleDivisions(t *testing.T) {
	cfg := Config{Partitions: 1, Divisions: 5, Clusters: 2, VectorSize: 4}
	_, err := Build(nil, cfg, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidData))
}

func TestBuildEmitsEventsInOrder(t *testing.T) {
	var kinds []BuildEventKind
	idx, err := Build(testVectors(), testConfig(), func(e BuildEvent) {
		kinds = append(kinds, e.Kind)
	})
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, []BuildEventKind{
		StartingIDAssignment, FinishedIDAssignment,
		StartingPartitioning, FinishedPartitioning,
		StartingSubvectorDivision, FinishedSubvectorDivision,
		StartingQuantization, FinishedQuantization,
		StartingQuantization, FinishedQuantization,
	}, kinds)
}

func TestBuildAndQueryFindsNearestNeighbor(t *testing.T) {
	idx, err := Build(testVectors(), testConfig(), nil)
	require.NoError(t, err)
	for i, v := range testVectors() {
		require.NoError(t, idx.SetAttributeAt(i, "content_id", StringAttribute(v.ID)))
	}

	results, err := idx.Query([]float32{10, 10, 10, 10}, 1, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	contentID, ok := results[0].Attributes["content_id"].AsString()
	require.True(t, ok)
	assert.Contains(t, []string{"c", "d"}, contentID)
}

func TestGetAttributeMissingVector(t *testing.T) {
	idx, err := Build(testVectors(), testConfig(), nil)
	require.NoError(t, err)
	_, ok := idx.GetAttribute("v99", "content_id")
	assert.False(t, ok)
}

func TestSerializeLoadRoundTrips(t *testing.T) {
	idx, err := Build(testVectors(), testConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, idx.SetAttributeAt(0, "content_id", StringAttribute("a")))

	data, err := idx.Serialize()
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, idx.Config, loaded.Config)
	assert.Equal(t, len(idx.Partitions), len(loaded.Partitions))
	contentID, ok := loaded.GetAttribute("v0", "content_id")
	require.True(t, ok)
	got, _ := contentID.AsString()
	assert.Equal(t, "a", got)
}
