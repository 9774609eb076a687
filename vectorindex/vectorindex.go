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

// Package vectorindex builds and queries a k-means-partitioned,
// product-quantized approximate nearest-neighbor index over embedding
// vectors, with attributes attached to each stored vector.
package vectorindex

import (
	"fmt"
	"sort"

	"github.com/codemonger-io/mumble-embedding/apperr"
)

// Config sizes the index being built. VectorSize must evenly divide
// by Divisions.
type Config struct {
	Partitions int
	Divisions  int
	Clusters   int
	VectorSize int
}

// DefaultConfig mirrors the sizing used for OpenAI's
// text-embedding-ada-002 vectors: one partition (no coarse
// quantization), 12 subvector divisions of 128 dimensions each, and a
// 10-entry codebook per division.
func DefaultConfig() Config {
	return Config{Partitions: 1, Divisions: 12, Clusters: 10, VectorSize: 1536}
}

func (c Config) validate() error {
	if c.Partitions <= 0 || c.Divisions <= 0 || c.Clusters <= 0 || c.VectorSize <= 0 {
		return apperr.InvalidData("vector index config must have positive partitions, divisions, clusters, and vector size")
	}
	if c.VectorSize%c.Divisions != 0 {
		return apperr.InvalidData("vector size %d does not divide evenly into %d divisions", c.VectorSize, c.Divisions)
	}
	return nil
}

func (c Config) subDim() int {
	return c.VectorSize / c.Divisions
}

// AttributeValue is a value attached to a stored vector: either a
// string or a uint64, mirroring the original database's attribute
// union.
type AttributeValue struct {
	Str      string
	UInt     uint64
	IsString bool
}

// StringAttribute builds a string-valued attribute.
func StringAttribute(s string) AttributeValue {
	return AttributeValue{Str: s, IsString: true}
}

// Uint64Attribute builds a uint64-valued attribute.
func Uint64Attribute(u uint64) AttributeValue {
	return AttributeValue{UInt: u}
}

// AsString returns the attribute's string value, if it holds one.
func (a AttributeValue) AsString() (string, bool) {
	return a.Str, a.IsString
}

// AsUint64 returns the attribute's uint64 value, if it holds one.
func (a AttributeValue) AsUint64() (uint64, bool) {
	return a.UInt, !a.IsString
}

// Vector is a single embedding to be indexed.
type Vector struct {
	ID     string
	Values []float32
}

// BuildEventKind names a phase of Build, mirroring the original
// database builder's progress events.
type BuildEventKind int

const (
	StartingIDAssignment BuildEventKind = iota
	FinishedIDAssignment
	StartingPartitioning
	FinishedPartitioning
	StartingSubvectorDivision
	FinishedSubvectorDivision
	StartingQuantization
	FinishedQuantization
)

// BuildEvent reports progress during Build. Division is only
// meaningful for the Quantization events.
type BuildEvent struct {
	Kind     BuildEventKind
	Division int
}

func (e BuildEvent) String() string {
	switch e.Kind {
	case StartingIDAssignment:
		return "starting ID assignment"
	case FinishedIDAssignment:
		return "finished ID assignment"
	case StartingPartitioning:
		return "starting partitioning"
	case FinishedPartitioning:
		return "finished partitioning"
	case StartingSubvectorDivision:
		return "starting subvector division"
	case FinishedSubvectorDivision:
		return "finished subvector division"
	case StartingQuantization:
		return fmt.Sprintf("starting quantization of division %d", e.Division)
	case FinishedQuantization:
		return fmt.Sprintf("finished quantization of division %d", e.Division)
	default:
		return "unknown build event"
	}
}

// partition is one coarse cluster of vectors: the internal IDs it
// holds and each vector's per-division codebook indices.
type partition struct {
	VectorIDs []string
	Codes     [][]uint8 // Codes[i] has len Config.Divisions
}

// Index is a built, queryable vector index.
type Index struct {
	Config     Config
	Centroids  [][]float32          // len Partitions, each len VectorSize
	Codebooks  [][][]float32        // [division][cluster][subDim]
	Partitions []partition          // len Partitions
	Attributes map[string]map[string]AttributeValue
}

// Build partitions vectors, divides them into subvectors, and
// quantizes each division's subvectors against a codebook, reporting
// progress through onEvent (which may be nil).
func Build(vectors []Vector, cfg Config, onEvent func(BuildEvent)) (*Index, error) {
	if onEvent == nil {
		onEvent = func(BuildEvent) {}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	for _, v := range vectors {
		if len(v.Values) != cfg.VectorSize {
			return nil, apperr.InvalidData("vector %q has size %d, want %d", v.ID, len(v.Values), cfg.VectorSize)
		}
	}

	onEvent(BuildEvent{Kind: StartingIDAssignment})
	internalIDs := make([]string, len(vectors))
	for i := range vectors {
		internalIDs[i] = internalVectorID(i)
	}
	onEvent(BuildEvent{Kind: FinishedIDAssignment})

	onEvent(BuildEvent{Kind: StartingPartitioning})
	full := make([][]float32, len(vectors))
	for i, v := range vectors {
		full[i] = v.Values
	}
	centroids, assignments := kmeans(full, cfg.Partitions, 10)
	onEvent(BuildEvent{Kind: FinishedPartitioning})

	onEvent(BuildEvent{Kind: StartingSubvectorDivision})
	subDim := cfg.subDim()
	subvectors := make([][][]float32, cfg.Divisions)
	for d := 0; d < cfg.Divisions; d++ {
		subvectors[d] = make([][]float32, len(vectors))
		for i, v := range vectors {
			subvectors[d][i] = v.Values[d*subDim : (d+1)*subDim]
		}
	}
	onEvent(BuildEvent{Kind: FinishedSubvectorDivision})

	codebooks := make([][][]float32, cfg.Divisions)
	codes := make([][]uint8, len(vectors))
	for i := range codes {
		codes[i] = make([]uint8, cfg.Divisions)
	}
	for d := 0; d < cfg.Divisions; d++ {
		onEvent(BuildEvent{Kind: StartingQuantization, Division: d})
		clusters := cfg.Clusters
		if clusters > len(vectors) {
			clusters = len(vectors)
		}
		centers, divisionAssignments := kmeans(subvectors[d], clusters, 10)
		codebooks[d] = centers
		for i, a := range divisionAssignments {
			codes[i][d] = uint8(a)
		}
		onEvent(BuildEvent{Kind: FinishedQuantization, Division: d})
	}

	partitions := make([]partition, cfg.Partitions)
	for i := range vectors {
		p := assignments[i]
		partitions[p].VectorIDs = append(partitions[p].VectorIDs, internalIDs[i])
		partitions[p].Codes = append(partitions[p].Codes, codes[i])
	}

	return &Index{
		Config:     cfg,
		Centroids:  centroids,
		Codebooks:  codebooks,
		Partitions: partitions,
		Attributes: make(map[string]map[string]AttributeValue),
	}, nil
}

func internalVectorID(i int) string {
	return fmt.Sprintf("v%d", i)
}

// SetAttributeAt attaches an attribute to the i-th vector passed to
// Build, identified by the order it was given in.
func (idx *Index) SetAttributeAt(i int, key string, value AttributeValue) error {
	id := internalVectorID(i)
	if idx.Attributes[id] == nil {
		idx.Attributes[id] = make(map[string]AttributeValue)
	}
	idx.Attributes[id][key] = value
	return nil
}

// GetAttribute returns the named attribute of the vector with the
// given internal ID.
func (idx *Index) GetAttribute(vectorID, key string) (AttributeValue, bool) {
	attrs, ok := idx.Attributes[vectorID]
	if !ok {
		return AttributeValue{}, false
	}
	v, ok := attrs[key]
	return v, ok
}

// QueryEventKind names a phase of Query, mirroring the original
// database's query progress events.
type QueryEventKind int

const (
	StartingPartitionSelection QueryEventKind = iota
	FinishedPartitionSelection
	StartingPartitionQuery
	FinishedPartitionQuery
	StartingResultSelection
	FinishedResultSelection
)

// QueryEvent reports progress during Query. Partition is only
// meaningful for the PartitionQuery events.
type QueryEvent struct {
	Kind      QueryEventKind
	Partition int
}

func (e QueryEvent) String() string {
	switch e.Kind {
	case StartingPartitionSelection:
		return "starting partition selection"
	case FinishedPartitionSelection:
		return "finished partition selection"
	case StartingPartitionQuery:
		return fmt.Sprintf("starting query of partition %d", e.Partition)
	case FinishedPartitionQuery:
		return fmt.Sprintf("finished query of partition %d", e.Partition)
	case StartingResultSelection:
		return "starting result selection"
	case FinishedResultSelection:
		return "finished result selection"
	default:
		return "unknown query event"
	}
}

// QueryResult is one approximate nearest neighbor, with the
// attributes attached to it at build time.
type QueryResult struct {
	VectorID        string
	SquaredDistance float32
	Attributes      map[string]AttributeValue
}

// Query returns the k approximate nearest neighbors of queryVector,
// searching only the nprobe partitions whose centroid is closest to
// it.
func (idx *Index) Query(queryVector []float32, k, nprobe int, onEvent func(QueryEvent)) ([]QueryResult, error) {
	if onEvent == nil {
		onEvent = func(QueryEvent) {}
	}
	if len(queryVector) != idx.Config.VectorSize {
		return nil, apperr.InvalidData("query vector has size %d, want %d", len(queryVector), idx.Config.VectorSize)
	}
	if nprobe > len(idx.Partitions) {
		nprobe = len(idx.Partitions)
	}

	onEvent(QueryEvent{Kind: StartingPartitionSelection})
	partitionOrder := make([]int, len(idx.Centroids))
	for p := range idx.Centroids {
		partitionOrder[p] = p
	}
	sort.Slice(partitionOrder, func(i, j int) bool {
		return squaredDistance(queryVector, idx.Centroids[partitionOrder[i]]) <
			squaredDistance(queryVector, idx.Centroids[partitionOrder[j]])
	})
	selected := partitionOrder[:nprobe]
	onEvent(QueryEvent{Kind: FinishedPartitionSelection})

	subDim := idx.Config.subDim()
	queryDistanceTables := make([][]float32, idx.Config.Divisions)
	for d := 0; d < idx.Config.Divisions; d++ {
		sub := queryVector[d*subDim : (d+1)*subDim]
		table := make([]float32, len(idx.Codebooks[d]))
		for c, center := range idx.Codebooks[d] {
			table[c] = squaredDistance(sub, center)
		}
		queryDistanceTables[d] = table
	}

	var candidates []QueryResult
	for _, p := range selected {
		onEvent(QueryEvent{Kind: StartingPartitionQuery, Partition: p})
		part := idx.Partitions[p]
		for i, id := range part.VectorIDs {
			var dist float32
			for d, code := range part.Codes[i] {
				dist += queryDistanceTables[d][code]
			}
			candidates = append(candidates, QueryResult{
				VectorID:        id,
				SquaredDistance: dist,
				Attributes:      idx.Attributes[id],
			})
		}
		onEvent(QueryEvent{Kind: FinishedPartitionQuery, Partition: p})
	}

	onEvent(QueryEvent{Kind: StartingResultSelection})
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].SquaredDistance < candidates[j].SquaredDistance
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	onEvent(QueryEvent{Kind: FinishedResultSelection})

	return candidates, nil
}

func squaredDistance(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
