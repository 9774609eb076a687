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

// kmeans clusters vectors into at most k centroids using Lloyd's
// algorithm, seeded by evenly spaced samples so it is deterministic
// given the same input. It returns the final centroids and each
// vector's assigned cluster index.
//
// A centroid that loses every member during an iteration keeps its
// previous position rather than being reseeded, which is sufficient
// for the small, fixed cluster counts this index uses.
func kmeans(vectors [][]float32, k int, iterations int) ([][]float32, []int) {
	n := len(vectors)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil, make([]int, n)
	}
	dim := len(vectors[0])

	centroids := make([][]float32, k)
	for c := 0; c < k; c++ {
		src := vectors[(c*n)/k]
		centroids[c] = append([]float32(nil), src...)
	}

	assignments := make([]int, n)
	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, v := range vectors {
			best, bestDist := 0, squaredDistance(v, centroids[0])
			for c := 1; c < k; c++ {
				if d := squaredDistance(v, centroids[c]); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}

		sums := make([][]float32, k)
		counts := make([]int, k)
		for c := 0; c < k; c++ {
			sums[c] = make([]float32, dim)
		}
		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += x
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float32(counts[c])
			}
		}

		if !changed && iter > 0 {
			break
		}
	}

	return centroids, assignments
}
