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

// Package pipestream provides generic channel combinators for
// streaming, bounded-concurrency processing of posts, replacing a
// hand-rolled poll-based Stream adapter with Go's native
// channel-and-goroutine idiom.
package pipestream

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result pairs a value with an error, the shape a combinator stage
// sends downstream so a producer failure doesn't simply vanish when
// it can no longer be returned directly.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// MapAsync applies f to every item of in, running up to concurrency
// calls at once, and streams results on the returned channel in
// completion order (not input order — callers needing input order
// must carry an index through T and U themselves).
//
// The returned channel closes once in is exhausted and every
// in-flight call has completed. If ctx is canceled, no new calls to f
// start and MapAsync drains in without processing it.
func MapAsync[T, U any](ctx context.Context, in <-chan T, concurrency int, f func(context.Context, T) (U, error)) <-chan Result[U] {
	out := make(chan Result[U])
	go func() {
		defer close(out)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for item := range in {
			if gctx.Err() != nil {
				continue
			}
			item := item
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				v, err := f(gctx, item)
				select {
				case out <- Result[U]{Value: v, Err: err}:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
	return out
}

// FlattenResults flattens a stream of Result[[]T] into a stream of
// Result[T], one item at a time, preserving an error on the outer
// Result as a single downstream item rather than expanding it.
func FlattenResults[T any](in <-chan Result[[]T]) <-chan Result[T] {
	out := make(chan Result[T])
	go func() {
		defer close(out)
		for r := range in {
			if r.Err != nil {
				out <- Result[T]{Err: r.Err}
				continue
			}
			for _, v := range r.Value {
				out <- Result[T]{Value: v}
			}
		}
	}()
	return out
}

// Chunk batches items from in into slices of at most size, flushing a
// final partial batch when in closes. size must be positive.
func Chunk[T any](in <-chan T, size int) <-chan []T {
	out := make(chan []T)
	go func() {
		defer close(out)
		batch := make([]T, 0, size)
		for item := range in {
			batch = append(batch, item)
			if len(batch) == size {
				out <- batch
				batch = make([]T, 0, size)
			}
		}
		if len(batch) > 0 {
			out <- batch
		}
	}()
	return out
}

// Collect drains in into a slice, in whatever order items arrive on
// the channel, returning the first error encountered (draining the
// rest of in before returning it).
func Collect[T any](in <-chan Result[T]) ([]T, error) {
	var values []T
	var firstErr error
	for r := range in {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			continue
		}
		values = append(values, r.Value)
	}
	return values, firstErr
}
