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

// Package objectstore lists, fetches, and uploads objects in the S3
// bucket backing the pipeline's posts and persisted indexes.
package objectstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/codemonger-io/mumble-embedding/apperr"
)

// listPageSize mirrors the original's ObjectList, which pages 10 keys
// at a time rather than relying on the service's (much larger)
// default.
const listPageSize = 10

// Store wraps an S3 client bound to one bucket.
type Store struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewStore loads AWS configuration from the environment (region,
// credentials chain) and returns a Store bound to bucket. A nil
// logger disables logging.
func NewStore(ctx context.Context, bucket string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, apperr.WrapAWSError("load AWS config", err)
	}
	return &Store{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		logger: logger,
	}, nil
}

// ListKeys lists every object key under prefix, paging through
// truncated ListObjectsV2 responses until the listing is exhausted.
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var startAfter *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:     aws.String(s.bucket),
			Prefix:     aws.String(prefix),
			MaxKeys:    aws.Int32(listPageSize),
			StartAfter: startAfter,
		})
		if err != nil {
			return nil, apperr.WrapAWSError("list objects", err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, *obj.Key)
		}
		if !aws.ToBool(out.IsTruncated) || len(out.Contents) == 0 {
			return keys, nil
		}
		last := out.Contents[len(out.Contents)-1].Key
		startAfter = last
	}
}

// Fetch downloads the object at key and verifies its contents against
// the SHA-256 checksum S3 reports for it, failing with
// apperr.ErrInvalidData if the object carries no checksum or
// apperr.ErrInvalidContext-free verification mismatch.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		ChecksumMode: types.ChecksumModeEnabled,
	})
	if err != nil {
		return nil, apperr.WrapAWSError("get object", err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, apperr.WrapAWSError("read object body", err)
	}
	if out.ChecksumSHA256 == nil {
		return nil, apperr.InvalidData("object %s has no SHA-256 checksum", key)
	}
	if err := verifyChecksum(body, *out.ChecksumSHA256); err != nil {
		return nil, apperr.InvalidData("checksum discrepancy for %s: %v", key, err)
	}
	s.logger.Debug("fetched and verified object", zap.String("key", key), zap.Int("bytes", len(body)))
	return body, nil
}

// checksumSHA256 returns body's SHA-256 digest, base64 encoded, the
// form S3's checksum fields use.
func checksumSHA256(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// verifyChecksum reports whether body's SHA-256 digest matches want.
func verifyChecksum(body []byte, want string) error {
	if got := checksumSHA256(body); got != want {
		return apperr.InvalidData("expected %s but got %s", want, got)
	}
	return nil
}

// Upload writes body to key, attaching its SHA-256 checksum so S3
// verifies the upload end-to-end.
func (s *Store) Upload(ctx context.Context, key string, body []byte) error {
	checksum := checksumSHA256(body)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(s.bucket),
		Key:            aws.String(key),
		Body:           bytes.NewReader(body),
		ChecksumSHA256: aws.String(checksum),
	})
	if err != nil {
		return apperr.WrapAWSError("put object", err)
	}
	s.logger.Debug("uploaded object", zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}
