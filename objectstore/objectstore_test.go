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

package objectstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codemonger-io/mumble-embedding/apperr"
)

func TestChecksumSHA256IsStableAndBase64(t *testing.T) {
	body := []byte("hello world")
	got := checksumSHA256(body)
	assert.Equal(t, checksumSHA256(body), got, "checksum must be deterministic")
	assert.NotEmpty(t, got)
}

func TestVerifyChecksumMatches(t *testing.T) {
	body := []byte("hello world")
	require.NoError(t, verifyChecksum(body, checksumSHA256(body)))
}

func TestVerifyChecksumMismatchFails(t *testing.T) {
	err := verifyChecksum([]byte("hello world"), "not-a-real-checksum")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidData))
}
