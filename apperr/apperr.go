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

// Package apperr defines the error kinds shared across the
// mumble-embedding pipeline.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidContext marks a failure where a Markdown event stream
// violated the Block Extractor's state-machine contract: an
// unexpected event for the current context, or an unterminated
// context at end of stream.
var ErrInvalidContext = errors.New("invalid context")

// ErrInvalidData marks a structural impossibility that is not caused
// by a protocol violation, such as a code block that closes without
// ever receiving a body.
var ErrInvalidData = errors.New("invalid data")

// InvalidContext wraps ErrInvalidContext with a message describing
// what the event stream did wrong.
func InvalidContext(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidContext, fmt.Sprintf(format, args...))
}

// InvalidData wraps ErrInvalidData with a message describing the
// structural impossibility encountered.
func InvalidData(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidData, fmt.Sprintf(format, args...))
}

// HTTPError reports a non-2xx response from an external HTTP API.
type HTTPError struct {
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: %s", e.Status)
}

// NewHTTPError builds an HTTPError from a standard library status
// code, labeling it with the text http.StatusText would produce.
func NewHTTPError(statusCode int) *HTTPError {
	status := http.StatusText(statusCode)
	if status == "" {
		status = "unknown status"
	}
	return &HTTPError{StatusCode: statusCode, Status: fmt.Sprintf("%d %s", statusCode, status)}
}

// AWSError wraps an error returned by the AWS SDK so callers can
// report it without depending on the SDK's error types directly.
type AWSError struct {
	Op  string
	Err error
}

func (e *AWSError) Error() string {
	return fmt.Sprintf("aws sdk error during %s: %v", e.Op, e.Err)
}

func (e *AWSError) Unwrap() error {
	return e.Err
}

// WrapAWSError wraps err as an AWSError unless err is nil.
func WrapAWSError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &AWSError{Op: op, Err: err}
}
