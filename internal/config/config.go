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

// Package config reads the CLI's environment-backed configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the environment variables the CLI subcommands need.
// Which fields are required depends on the subcommand being run.
type Config struct {
	ObjectsBucketName  string
	OpenAIAPIKey       string
	DatabaseBucketName string
}

// Load reads OBJECTS_BUCKET_NAME, OPENAI_API_KEY, and
// DATABASE_BUCKET_NAME from the environment.
func Load() Config {
	v := viper.New()
	v.AutomaticEnv()
	return Config{
		ObjectsBucketName:  v.GetString("OBJECTS_BUCKET_NAME"),
		OpenAIAPIKey:       v.GetString("OPENAI_API_KEY"),
		DatabaseBucketName: v.GetString("DATABASE_BUCKET_NAME"),
	}
}

// Require returns an error naming the first of the given (name,
// value) pairs whose value is empty.
func Require(pairs ...[2]string) error {
	for _, p := range pairs {
		if p[1] == "" {
			return fmt.Errorf("no %s set", p[0])
		}
	}
	return nil
}
