// Copyright 2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape of a graphc config file: the
// known-assemblies/known-types trust lists and the allocation ceiling of
// SPEC_FULL.md §2's ambient configuration section.
type fileConfig struct {
	KnownAssemblies   []string `yaml:"known-assemblies"`
	KnownTypes        []string `yaml:"known-types"`
	MaxAllocatedBytes int64    `yaml:"max-allocated-bytes"`
}

// loadConfig reads a YAML config file. An empty path returns the zero
// config (no trust list, no budget ceiling).
func loadConfig(path string) (fileConfig, error) {
	if path == "" {
		return fileConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, err
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, err
	}
	return cfg, nil
}
