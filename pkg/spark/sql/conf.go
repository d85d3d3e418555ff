//
// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sql

import (
	"fmt"
	"maps"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/spark-utils/spark-utils-go/internal/sqlerrors"
)

const (
	confMaster             = "spark.master"
	confAppName            = "spark.app.name"
	confDefaultParallelism = "spark.default.parallelism"
	confCaseSensitive      = "spark.sql.caseSensitive"
	confShowTruncate       = "spark.sql.repl.eagerEval.truncate"
	confDefaultSource      = "spark.sql.sources.default"

	defaultShowTruncate = 20
)

// Static settings are fixed when the session is built.
var staticConfigs = map[string]bool{
	confMaster:             true,
	confAppName:            true,
	confDefaultParallelism: true,
}

func isStaticConfig(key string) bool {
	return staticConfigs[key]
}

type RuntimeConfig interface {
	Get(key string) (string, error)
	GetWithDefault(key, defaultValue string) string
	Set(key, value string) error
	GetAll() map[string]string
	IsModifiable(key string) bool
}

type runtimeConfig struct {
	mu     sync.RWMutex
	values map[string]string
}

func newRuntimeConfig(values map[string]string) *runtimeConfig {
	return &runtimeConfig{values: maps.Clone(values)}
}

func (c *runtimeConfig) Get(key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	if !ok {
		return "", sqlerrors.Newf("SQL_CONF_NOT_FOUND", "The SQL config \"%s\" cannot be found.", key)
	}
	return v, nil
}

func (c *runtimeConfig) GetWithDefault(key, defaultValue string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.values[key]; ok {
		return v
	}
	return defaultValue
}

func (c *runtimeConfig) Set(key, value string) error {
	if isStaticConfig(key) {
		return sqlerrors.Newf("CANNOT_MODIFY_CONFIG", "Cannot modify the value of the Spark config: \"%s\".", key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *runtimeConfig) GetAll() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.values)
}

func (c *runtimeConfig) IsModifiable(key string) bool {
	return !isStaticConfig(key)
}

var (
	localN         = regexp.MustCompile(`^local\[([0-9]+|\*)\]$`)
	localNFailures = regexp.MustCompile(`^local\[([0-9]+|\*)\s*,\s*([0-9]+)\]$`)
)

// parseMaster returns the number of worker threads a local master URL asks for.
func parseMaster(master string) (int, error) {
	threads := ""
	switch {
	case master == "local":
		return 1, nil
	case localN.MatchString(master):
		threads = localN.FindStringSubmatch(master)[1]
	case localNFailures.MatchString(master):
		threads = localNFailures.FindStringSubmatch(master)[1]
	default:
		return 0, fmt.Errorf("Could not parse Master URL: '%s'", master)
	}
	if threads == "*" {
		return runtime.NumCPU(), nil
	}
	n, err := strconv.Atoi(threads)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("asked to run locally with %s threads", threads)
	}
	return n, nil
}

func parsePositiveInt(v string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d is not positive", n)
	}
	return n, nil
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", v)
}

// loadConfigFile reads a YAML document of settings. Nested mappings are
// flattened with dots, so
//
//	spark:
//	  master: local[2]
//
// sets spark.master.
func loadConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	values := map[string]string{}
	flattenConfig("", raw, values)
	return values, nil
}

func flattenConfig(prefix string, raw map[string]any, out map[string]string) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch v := v.(type) {
		case map[string]any:
			flattenConfig(key, v, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(v)
		}
	}
}
