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

package sparkutil

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/spark-utils/spark-utils-go/pkg/spark/sql"
)

const (
	DefaultAppName = "SparkApplication"
	DefaultMaster  = "local[*]"
)

type sessionOptions struct {
	output     io.Writer
	logger     *zap.Logger
	configs    map[string]string
	configFile string
}

type SessionOption func(*sessionOptions)

// WithOutput sets where status lines, schemas and tables are printed.
func WithOutput(w io.Writer) SessionOption {
	return func(o *sessionOptions) {
		o.output = w
	}
}

func WithLogger(logger *zap.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithConfig sets a session configuration value.
func WithConfig(key, value string) SessionOption {
	return func(o *sessionOptions) {
		if o.configs == nil {
			o.configs = map[string]string{}
		}
		o.configs[key] = value
	}
}

// WithConfigFile loads session configuration from a YAML file.
func WithConfigFile(path string) SessionOption {
	return func(o *sessionOptions) {
		o.configFile = path
	}
}

// GetSparkSession returns the active session, or starts one named appName
// running on master. Empty arguments fall back to DefaultAppName and
// DefaultMaster.
func GetSparkSession(appName, master string, opts ...SessionOption) (sql.Session, error) {
	if appName == "" {
		appName = DefaultAppName
	}
	if master == "" {
		master = DefaultMaster
	}
	o := sessionOptions{output: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	fmt.Fprintf(o.output, "Initialising SparkSession for '%s' with master '%s'...\n", appName, master)
	builder := sql.SparkSession.Builder.
		Master(master).
		AppName(appName).
		Output(o.output)
	if o.logger != nil {
		builder = builder.Logger(o.logger)
	}
	if o.configFile != "" {
		builder = builder.ConfigFile(o.configFile)
	}
	for k, v := range o.configs {
		builder = builder.Config(k, v)
	}
	return builder.GetOrCreate()
}
