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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spark-utils/spark-utils-go/pkg/spark/sql"
	"github.com/spark-utils/spark-utils-go/pkg/sparkutil"
)

type rootOptions struct {
	master     string
	appName    string
	configFile string
	conf       map[string]string
	verbose    bool

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "spark-utils",
		Short: "Inspect, summarize and chart data files with a local Spark session",
		Long: `spark-utils loads json, csv, parquet, arrow or text files into a local
Spark session and prints their schema, value counts, grouped aggregates or a
bar chart of value counts.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.master, "master", sparkutil.DefaultMaster, "master URL: local, local[N] or local[*]")
	flags.StringVar(&opts.appName, "app-name", "spark-utils", "application name")
	flags.StringVar(&opts.configFile, "config-file", "", "YAML file with session configuration")
	flags.StringToStringVar(&opts.conf, "conf", nil, "session configuration as key=value, repeatable")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newInfoCmd(opts),
		newUniqueCmd(opts),
		newAggCmd(opts),
		newChartCmd(opts),
	)
	return cmd
}

// session starts the session for one command. Output goes to the command's
// stdout.
func (o *rootOptions) session(cmd *cobra.Command) (sql.Session, error) {
	sessionOpts := []sparkutil.SessionOption{
		sparkutil.WithOutput(cmd.OutOrStdout()),
	}
	if o.logger != nil {
		sessionOpts = append(sessionOpts, sparkutil.WithLogger(o.logger))
	}
	if o.configFile != "" {
		sessionOpts = append(sessionOpts, sparkutil.WithConfigFile(o.configFile))
	}
	for k, v := range o.conf {
		sessionOpts = append(sessionOpts, sparkutil.WithConfig(k, v))
	}
	return sparkutil.GetSparkSession(o.appName, o.master, sessionOpts...)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
