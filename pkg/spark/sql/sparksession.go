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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
	"github.com/spark-utils/spark-utils-go/internal/exec"
	"github.com/spark-utils/spark-utils-go/internal/plan"
)

var SparkSession sparkSessionBuilderEntrypoint

// ErrSessionStopped is returned by actions on a DataFrame whose session has
// been stopped.
var ErrSessionStopped = errors.New("cannot call methods on a stopped SparkSession")

type Session interface {
	Read() DataFrameReader
	// CreateDataFrame builds a DataFrame from rows laid out as schema.
	CreateDataFrame(rows [][]any, schema *StructType) (DataFrame, error)
	Conf() RuntimeConfig
	SessionID() string
	// Output is where Show and PrintSchema write.
	Output() io.Writer
	Stop() error
}

type sparkSessionBuilderEntrypoint struct {
	Builder SparkSessionBuilder
}

type SparkSessionBuilder struct {
	master     string
	appName    string
	configs    map[string]string
	configFile string
	logger     *zap.Logger
	output     io.Writer
}

func (s SparkSessionBuilder) Master(master string) SparkSessionBuilder {
	copy := s
	copy.master = master
	return copy
}

func (s SparkSessionBuilder) AppName(appName string) SparkSessionBuilder {
	copy := s
	copy.appName = appName
	return copy
}

func (s SparkSessionBuilder) Config(key, value string) SparkSessionBuilder {
	copy := s
	copy.configs = make(map[string]string, len(s.configs)+1)
	for k, v := range s.configs {
		copy.configs[k] = v
	}
	copy.configs[key] = value
	return copy
}

// ConfigFile reads default configuration from a YAML file when the session
// is built. Values set with Config, Master or AppName take precedence.
func (s SparkSessionBuilder) ConfigFile(path string) SparkSessionBuilder {
	copy := s
	copy.configFile = path
	return copy
}

func (s SparkSessionBuilder) Logger(logger *zap.Logger) SparkSessionBuilder {
	copy := s
	copy.logger = logger
	return copy
}

func (s SparkSessionBuilder) Output(w io.Writer) SparkSessionBuilder {
	copy := s
	copy.output = w
	return copy
}

func (s SparkSessionBuilder) settings() (map[string]string, error) {
	settings := map[string]string{}
	if s.configFile != "" {
		values, err := loadConfigFile(s.configFile)
		if err != nil {
			return nil, err
		}
		for k, v := range values {
			settings[k] = v
		}
	}
	for k, v := range s.configs {
		settings[k] = v
	}
	if s.master != "" {
		settings[confMaster] = s.master
	}
	if s.appName != "" {
		settings[confAppName] = s.appName
	}
	return settings, nil
}

// Build always creates a new session. It does not become the active session.
func (s SparkSessionBuilder) Build() (Session, error) {
	return s.build()
}

func (s SparkSessionBuilder) build() (*sparkSessionImpl, error) {
	settings, err := s.settings()
	if err != nil {
		return nil, err
	}
	master, ok := settings[confMaster]
	if !ok {
		return nil, fmt.Errorf("a master URL must be set in your configuration")
	}
	parallelism, err := parseMaster(master)
	if err != nil {
		return nil, err
	}
	if _, ok := settings[confAppName]; !ok {
		settings[confAppName] = uuid.NewString()
	}

	logger := s.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionId := uuid.NewString()
	logger = logger.Named("spark").With(zap.String("session_id", sessionId))

	conf := newRuntimeConfig(settings)
	if v, ok := settings[confDefaultParallelism]; ok {
		n, err := parsePositiveInt(v)
		if err != nil {
			logger.Warn("ignoring invalid parallelism setting",
				zap.String("key", confDefaultParallelism), zap.String("value", v), zap.Error(err))
		} else {
			parallelism = n
		}
	}

	output := s.output
	if output == nil {
		output = os.Stdout
	}

	ctx, cancel := context.WithCancel(context.Background())
	session := &sparkSessionImpl{
		sessionId: sessionId,
		conf:      conf,
		executor:  exec.New(parallelism, logger),
		logger:    logger,
		output:    output,
		ctx:       ctx,
		cancel:    cancel,
	}
	logger.Info("session started",
		zap.String("app_name", settings[confAppName]),
		zap.String("master", master),
		zap.Int("parallelism", parallelism))
	return session, nil
}

var (
	activeMu      sync.Mutex
	activeSession *sparkSessionImpl
)

// GetOrCreate returns the active session, or builds one and makes it active.
// Runtime settings of the builder are applied to an existing session; static
// settings such as the master are ignored with a warning.
func (s SparkSessionBuilder) GetOrCreate() (Session, error) {
	activeMu.Lock()
	defer activeMu.Unlock()

	if activeSession != nil && !activeSession.stopped.Load() {
		settings, err := s.settings()
		if err != nil {
			return nil, err
		}
		ignored := false
		for k, v := range settings {
			if isStaticConfig(k) {
				if current, _ := activeSession.conf.Get(k); current != v {
					ignored = true
				}
				continue
			}
			if err := activeSession.conf.Set(k, v); err != nil {
				return nil, err
			}
		}
		if ignored {
			activeSession.logger.Warn("using an existing session; only runtime SQL configurations will take effect")
		}
		return activeSession, nil
	}

	session, err := s.build()
	if err != nil {
		return nil, err
	}
	activeSession = session
	return session, nil
}

// ActiveSession returns the session GetOrCreate would return, if any.
func ActiveSession() (Session, bool) {
	activeMu.Lock()
	defer activeMu.Unlock()
	if activeSession == nil || activeSession.stopped.Load() {
		return nil, false
	}
	return activeSession, true
}

type sparkSessionImpl struct {
	sessionId string
	conf      *runtimeConfig
	executor  *exec.Executor
	logger    *zap.Logger
	output    io.Writer
	ctx       context.Context
	cancel    context.CancelFunc
	stopped   atomic.Bool
}

func (s *sparkSessionImpl) Read() DataFrameReader {
	return &dataFrameReaderImpl{
		sparkSession: s,
		format:       s.conf.GetWithDefault(confDefaultSource, "parquet"),
		options:      map[string]string{},
	}
}

func (s *sparkSessionImpl) CreateDataFrame(rows [][]any, schema *StructType) (DataFrame, error) {
	if schema == nil {
		return nil, fmt.Errorf("failed to create dataframe: schema is required")
	}
	arrowSchema, err := convertStructTypeToArrowSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataframe: %w", err)
	}
	for i, row := range rows {
		if len(row) != len(schema.Fields) {
			return nil, fmt.Errorf("failed to create dataframe: row %d has %d values, schema has %d fields",
				i, len(row), len(schema.Fields))
		}
	}
	var recs []arrow.Record
	if len(rows) > 0 {
		rec, err := arrowutil.NewRecord(arrowSchema, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to create dataframe: %w", err)
		}
		recs = append(recs, rec)
	}
	return newDataFrame(s, plan.NewLocalRelation(arrowSchema, recs)), nil
}

func (s *sparkSessionImpl) Conf() RuntimeConfig {
	return s.conf
}

func (s *sparkSessionImpl) SessionID() string {
	return s.sessionId
}

func (s *sparkSessionImpl) Output() io.Writer {
	return s.output
}

// Stop cancels running jobs. Stopping a stopped session does nothing.
func (s *sparkSessionImpl) Stop() error {
	if !s.stopped.CompareAndSwap(false, true) {
		return nil
	}
	s.cancel()
	activeMu.Lock()
	if activeSession == s {
		activeSession = nil
	}
	activeMu.Unlock()
	s.logger.Info("session stopped")
	return nil
}

func (s *sparkSessionImpl) caseSensitive() bool {
	v, err := s.conf.Get(confCaseSensitive)
	if err != nil {
		return false
	}
	b, err := parseBool(v)
	if err != nil {
		s.logger.Warn("ignoring invalid boolean setting", zap.String("key", confCaseSensitive), zap.String("value", v))
		return false
	}
	return b
}

func (s *sparkSessionImpl) showTruncate() int {
	v, err := s.conf.Get(confShowTruncate)
	if err != nil {
		return defaultShowTruncate
	}
	n, err := parsePositiveInt(v)
	if err != nil {
		s.logger.Warn("ignoring invalid truncate setting", zap.String("key", confShowTruncate), zap.String("value", v))
		return defaultShowTruncate
	}
	return n
}

func (s *sparkSessionImpl) executePlan(rel plan.Relation) ([]arrow.Record, error) {
	if s.stopped.Load() {
		return nil, ErrSessionStopped
	}
	recs, err := s.executor.Execute(s.ctx, rel)
	if err != nil && s.stopped.Load() && errors.Is(err, context.Canceled) {
		return nil, ErrSessionStopped
	}
	return recs, err
}

func (s *sparkSessionImpl) analyzePlan(rel plan.Relation) (*arrow.Schema, error) {
	if s.stopped.Load() {
		return nil, ErrSessionStopped
	}
	return rel.Schema(s.ctx)
}
