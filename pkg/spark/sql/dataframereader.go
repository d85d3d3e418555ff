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

	"github.com/apache/arrow/go/v12/arrow"

	"github.com/spark-utils/spark-utils-go/internal/plan"
)

type DataFrameReader interface {
	// Format names the data source: json, csv, parquet, arrow or text.
	Format(source string) DataFrameReader
	Option(key, value string) DataFrameReader
	Options(options map[string]string) DataFrameReader
	// Schema skips inference and reads the data as schema.
	Schema(schema *StructType) DataFrameReader
	// Load reads files, directories or glob patterns.
	Load(paths ...string) (DataFrame, error)
}

type dataFrameReaderImpl struct {
	sparkSession *sparkSessionImpl
	format       string
	options      map[string]string
	schema       *StructType
}

func (r *dataFrameReaderImpl) Format(source string) DataFrameReader {
	copy := *r
	copy.format = source
	return &copy
}

func (r *dataFrameReaderImpl) Option(key, value string) DataFrameReader {
	copy := *r
	copy.options = maps.Clone(r.options)
	copy.options[key] = value
	return &copy
}

func (r *dataFrameReaderImpl) Options(options map[string]string) DataFrameReader {
	copy := *r
	copy.options = maps.Clone(r.options)
	for k, v := range options {
		copy.options[k] = v
	}
	return &copy
}

func (r *dataFrameReaderImpl) Schema(schema *StructType) DataFrameReader {
	copy := *r
	copy.schema = schema
	return &copy
}

func (r *dataFrameReaderImpl) Load(paths ...string) (DataFrame, error) {
	if r.sparkSession.stopped.Load() {
		return nil, ErrSessionStopped
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("failed to load %s data: no path given", r.format)
	}
	userSchema, err := r.arrowSchema()
	if err != nil {
		return nil, err
	}
	read, err := plan.NewRead(r.format, paths, r.options, userSchema)
	if err != nil {
		return nil, err
	}
	return newDataFrame(r.sparkSession, read), nil
}

func (r *dataFrameReaderImpl) arrowSchema() (*arrow.Schema, error) {
	if r.schema == nil {
		return nil, nil
	}
	schema, err := convertStructTypeToArrowSchema(r.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to convert reader schema: %w", err)
	}
	return schema, nil
}
