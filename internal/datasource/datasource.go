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

// Package datasource implements the file formats understood by the reader and
// writer: json, csv, parquet, arrow and text.
package datasource

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"

	"github.com/spark-utils/spark-utils-go/internal/sqlerrors"
)

// Parse modes for malformed input.
const (
	ModePermissive    = "PERMISSIVE"
	ModeDropMalformed = "DROPMALFORMED"
	ModeFailFast      = "FAILFAST"
)

// Options holds reader or writer options. Keys are case-insensitive.
type Options map[string]string

// NewOptions copies opts, lower-casing every key.
func NewOptions(opts map[string]string) Options {
	result := make(Options, len(opts))
	for k, v := range opts {
		result[strings.ToLower(k)] = v
	}
	return result
}

// Get returns the value for key, or def when absent.
func (o Options) Get(key string, def string) string {
	if v, ok := o[strings.ToLower(key)]; ok {
		return v
	}
	return def
}

// Bool parses a boolean option.
func (o Options) Bool(key string, def bool) (bool, error) {
	v, ok := o[strings.ToLower(key)]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, fmt.Errorf("option %s must be a boolean, got %q", key, v)
	}
	return b, nil
}

// Mode returns the parse mode option, defaulting to PERMISSIVE.
func (o Options) Mode() (string, error) {
	mode := strings.ToUpper(o.Get("mode", ModePermissive))
	switch mode {
	case ModePermissive, ModeDropMalformed, ModeFailFast:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown parse mode %q, expected one of %s, %s, %s",
			mode, ModePermissive, ModeDropMalformed, ModeFailFast)
	}
}

// Source reads files of one format into arrow records.
type Source interface {
	// InferSchema derives the schema of files. It may read all of them.
	InferSchema(ctx context.Context, files []string, opts Options) (*arrow.Schema, error)
	// Read loads a single file into records conforming to schema.
	Read(ctx context.Context, file string, schema *arrow.Schema, opts Options) ([]arrow.Record, error)
}

// Sink writes records of one format.
type Sink interface {
	// Extension is the file suffix of written parts, without codec suffix.
	Extension() string
	// Write encodes records to w. Sinks that compress internally return
	// true from SelfCompressing and receive the raw file.
	Write(w io.Writer, schema *arrow.Schema, recs []arrow.Record, opts Options) error
	SelfCompressing() bool
}

type format struct {
	source Source
	sink   Sink
}

var formats = map[string]format{
	"json":    {source: jsonSource{}, sink: jsonSink{}},
	"csv":     {source: csvSource{}, sink: csvSink{}},
	"parquet": {source: parquetSource{}, sink: parquetSink{}},
	"arrow":   {source: arrowSource{}, sink: arrowSink{}},
	"text":    {source: textSource{}, sink: textSink{}},
}

// LookupSource returns the source registered under name.
func LookupSource(name string) (Source, error) {
	f, ok := formats[strings.ToLower(name)]
	if !ok {
		return nil, sqlerrors.Newf("DATA_SOURCE_NOT_FOUND",
			"Failed to find the data source: %s. Supported formats are %s.", name, strings.Join(Formats(), ", "))
	}
	return f.source, nil
}

// LookupSink returns the sink registered under name.
func LookupSink(name string) (Sink, error) {
	f, ok := formats[strings.ToLower(name)]
	if !ok {
		return nil, sqlerrors.Newf("DATA_SOURCE_NOT_FOUND",
			"Failed to find the data source: %s. Supported formats are %s.", name, strings.Join(Formats(), ", "))
	}
	return f.sink, nil
}

// Formats lists the registered format names.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unableToInfer(formatName string) error {
	return sqlerrors.Newf("UNABLE_TO_INFER_SCHEMA",
		"Unable to infer schema for %s. It must be specified manually.", strings.ToUpper(formatName))
}

func malformed(record string) error {
	return sqlerrors.Newf("MALFORMED_RECORD_IN_PARSING",
		"Malformed records are detected in record parsing: %s. Parse Mode: %s.", record, ModeFailFast)
}

// conform re-labels records read from self-describing formats with the
// requested schema, failing when column names or types differ.
func conform(file string, recs []arrow.Record, schema *arrow.Schema) ([]arrow.Record, error) {
	result := make([]arrow.Record, 0, len(recs))
	for _, rec := range recs {
		got := rec.Schema()
		if len(got.Fields()) != len(schema.Fields()) {
			return nil, fmt.Errorf("%s has %d columns, expected %d", file, len(got.Fields()), len(schema.Fields()))
		}
		for i, f := range schema.Fields() {
			g := got.Field(i)
			if !strings.EqualFold(g.Name, f.Name) || !arrow.TypeEqual(g.Type, f.Type) {
				return nil, fmt.Errorf("%s column %d is %s %s, expected %s %s", file, i, g.Name, g.Type, f.Name, f.Type)
			}
		}
		result = append(result, array.NewRecord(schema, rec.Columns(), rec.NumRows()))
	}
	return result, nil
}
