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

package datasource

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
)

// DefaultCorruptRecordColumn holds the raw text of malformed records in PERMISSIVE mode.
const DefaultCorruptRecordColumn = "_corrupt_record"

const maxLineSize = 64 << 20

type jsonSource struct{}

// forEachRecord calls fn with the text of every JSON record in data. In
// multiLine mode data is a single document: an array of records or one record.
func forEachRecord(ctx context.Context, data []byte, multiLine bool, fn func(string) error) error {
	if multiLine {
		doc := gjson.ParseBytes(data)
		if doc.IsArray() {
			var err error
			doc.ForEach(func(_, value gjson.Result) bool {
				err = fn(value.Raw)
				return err == nil
			})
			return err
		}
		return fn(string(bytes.TrimSpace(data)))
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
		if n%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(string(line)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// parseObject returns the top-level fields of a JSON object record, or false
// when the record is not a valid object.
func parseObject(record string) (map[string]gjson.Result, bool) {
	if !gjson.Valid(record) {
		return nil, false
	}
	obj := gjson.Parse(record)
	if !obj.IsObject() {
		return nil, false
	}
	fields := make(map[string]gjson.Result)
	obj.ForEach(func(key, value gjson.Result) bool {
		fields[key.String()] = value
		return true
	})
	return fields, true
}

func jsonValueType(v gjson.Result) arrow.DataType {
	switch v.Type {
	case gjson.Null:
		return arrowutil.Types.Null
	case gjson.True, gjson.False:
		return arrowutil.Types.Boolean
	case gjson.Number:
		if _, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
			return arrowutil.Types.Long
		}
		return arrowutil.Types.Double
	default:
		return arrowutil.Types.String
	}
}

// widenType merges two inferred types: null yields to anything, long widens
// to double, and any other conflict falls back to string.
func widenType(a, b arrow.DataType) arrow.DataType {
	switch {
	case a == nil:
		return b
	case a.ID() == arrow.NULL:
		return b
	case b.ID() == arrow.NULL:
		return a
	case a.ID() == b.ID():
		return a
	case isNumeric(a) && isNumeric(b):
		return arrowutil.Types.Double
	default:
		return arrowutil.Types.String
	}
}

func isNumeric(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.INT32, arrow.INT64, arrow.FLOAT64:
		return true
	default:
		return false
	}
}

func (jsonSource) InferSchema(ctx context.Context, files []string, opts Options) (*arrow.Schema, error) {
	multiLine, err := opts.Bool("multiLine", false)
	if err != nil {
		return nil, err
	}
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}
	corruptColumn := opts.Get("columnNameOfCorruptRecord", DefaultCorruptRecordColumn)

	types := make(map[string]arrow.DataType)
	sawCorrupt := false
	for _, file := range files {
		data, err := readFile(file)
		if err != nil {
			return nil, err
		}
		err = forEachRecord(ctx, data, multiLine, func(record string) error {
			fields, ok := parseObject(record)
			if !ok {
				if mode == ModeFailFast {
					return malformed(record)
				}
				sawCorrupt = true
				return nil
			}
			for name, value := range fields {
				types[name] = widenType(types[name], jsonValueType(value))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to infer schema of %s: %w", file, err)
		}
	}
	if sawCorrupt && mode == ModePermissive {
		types[corruptColumn] = arrowutil.Types.String
	}
	if len(types) == 0 {
		return nil, unableToInfer("json")
	}

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: types[name], Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// jsonValue converts v to the Go value for dt. ok is false when the value
// does not fit the column type.
func jsonValue(v gjson.Result, dt arrow.DataType) (any, bool) {
	if v.Type == gjson.Null {
		return nil, true
	}
	switch dt.ID() {
	case arrow.BOOL:
		if v.Type == gjson.True || v.Type == gjson.False {
			return v.Bool(), true
		}
	case arrow.INT32:
		if v.Type == gjson.Number {
			if n, err := strconv.ParseInt(v.Raw, 10, 32); err == nil {
				return int32(n), true
			}
		}
	case arrow.INT64:
		if v.Type == gjson.Number {
			if n, err := strconv.ParseInt(v.Raw, 10, 64); err == nil {
				return n, true
			}
		}
	case arrow.FLOAT64:
		if v.Type == gjson.Number {
			return v.Float(), true
		}
	case arrow.STRING:
		if v.Type == gjson.String {
			return v.Str, true
		}
		return v.Raw, true
	case arrow.NULL:
		return nil, true
	}
	return nil, false
}

func (jsonSource) Read(ctx context.Context, file string, schema *arrow.Schema, opts Options) ([]arrow.Record, error) {
	multiLine, err := opts.Bool("multiLine", false)
	if err != nil {
		return nil, err
	}
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}
	corruptIdx := -1
	if idx := schema.FieldIndices(opts.Get("columnNameOfCorruptRecord", DefaultCorruptRecordColumn)); len(idx) > 0 {
		corruptIdx = idx[0]
	}

	data, err := readFile(file)
	if err != nil {
		return nil, err
	}

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	values := make([]any, len(schema.Fields()))
	err = forEachRecord(ctx, data, multiLine, func(record string) error {
		for i := range values {
			values[i] = nil
		}
		fields, ok := parseObject(record)
		if ok {
			for i, field := range schema.Fields() {
				if i == corruptIdx {
					continue
				}
				raw, present := fields[field.Name]
				if !present {
					continue
				}
				v, fits := jsonValue(raw, field.Type)
				if !fits {
					ok = false
					continue
				}
				values[i] = v
			}
		}
		if !ok {
			switch mode {
			case ModeFailFast:
				return malformed(record)
			case ModeDropMalformed:
				return nil
			}
			if corruptIdx >= 0 {
				values[corruptIdx] = record
			}
		}
		for i, v := range values {
			if err := arrowutil.Append(builder.Field(i), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read json file %s: %w", file, err)
	}
	return []arrow.Record{builder.NewRecord()}, nil
}

type jsonSink struct{}

// encodeJSONValue keeps doubles recognisable as doubles on re-read, and
// writes non-finite values as strings.
func encodeJSONValue(v any) ([]byte, error) {
	if f, ok := v.(float64); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return json.Marshal(arrowutil.FormatDouble(f))
		}
		return []byte(arrowutil.FormatDouble(f)), nil
	}
	return json.Marshal(v)
}

func (jsonSink) Extension() string     { return ".json" }
func (jsonSink) SelfCompressing() bool { return false }

// Write emits JSON Lines, omitting null fields.
func (jsonSink) Write(w io.Writer, schema *arrow.Schema, recs []arrow.Record, _ Options) error {
	bw := bufio.NewWriter(w)
	keys := make([][]byte, len(schema.Fields()))
	for i, f := range schema.Fields() {
		key, err := json.Marshal(f.Name)
		if err != nil {
			return fmt.Errorf("failed to encode column name %s: %w", f.Name, err)
		}
		keys[i] = key
	}

	var line bytes.Buffer
	for _, rec := range recs {
		for _, row := range arrowutil.Rows(rec) {
			line.Reset()
			line.WriteByte('{')
			first := true
			for i, v := range row {
				if v == nil {
					continue
				}
				encoded, err := encodeJSONValue(v)
				if err != nil {
					return fmt.Errorf("failed to encode %s: %w", schema.Field(i).Name, err)
				}
				if !first {
					line.WriteByte(',')
				}
				first = false
				line.Write(keys[i])
				line.WriteByte(':')
				line.Write(encoded)
			}
			line.WriteString("}\n")
			if _, err := bw.Write(line.Bytes()); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
