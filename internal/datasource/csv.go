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
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/csv"
	"github.com/apache/arrow/go/v12/arrow/memory"

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
)

type csvOptions struct {
	header      bool
	inferSchema bool
	sep         rune
	nullValue   string
	mode        string
}

func parseCSVOptions(opts Options) (csvOptions, error) {
	var (
		o   csvOptions
		err error
	)
	if o.header, err = opts.Bool("header", false); err != nil {
		return o, err
	}
	if o.inferSchema, err = opts.Bool("inferSchema", false); err != nil {
		return o, err
	}
	if o.mode, err = opts.Mode(); err != nil {
		return o, err
	}
	sep := opts.Get("sep", opts.Get("delimiter", ","))
	if sep == `\t` {
		sep = "\t"
	}
	if utf8.RuneCountInString(sep) != 1 {
		return o, fmt.Errorf("csv delimiter must be a single character, got %q", sep)
	}
	o.sep, _ = utf8.DecodeRuneInString(sep)
	o.nullValue = opts.Get("nullValue", "")
	return o, nil
}

type csvSource struct{}

// columnNames reads the first record of data to name the columns: the
// header values when present, otherwise _c0, _c1, ...
func (o csvOptions) columnNames(data []byte) ([]string, error) {
	r := stdcsv.NewReader(bytes.NewReader(data))
	r.Comma = o.sep
	r.FieldsPerRecord = -1
	first, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read first csv record: %w", err)
	}
	names := make([]string, len(first))
	seen := make(map[string]int)
	for i, v := range first {
		name := fmt.Sprintf("_c%d", i)
		if o.header && strings.TrimSpace(v) != "" {
			name = v
		}
		seen[strings.ToLower(name)]++
		names[i] = name
	}
	for i, name := range names {
		if seen[strings.ToLower(name)] > 1 {
			names[i] = name + strconv.Itoa(i)
		}
	}
	return names, nil
}

// readStrings parses data with every column typed as string. Rows with a
// field count other than numCols are padded with nulls or cut to size and
// flagged in the returned malformed slice, so the caller can apply the parse
// mode to them.
func (o csvOptions) readStrings(data []byte, numCols int) (arrow.Record, []bool, error) {
	fields := make([]arrow.Field, numCols)
	for i := range fields {
		fields[i] = arrow.Field{Name: fmt.Sprintf("_c%d", i), Type: arrowutil.Types.String, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	r := stdcsv.NewReader(bytes.NewReader(data))
	r.Comma = o.sep
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	var malformed []bool
	skipHeader := o.header
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if skipHeader {
			skipHeader = false
			continue
		}
		malformed = append(malformed, len(record) != numCols)
		for c := 0; c < numCols; c++ {
			col := builder.Field(c).(*array.StringBuilder)
			if c >= len(record) || record[c] == o.nullValue {
				col.AppendNull()
				continue
			}
			col.Append(record[c])
		}
	}
	return builder.NewRecord(), malformed, nil
}

type csvKind int

const (
	csvNull csvKind = iota
	csvInteger
	csvLong
	csvDouble
	csvBoolean
	csvString
)

func csvValueKind(s string) csvKind {
	if _, err := strconv.ParseInt(s, 10, 32); err == nil {
		return csvInteger
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return csvLong
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return csvDouble
	}
	if strings.EqualFold(s, "true") || strings.EqualFold(s, "false") {
		return csvBoolean
	}
	return csvString
}

func mergeCSVKind(a, b csvKind) csvKind {
	switch {
	case a == csvNull:
		return b
	case b == csvNull, a == b:
		return a
	case a <= csvDouble && b <= csvDouble:
		return max(a, b)
	default:
		return csvString
	}
}

func (k csvKind) arrowType() arrow.DataType {
	switch k {
	case csvInteger:
		return arrowutil.Types.Integer
	case csvLong:
		return arrowutil.Types.Long
	case csvDouble:
		return arrowutil.Types.Double
	case csvBoolean:
		return arrowutil.Types.Boolean
	default:
		return arrowutil.Types.String
	}
}

func (csvSource) InferSchema(ctx context.Context, files []string, opts Options) (*arrow.Schema, error) {
	o, err := parseCSVOptions(opts)
	if err != nil {
		return nil, err
	}

	var (
		names    []string
		contents [][]byte
	)
	for _, file := range files {
		data, err := readFile(file)
		if err != nil {
			return nil, err
		}
		if names == nil {
			if names, err = o.columnNames(data); err != nil {
				return nil, fmt.Errorf("failed to read header of %s: %w", file, err)
			}
		}
		if !o.inferSchema && names != nil {
			break
		}
		contents = append(contents, data)
	}
	if names == nil {
		return nil, unableToInfer("csv")
	}

	kinds := make([]csvKind, len(names))
	if o.inferSchema {
		for _, data := range contents {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rec, _, err := o.readStrings(data, len(names))
			if err != nil {
				return nil, fmt.Errorf("failed to infer csv schema: %w", err)
			}
			for c := 0; c < len(names); c++ {
				col := rec.Column(c).(*array.String)
				for r := 0; r < col.Len(); r++ {
					if col.IsNull(r) {
						continue
					}
					kinds[c] = mergeCSVKind(kinds[c], csvValueKind(col.Value(r)))
				}
			}
			rec.Release()
		}
	}

	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		dt := arrowutil.Types.String
		if o.inferSchema {
			dt = kinds[i].arrowType()
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

func parseCSVValue(s string, dt arrow.DataType) (any, bool) {
	switch dt.ID() {
	case arrow.STRING:
		return s, true
	case arrow.INT32:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
		return int32(n), err == nil
	case arrow.INT64:
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	case arrow.FLOAT64:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	case arrow.BOOL:
		switch {
		case strings.EqualFold(s, "true"):
			return true, true
		case strings.EqualFold(s, "false"):
			return false, true
		}
	case arrow.NULL:
		return nil, true
	}
	return nil, false
}

func (csvSource) Read(ctx context.Context, file string, schema *arrow.Schema, opts Options) ([]arrow.Record, error) {
	o, err := parseCSVOptions(opts)
	if err != nil {
		return nil, err
	}
	data, err := readFile(file)
	if err != nil {
		return nil, err
	}
	strRec, malformedRows, err := o.readStrings(data, len(schema.Fields()))
	if err != nil {
		return nil, fmt.Errorf("failed to read csv file %s: %w", file, err)
	}
	defer strRec.Release()

	numRows := int(strRec.NumRows())
	rows := make([][]any, 0, numRows)
	for r := 0; r < numRows; r++ {
		if r%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := make([]any, len(schema.Fields()))
		ok := !malformedRows[r]
		for c, field := range schema.Fields() {
			col := strRec.Column(c).(*array.String)
			if col.IsNull(r) {
				continue
			}
			v, fits := parseCSVValue(col.Value(r), field.Type)
			if !fits {
				ok = false
				continue
			}
			row[c] = v
		}
		if !ok {
			switch o.mode {
			case ModeFailFast:
				return nil, fmt.Errorf("failed to read csv file %s: %w", file, malformed(fmt.Sprintf("row %d", r+1)))
			case ModeDropMalformed:
				continue
			}
		}
		rows = append(rows, row)
	}

	rec, err := arrowutil.NewRecord(schema, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build csv record for %s: %w", file, err)
	}
	return []arrow.Record{rec}, nil
}

type csvSink struct{}

func (csvSink) Extension() string     { return ".csv" }
func (csvSink) SelfCompressing() bool { return false }

func (csvSink) Write(w io.Writer, schema *arrow.Schema, recs []arrow.Record, opts Options) error {
	o, err := parseCSVOptions(opts)
	if err != nil {
		return err
	}
	for _, f := range schema.Fields() {
		if f.Type.ID() == arrow.NULL {
			return fmt.Errorf("csv data source does not support null data type in column %s", f.Name)
		}
	}

	writer := csv.NewWriter(w, schema,
		csv.WithHeader(o.header),
		csv.WithComma(o.sep),
		csv.WithNullWriter(o.nullValue),
	)
	if len(recs) == 0 {
		recs = []arrow.Record{arrowutil.EmptyRecord(schema)}
	}
	for _, rec := range recs {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}
	return writer.Flush()
}
