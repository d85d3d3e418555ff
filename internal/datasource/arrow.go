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
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/ipc"
	"github.com/apache/arrow/go/v12/arrow/memory"

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
)

// arrowSource reads Arrow IPC streams, the same encoding Spark Connect uses
// for result batches.
type arrowSource struct{}

func (arrowSource) InferSchema(_ context.Context, files []string, _ Options) (*arrow.Schema, error) {
	if len(files) == 0 {
		return nil, unableToInfer("arrow")
	}
	r, err := openFile(files[0])
	if err != nil {
		return nil, err
	}
	defer r.Close()
	reader, err := ipc.NewReader(r, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader for %s: %w", files[0], err)
	}
	defer reader.Release()
	return reader.Schema(), nil
}

func (arrowSource) Read(ctx context.Context, file string, schema *arrow.Schema, _ Options) ([]arrow.Record, error) {
	r, err := openFile(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	reader, err := ipc.NewReader(r, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader for %s: %w", file, err)
	}
	defer reader.Release()

	var recs []arrow.Record
	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := reader.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read arrow: %w", err)
	}
	return conform(file, recs, schema)
}

type arrowSink struct{}

func (arrowSink) Extension() string     { return ".arrow" }
func (arrowSink) SelfCompressing() bool { return false }

func (arrowSink) Write(w io.Writer, schema *arrow.Schema, recs []arrow.Record, _ Options) error {
	writer := ipc.NewWriter(struct{ io.Writer }{w}, ipc.WithSchema(schema), ipc.WithAllocator(memory.DefaultAllocator))
	for _, rec := range recs {
		if err := writer.Write(rec); err != nil {
			_ = writer.Close()
			return fmt.Errorf("failed to write arrow record: %w", err)
		}
	}
	return writer.Close()
}

// textSource reads each line of a file into a single "value" column.
type textSource struct{}

// TextSchema is the fixed schema of the text format.
var TextSchema = arrow.NewSchema([]arrow.Field{
	{Name: "value", Type: arrowutil.Types.String, Nullable: true},
}, nil)

func (textSource) InferSchema(context.Context, []string, Options) (*arrow.Schema, error) {
	return TextSchema, nil
}

func (textSource) Read(ctx context.Context, file string, schema *arrow.Schema, _ Options) ([]arrow.Record, error) {
	if len(schema.Fields()) != 1 || schema.Field(0).Type.ID() != arrow.STRING {
		return nil, fmt.Errorf("text data source supports only a single string column, got %s", schema)
	}
	r, err := openFile(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	builder := array.NewStringBuilder(memory.DefaultAllocator)
	defer builder.Release()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		builder.Append(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read text file %s: %w", file, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	col := builder.NewArray()
	defer col.Release()
	return []arrow.Record{array.NewRecord(schema, []arrow.Array{col}, int64(col.Len()))}, nil
}

type textSink struct{}

func (textSink) Extension() string     { return ".txt" }
func (textSink) SelfCompressing() bool { return false }

func (textSink) Write(w io.Writer, schema *arrow.Schema, recs []arrow.Record, _ Options) error {
	if len(schema.Fields()) != 1 || schema.Field(0).Type.ID() != arrow.STRING {
		return fmt.Errorf("text data source supports only a single string column, got %s", schema)
	}
	bw := bufio.NewWriter(w)
	for _, rec := range recs {
		col := rec.Column(0).(*array.String)
		for i := 0; i < col.Len(); i++ {
			if !col.IsNull(i) {
				if _, err := bw.WriteString(col.Value(i)); err != nil {
					return err
				}
			}
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
