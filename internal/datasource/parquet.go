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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/apache/arrow/go/v12/parquet"
	"github.com/apache/arrow/go/v12/parquet/compress"
	"github.com/apache/arrow/go/v12/parquet/pqarrow"
)

const parquetRowGroupSize = 64 * 1024

type parquetSource struct{}

func readParquetTable(ctx context.Context, file string) (arrow.Table, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	tbl, err := pqarrow.ReadTable(ctx, bytes.NewReader(data),
		parquet.NewReaderProperties(memory.DefaultAllocator),
		pqarrow.ArrowReadProperties{},
		memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file %s: %w", file, err)
	}
	return tbl, nil
}

// InferSchema takes the schema of the first file, like Spark does without
// the mergeSchema option.
func (parquetSource) InferSchema(ctx context.Context, files []string, _ Options) (*arrow.Schema, error) {
	if len(files) == 0 {
		return nil, unableToInfer("parquet")
	}
	tbl, err := readParquetTable(ctx, files[0])
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	return tbl.Schema(), nil
}

func (parquetSource) Read(ctx context.Context, file string, schema *arrow.Schema, _ Options) ([]arrow.Record, error) {
	tbl, err := readParquetTable(ctx, file)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	chunkSize := tbl.NumRows()
	if chunkSize <= 0 {
		chunkSize = 1
	}
	reader := array.NewTableReader(tbl, chunkSize)
	defer reader.Release()

	var recs []arrow.Record
	for reader.Next() {
		rec := reader.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	return conform(file, recs, schema)
}

type parquetSink struct{}

func (parquetSink) Extension() string     { return ".parquet" }
func (parquetSink) SelfCompressing() bool { return true }

func parquetCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "lz4":
		return compress.Codecs.Lz4, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("compression codec %s is not available for parquet", name)
	}
}

// ParquetCodecName returns the codec written into part file names.
func ParquetCodecName(opts Options) string {
	name := strings.ToLower(opts.Get("compression", "snappy"))
	if name == "none" || name == "uncompressed" {
		return ""
	}
	return name
}

func (parquetSink) Write(w io.Writer, schema *arrow.Schema, recs []arrow.Record, opts Options) error {
	codec, err := parquetCodec(opts.Get("compression", "snappy"))
	if err != nil {
		return err
	}
	tbl := array.NewTableFromRecords(schema, recs)
	defer tbl.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
	)
	// WriteTable closes its writer when it is an io.Closer; the caller owns w.
	if err := pqarrow.WriteTable(tbl, struct{ io.Writer }{w}, parquetRowGroupSize, props, pqarrow.DefaultWriterProps()); err != nil {
		return fmt.Errorf("failed to write parquet: %w", err)
	}
	return nil
}
