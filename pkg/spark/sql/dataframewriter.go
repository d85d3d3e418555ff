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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spark-utils/spark-utils-go/internal/datasource"
	"github.com/spark-utils/spark-utils-go/internal/sqlerrors"
)

const successMarker = "_SUCCESS"

type DataFrameWriter interface {
	Format(source string) DataFrameWriter
	// Mode is one of errorifexists (or error), overwrite, append, ignore.
	Mode(saveMode string) DataFrameWriter
	Option(key, value string) DataFrameWriter
	Options(options map[string]string) DataFrameWriter
	// Save writes one part file and a _SUCCESS marker into the directory path.
	Save(path string) error
}

type dataFrameWriterImpl struct {
	df      *dataFrameImpl
	format  string
	mode    string
	options map[string]string
}

func (w *dataFrameWriterImpl) Format(source string) DataFrameWriter {
	copy := *w
	copy.format = source
	return &copy
}

func (w *dataFrameWriterImpl) Mode(saveMode string) DataFrameWriter {
	copy := *w
	copy.mode = saveMode
	return &copy
}

func (w *dataFrameWriterImpl) Option(key, value string) DataFrameWriter {
	copy := *w
	copy.options = maps.Clone(w.options)
	copy.options[key] = value
	return &copy
}

func (w *dataFrameWriterImpl) Options(options map[string]string) DataFrameWriter {
	copy := *w
	copy.options = maps.Clone(w.options)
	for k, v := range options {
		copy.options[k] = v
	}
	return &copy
}

func (w *dataFrameWriterImpl) Save(path string) error {
	sink, err := datasource.LookupSink(w.format)
	if err != nil {
		return err
	}
	opts := datasource.NewOptions(w.options)
	partName, err := w.partFileName(sink, opts)
	if err != nil {
		return err
	}

	exists, err := pathExists(path)
	if err != nil {
		return fmt.Errorf("failed to check output path: %w", err)
	}
	switch strings.ToLower(w.mode) {
	case "", "error", "errorifexists", "default":
		if exists {
			abs, _ := filepath.Abs(path)
			return sqlerrors.Newf("PATH_ALREADY_EXISTS",
				"Path file:%s already exists. Set mode as \"overwrite\" to overwrite the existing path.", abs)
		}
	case "overwrite":
		if exists {
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("failed to overwrite %s: %w", path, err)
			}
		}
	case "append":
	case "ignore":
		if exists {
			return nil
		}
	default:
		return fmt.Errorf("unknown save mode: %s, accepted save modes are 'overwrite', 'append', 'ignore', 'error', 'errorifexists', 'default'", w.mode)
	}

	session := w.df.sparkSession
	start := time.Now()
	schema, err := w.df.arrowSchema()
	if err != nil {
		return err
	}
	recs, err := session.executePlan(w.df.relation)
	if err != nil {
		return fmt.Errorf("failed to execute plan: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	partPath := filepath.Join(path, partName)
	f, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("failed to create part file: %w", err)
	}
	if err := w.writePart(f, sink, opts, schema, recs); err != nil {
		w.discardPart(f, partPath)
		return err
	}
	if err := f.Close(); err != nil {
		w.removePart(partPath)
		return fmt.Errorf("failed to close part file: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, successMarker), nil, 0o644); err != nil {
		return fmt.Errorf("failed to write success marker: %w", err)
	}
	session.logger.Debug("dataframe saved",
		zap.String("format", w.format),
		zap.String("path", partPath),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// writePart encodes recs into f. Save owns f and closes it; sinks and codecs
// only ever see a plain io.Writer, so none of them can close the file.
func (w *dataFrameWriterImpl) writePart(f *os.File, sink datasource.Sink, opts datasource.Options, schema *arrow.Schema, recs []arrow.Record) error {
	out := struct{ io.Writer }{f}
	if sink.SelfCompressing() {
		if err := sink.Write(out, schema, recs, opts); err != nil {
			return fmt.Errorf("failed to write %s data: %w", w.format, err)
		}
		return nil
	}
	cw, err := datasource.NewCompressedWriter(out, opts.Get("compression", ""))
	if err != nil {
		return err
	}
	if err := sink.Write(cw, schema, recs, opts); err != nil {
		if cerr := cw.Close(); cerr != nil {
			w.df.sparkSession.logger.Debug("failed to close compressed writer", zap.Error(cerr))
		}
		return fmt.Errorf("failed to write %s data: %w", w.format, err)
	}
	return cw.Close()
}

// discardPart closes and removes a part file whose write failed.
func (w *dataFrameWriterImpl) discardPart(f *os.File, partPath string) {
	if err := f.Close(); err != nil {
		w.df.sparkSession.logger.Debug("failed to close part file",
			zap.String("path", partPath), zap.Error(err))
	}
	w.removePart(partPath)
}

func (w *dataFrameWriterImpl) removePart(partPath string) {
	if err := os.Remove(partPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.df.sparkSession.logger.Debug("failed to remove part file",
			zap.String("path", partPath), zap.Error(err))
	}
}

// partFileName follows the Hadoop output naming, e.g.
// part-00000-<uuid>-c000.snappy.parquet or part-00000-<uuid>-c000.json.gz.
func (w *dataFrameWriterImpl) partFileName(sink datasource.Sink, opts datasource.Options) (string, error) {
	base := fmt.Sprintf("part-00000-%s-c000", uuid.NewString())
	if sink.SelfCompressing() {
		if codec := datasource.ParquetCodecName(opts); codec != "" {
			return base + "." + codec + sink.Extension(), nil
		}
		return base + sink.Extension(), nil
	}
	ext, err := datasource.CodecExtension(opts.Get("compression", ""))
	if err != nil {
		return "", err
	}
	return base + sink.Extension() + ext, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
