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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// codec describes a stream compression applied around a whole file.
type codec struct {
	name      string
	extension string
	reader    func(io.Reader) (io.ReadCloser, error)
	writer    func(io.Writer) (io.WriteCloser, error)
}

var codecs = []codec{
	{
		name:      "gzip",
		extension: ".gz",
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
	},
	{
		name:      "zstd",
		extension: ".zst",
		reader: func(r io.Reader) (io.ReadCloser, error) {
			decoder, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return decoder.IOReadCloser(), nil
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		},
	},
	{
		name:      "lz4",
		extension: ".lz4",
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(lz4.NewReader(r)), nil
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return lz4.NewWriter(w), nil
		},
	},
	{
		name:      "snappy",
		extension: ".snappy",
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(snappy.NewReader(r)), nil
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return snappy.NewBufferedWriter(w), nil
		},
	},
}

func codecForFile(path string) (codec, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range codecs {
		if c.extension == ext {
			return c, true
		}
	}
	return codec{}, false
}

// CodecExtension validates a compression option value and returns the file
// suffix it adds. "none" and "uncompressed" disable compression.
func CodecExtension(name string) (string, error) {
	switch strings.ToLower(name) {
	case "", "none", "uncompressed":
		return "", nil
	}
	for _, c := range codecs {
		if c.name == strings.ToLower(name) {
			return c.extension, nil
		}
	}
	return "", fmt.Errorf("compression codec %s is not available, known codecs are none, gzip, zstd, lz4, snappy", name)
}

// NewCompressedWriter wraps w with the named codec.
func NewCompressedWriter(w io.Writer, name string) (io.WriteCloser, error) {
	switch strings.ToLower(name) {
	case "", "none", "uncompressed":
		return nopWriteCloser{w}, nil
	}
	for _, c := range codecs {
		if c.name == strings.ToLower(name) {
			return c.writer(w)
		}
	}
	return nil, fmt.Errorf("compression codec %s is not available", name)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type fileReader struct {
	io.Reader
	closers []io.Closer
}

func (f *fileReader) Close() error {
	var firstErr error
	for i := len(f.closers) - 1; i >= 0; i-- {
		if err := f.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// openFile opens path, transparently decompressing it when its extension
// names a known codec.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	c, ok := codecForFile(path)
	if !ok {
		return f, nil
	}
	decompressed, err := c.reader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to open %s stream for %s: %w", c.name, path, err)
	}
	return &fileReader{Reader: decompressed, closers: []io.Closer{f, decompressed}}, nil
}

func readFile(path string) ([]byte, error) {
	r, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
