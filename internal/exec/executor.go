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

// Package exec evaluates logical plans over arrow records on the local
// machine. Scans and partial aggregations run concurrently, bounded by the
// session parallelism.
package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spark-utils/spark-utils-go/internal/plan"
)

// Executor runs plans for one session.
type Executor struct {
	parallelism int
	logger      *zap.Logger
}

// New returns an Executor running at most parallelism tasks at once.
func New(parallelism int, logger *zap.Logger) *Executor {
	if parallelism < 1 {
		parallelism = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{parallelism: parallelism, logger: logger}
}

// Parallelism returns the task limit.
func (e *Executor) Parallelism() int { return e.parallelism }

// Execute evaluates rel and returns its output batches in order.
func (e *Executor) Execute(ctx context.Context, rel plan.Relation) ([]arrow.Record, error) {
	start := time.Now()
	recs, err := e.execute(ctx, rel)
	if err != nil {
		e.logger.Debug("plan execution failed",
			zap.Int64("plan_id", rel.ID()),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}
	e.logger.Debug("plan executed",
		zap.Int64("plan_id", rel.ID()),
		zap.String("plan", plan.TreeString(rel)),
		zap.Int64("rows", NumRows(recs)),
		zap.Duration("duration", time.Since(start)))
	return recs, nil
}

func (e *Executor) execute(ctx context.Context, rel plan.Relation) ([]arrow.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch r := rel.(type) {
	case *plan.Read:
		return e.scan(ctx, r)
	case *plan.LocalRelation:
		return r.Records, nil
	case *plan.Aggregate:
		input, err := e.execute(ctx, r.Input)
		if err != nil {
			return nil, err
		}
		return e.aggregate(ctx, r, input)
	case *plan.Sort:
		input, err := e.execute(ctx, r.Input)
		if err != nil {
			return nil, err
		}
		return sortRecords(ctx, r, input)
	case *plan.Limit:
		input, err := e.execute(ctx, r.Input)
		if err != nil {
			return nil, err
		}
		return limitRecords(input, r.N), nil
	default:
		return nil, fmt.Errorf("unsupported relation %T", rel)
	}
}

// scan reads every file of r, one task per file.
func (e *Executor) scan(ctx context.Context, r *plan.Read) ([]arrow.Record, error) {
	schema, err := r.Schema(ctx)
	if err != nil {
		return nil, err
	}

	results := make([][]arrow.Record, len(r.Files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, file := range r.Files {
		i, file := i, file
		g.Go(func() error {
			recs, err := r.Source.Read(gctx, file, schema, r.Options)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var recs []arrow.Record
	for _, fileRecs := range results {
		recs = append(recs, fileRecs...)
	}
	e.logger.Debug("scanned files",
		zap.String("format", r.Format),
		zap.Int("files", len(r.Files)),
		zap.Int64("rows", NumRows(recs)))
	return recs, nil
}

func limitRecords(input []arrow.Record, n int64) []arrow.Record {
	var out []arrow.Record
	remaining := n
	for _, rec := range input {
		if remaining <= 0 {
			break
		}
		if rec.NumRows() <= remaining {
			out = append(out, rec)
			remaining -= rec.NumRows()
			continue
		}
		out = append(out, rec.NewSlice(0, remaining))
		remaining = 0
	}
	return out
}

// NumRows sums the row counts of recs.
func NumRows(recs []arrow.Record) int64 {
	var n int64
	for _, rec := range recs {
		n += rec.NumRows()
	}
	return n
}
