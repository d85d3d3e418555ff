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

package exec

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
	"github.com/spark-utils/spark-utils-go/internal/plan"
)

// accumulator folds the values of one aggregate for one group.
type accumulator interface {
	update(v any)
	merge(other accumulator)
	result() any
}

type countAccumulator struct {
	star bool
	n    int64
}

func (a *countAccumulator) update(v any) {
	if a.star || v != nil {
		a.n++
	}
}

func (a *countAccumulator) merge(other accumulator) { a.n += other.(*countAccumulator).n }
func (a *countAccumulator) result() any             { return a.n }

type countDistinctAccumulator struct {
	seen map[any]struct{}
}

func (a *countDistinctAccumulator) update(v any) {
	if v != nil {
		a.seen[v] = struct{}{}
	}
}

func (a *countDistinctAccumulator) merge(other accumulator) {
	for v := range other.(*countDistinctAccumulator).seen {
		a.seen[v] = struct{}{}
	}
}

func (a *countDistinctAccumulator) result() any { return int64(len(a.seen)) }

type sumLongAccumulator struct {
	sum  int64
	seen bool
}

func (a *sumLongAccumulator) update(v any) {
	if n, ok := arrowutil.ToInt64(v); ok {
		a.sum += n
		a.seen = true
	}
}

func (a *sumLongAccumulator) merge(other accumulator) {
	o := other.(*sumLongAccumulator)
	a.sum += o.sum
	a.seen = a.seen || o.seen
}

func (a *sumLongAccumulator) result() any {
	if !a.seen {
		return nil
	}
	return a.sum
}

type sumDoubleAccumulator struct {
	sum  float64
	seen bool
}

func (a *sumDoubleAccumulator) update(v any) {
	if f, ok := arrowutil.ToFloat64(v); ok {
		a.sum += f
		a.seen = true
	}
}

func (a *sumDoubleAccumulator) merge(other accumulator) {
	o := other.(*sumDoubleAccumulator)
	a.sum += o.sum
	a.seen = a.seen || o.seen
}

func (a *sumDoubleAccumulator) result() any {
	if !a.seen {
		return nil
	}
	return a.sum
}

type avgAccumulator struct {
	sum float64
	n   int64
}

func (a *avgAccumulator) update(v any) {
	if f, ok := arrowutil.ToFloat64(v); ok {
		a.sum += f
		a.n++
	}
}

func (a *avgAccumulator) merge(other accumulator) {
	o := other.(*avgAccumulator)
	a.sum += o.sum
	a.n += o.n
}

func (a *avgAccumulator) result() any {
	if a.n == 0 {
		return nil
	}
	return a.sum / float64(a.n)
}

type extremumAccumulator struct {
	max   bool
	value any
}

func (a *extremumAccumulator) update(v any) {
	if v == nil {
		return
	}
	if a.value == nil {
		a.value = v
		return
	}
	c := arrowutil.Compare(v, a.value)
	if (a.max && c > 0) || (!a.max && c < 0) {
		a.value = v
	}
}

func (a *extremumAccumulator) merge(other accumulator) { a.update(other.(*extremumAccumulator).value) }
func (a *extremumAccumulator) result() any             { return a.value }

// keyAccumulator stands in for grouping columns repeated in the aggregate
// list; their value comes from the group key.
type keyAccumulator struct{}

func (keyAccumulator) update(any)        {}
func (keyAccumulator) merge(accumulator) {}
func (keyAccumulator) result() any       { return nil }

func newAccumulator(b plan.BoundAggregate) accumulator {
	switch b.Function {
	case plan.FuncCount:
		if b.Distinct {
			return &countDistinctAccumulator{seen: make(map[any]struct{})}
		}
		return &countAccumulator{star: b.Ordinal < 0}
	case plan.FuncSum:
		if b.Field.Type.ID() == arrow.INT64 {
			return &sumLongAccumulator{}
		}
		return &sumDoubleAccumulator{}
	case plan.FuncAvg:
		return &avgAccumulator{}
	case plan.FuncMin:
		return &extremumAccumulator{}
	case plan.FuncMax:
		return &extremumAccumulator{max: true}
	default:
		return keyAccumulator{}
	}
}

// groupTable holds the accumulators of every group seen so far, in order of
// first appearance. Groups are located by the xxhash of their key values.
type groupTable struct {
	aggs   []plan.BoundAggregate
	digest *xxhash.Digest
	index  map[uint64][]int
	keys   [][]any
	states [][]accumulator
	buf    []byte
}

func newGroupTable(aggs []plan.BoundAggregate) *groupTable {
	return &groupTable{
		aggs:   aggs,
		digest: xxhash.New(),
		index:  make(map[uint64][]int),
	}
}

func (t *groupTable) hash(key []any) uint64 {
	t.digest.Reset()
	for _, v := range key {
		t.buf = appendKeyValue(t.buf[:0], v)
		_, _ = t.digest.Write(t.buf)
	}
	return t.digest.Sum64()
}

// appendKeyValue encodes v with a type tag so that values of different
// columns cannot run together.
func appendKeyValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case nil:
		return append(buf, 0)
	case bool:
		if val {
			return append(buf, 1, 1)
		}
		return append(buf, 1, 0)
	case int32:
		return binary.LittleEndian.AppendUint64(append(buf, 2), uint64(int64(val)))
	case int64:
		return binary.LittleEndian.AppendUint64(append(buf, 2), uint64(val))
	case float64:
		switch {
		case math.IsNaN(val):
			val = math.NaN()
		case val == 0:
			val = 0
		}
		return binary.LittleEndian.AppendUint64(append(buf, 3), math.Float64bits(val))
	case string:
		buf = binary.LittleEndian.AppendUint32(append(buf, 4), uint32(len(val)))
		return append(buf, val...)
	default:
		s := fmt.Sprint(val)
		buf = binary.LittleEndian.AppendUint32(append(buf, 5), uint32(len(s)))
		return append(buf, s...)
	}
}

func keysEqual(a, b []any) bool {
	for i := range a {
		if (a[i] == nil) != (b[i] == nil) || arrowutil.Compare(a[i], b[i]) != 0 {
			return false
		}
	}
	return true
}

// group returns the position of key, adding a new group when needed.
func (t *groupTable) group(key []any) int {
	h := t.hash(key)
	for _, pos := range t.index[h] {
		if keysEqual(t.keys[pos], key) {
			return pos
		}
	}
	pos := len(t.keys)
	t.index[h] = append(t.index[h], pos)
	t.keys = append(t.keys, key)
	states := make([]accumulator, len(t.aggs))
	for i, b := range t.aggs {
		states[i] = newAccumulator(b)
	}
	t.states = append(t.states, states)
	return pos
}

func (t *groupTable) merge(other *groupTable) {
	for i, key := range other.keys {
		pos := t.group(key)
		for j, state := range t.states[pos] {
			state.merge(other.states[i][j])
		}
	}
}

// partialAggregate folds one batch into a fresh group table.
func partialAggregate(ctx context.Context, r *plan.Aggregate, rec arrow.Record) (*groupTable, error) {
	table := newGroupTable(r.Aggregates)
	for i, row := range arrowutil.Rows(rec) {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		key := make([]any, len(r.Grouping))
		for k, ordinal := range r.Grouping {
			key[k] = row[ordinal]
		}
		states := table.states[table.group(key)]
		for j, b := range r.Aggregates {
			var v any
			if b.Ordinal >= 0 {
				v = row[b.Ordinal]
			}
			states[j].update(v)
		}
	}
	return table, nil
}

// aggregate computes partial group tables per input batch concurrently and
// merges them in batch order, so groups come out in order of first appearance.
func (e *Executor) aggregate(ctx context.Context, r *plan.Aggregate, input []arrow.Record) ([]arrow.Record, error) {
	partials := make([]*groupTable, len(input))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)
	for i, rec := range input {
		i, rec := i, rec
		g.Go(func() error {
			table, err := partialAggregate(gctx, r, rec)
			if err != nil {
				return err
			}
			partials[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := newGroupTable(r.Aggregates)
	for _, partial := range partials {
		result.merge(partial)
	}
	if len(r.Grouping) == 0 && len(result.keys) == 0 {
		result.group([]any{})
	}

	schema, err := r.Schema(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, len(result.keys))
	for pos, key := range result.keys {
		row := make([]any, 0, len(key)+len(r.Aggregates))
		row = append(row, key...)
		for j, b := range r.Aggregates {
			if b.Function == "" {
				row = append(row, key[b.KeyIndex])
				continue
			}
			row = append(row, result.states[pos][j].result())
		}
		rows[pos] = row
	}
	rec, err := arrowutil.NewRecord(schema, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build aggregate result: %w", err)
	}
	return []arrow.Record{rec}, nil
}
