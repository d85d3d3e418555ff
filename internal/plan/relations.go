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

// Package plan holds the logical relations a DataFrame is built from. Every
// relation except Read resolves its output schema when it is constructed, so
// analysis errors surface at the transformation that caused them.
package plan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow/go/v12/arrow"

	"github.com/spark-utils/spark-utils-go/internal/datasource"
)

var lastPlanID atomic.Int64

func newPlanID() int64 {
	return lastPlanID.Add(1)
}

// Relation is a node of a logical plan.
type Relation interface {
	ID() int64
	// Schema returns the output schema, inferring it from the data source
	// for Read relations.
	Schema(ctx context.Context) (*arrow.Schema, error)
	String() string
}

// Read scans files of one format.
type Read struct {
	id         int64
	Format     string
	Files      []string
	Options    datasource.Options
	Source     datasource.Source
	userSchema *arrow.Schema

	mu     sync.Mutex
	schema *arrow.Schema
}

// NewRead resolves the data source and input paths. The files are not read
// until the schema or data is needed.
func NewRead(format string, paths []string, options map[string]string, userSchema *arrow.Schema) (*Read, error) {
	source, err := datasource.LookupSource(format)
	if err != nil {
		return nil, err
	}
	files, err := datasource.ResolvePaths(paths)
	if err != nil {
		return nil, err
	}
	return &Read{
		id:         newPlanID(),
		Format:     strings.ToLower(format),
		Files:      files,
		Options:    datasource.NewOptions(options),
		Source:     source,
		userSchema: userSchema,
	}, nil
}

func (r *Read) ID() int64 { return r.id }

// Schema infers the schema once; failed inference is retried on the next call.
func (r *Read) Schema(ctx context.Context) (*arrow.Schema, error) {
	if r.userSchema != nil {
		return r.userSchema, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schema != nil {
		return r.schema, nil
	}
	schema, err := r.Source.InferSchema(ctx, r.Files, r.Options)
	if err != nil {
		return nil, err
	}
	r.schema = schema
	return schema, nil
}

func (r *Read) String() string {
	return fmt.Sprintf("Read %s %v", r.Format, r.Files)
}

// LocalRelation holds data supplied by the caller.
type LocalRelation struct {
	id      int64
	schema  *arrow.Schema
	Records []arrow.Record
}

func NewLocalRelation(schema *arrow.Schema, recs []arrow.Record) *LocalRelation {
	return &LocalRelation{id: newPlanID(), schema: schema, Records: recs}
}

func (l *LocalRelation) ID() int64 { return l.id }

func (l *LocalRelation) Schema(context.Context) (*arrow.Schema, error) { return l.schema, nil }

func (l *LocalRelation) String() string {
	return fmt.Sprintf("LocalRelation [%s]", strings.Join(fieldNames(l.schema), ", "))
}

// BoundAggregate is an aggregate expression bound to input ordinals.
type BoundAggregate struct {
	// Function is empty for grouping columns repeated in the aggregate list.
	Function string
	// Ordinal is the input column, or -1 for count(*).
	Ordinal int
	// KeyIndex is the grouping key position when Function is empty.
	KeyIndex  int
	Distinct  bool
	InputType arrow.DataType
	Field     arrow.Field
}

// Aggregate groups its input by the Grouping ordinals and computes one value
// per group for every aggregate.
type Aggregate struct {
	id         int64
	Input      Relation
	Grouping   []int
	Aggregates []BoundAggregate
	schema     *arrow.Schema
	text       string
}

func (a *Aggregate) ID() int64 { return a.id }

func (a *Aggregate) Schema(context.Context) (*arrow.Schema, error) { return a.schema, nil }

func (a *Aggregate) String() string { return a.text }

// BoundSortOrder is a sort key bound to an input ordinal.
type BoundSortOrder struct {
	Ordinal    int
	Descending bool
}

// Sort orders the rows of its input.
type Sort struct {
	id     int64
	Input  Relation
	Orders []BoundSortOrder
	schema *arrow.Schema
	text   string
}

func (s *Sort) ID() int64 { return s.id }

func (s *Sort) Schema(context.Context) (*arrow.Schema, error) { return s.schema, nil }

func (s *Sort) String() string { return s.text }

// Limit keeps the first N rows of its input.
type Limit struct {
	id     int64
	Input  Relation
	N      int64
	schema *arrow.Schema
}

func (l *Limit) ID() int64 { return l.id }

func (l *Limit) Schema(context.Context) (*arrow.Schema, error) { return l.schema, nil }

func (l *Limit) String() string { return fmt.Sprintf("Limit %d", l.N) }

func fieldNames(schema *arrow.Schema) []string {
	names := make([]string, len(schema.Fields()))
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	return names
}

// Children returns the inputs of rel.
func Children(rel Relation) []Relation {
	switch r := rel.(type) {
	case *Aggregate:
		return []Relation{r.Input}
	case *Sort:
		return []Relation{r.Input}
	case *Limit:
		return []Relation{r.Input}
	default:
		return nil
	}
}

// TreeString renders rel and its inputs, one node per line.
func TreeString(rel Relation) string {
	var sb strings.Builder
	var walk func(r Relation, depth int)
	walk = func(r Relation, depth int) {
		if depth > 0 {
			sb.WriteString(strings.Repeat("   ", depth-1))
			sb.WriteString("+- ")
		}
		sb.WriteString(r.String())
		sb.WriteString("\n")
		for _, child := range Children(r) {
			walk(child, depth+1)
		}
	}
	walk(rel, 0)
	return sb.String()
}
