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
	"fmt"

	"github.com/apache/arrow/go/v12/arrow"

	"github.com/spark-utils/spark-utils-go/internal/plan"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/column"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/functions"
)

// GroupedData is a DataFrame grouped by a set of columns, waiting for
// aggregations.
type GroupedData interface {
	Agg(exprs ...column.Column) (DataFrame, error)
	// Count counts the rows of each group into a column named count.
	Count() (DataFrame, error)
	// Sum, Avg, Min and Max apply to the named columns, or to every numeric
	// column when none are named.
	Sum(cols ...string) (DataFrame, error)
	Avg(cols ...string) (DataFrame, error)
	Min(cols ...string) (DataFrame, error)
	Max(cols ...string) (DataFrame, error)
}

type groupedDataImpl struct {
	df           *dataFrameImpl
	groupingCols []column.Column
}

func (g *groupedDataImpl) Agg(exprs ...column.Column) (DataFrame, error) {
	grouping, err := expressions(g.groupingCols)
	if err != nil {
		return nil, err
	}
	aggregates, err := expressions(exprs)
	if err != nil {
		return nil, err
	}
	session := g.df.sparkSession
	agg, err := plan.NewAggregate(session.ctx, g.df.relation, grouping, aggregates, session.caseSensitive())
	if err != nil {
		return nil, err
	}
	return newDataFrame(session, agg), nil
}

func (g *groupedDataImpl) Count() (DataFrame, error) {
	return g.Agg(functions.Count(functions.Col("*")).Alias("count"))
}

func (g *groupedDataImpl) Sum(cols ...string) (DataFrame, error) {
	return g.numericAgg(functions.Sum, cols)
}

func (g *groupedDataImpl) Avg(cols ...string) (DataFrame, error) {
	return g.numericAgg(functions.Avg, cols)
}

func (g *groupedDataImpl) Min(cols ...string) (DataFrame, error) {
	return g.numericAgg(functions.Min, cols)
}

func (g *groupedDataImpl) Max(cols ...string) (DataFrame, error) {
	return g.numericAgg(functions.Max, cols)
}

func (g *groupedDataImpl) numericAgg(fn func(column.Column) column.Column, cols []string) (DataFrame, error) {
	if len(cols) == 0 {
		schema, err := g.df.arrowSchema()
		if err != nil {
			return nil, err
		}
		for _, f := range schema.Fields() {
			switch f.Type.ID() {
			case arrow.INT32, arrow.INT64, arrow.FLOAT64:
				cols = append(cols, f.Name)
			}
		}
		if len(cols) == 0 {
			return nil, fmt.Errorf("no numeric columns to aggregate")
		}
	}
	exprs := make([]column.Column, len(cols))
	for i, c := range cols {
		exprs[i] = fn(functions.Col(c))
	}
	return g.Agg(exprs...)
}
