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

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
	"github.com/spark-utils/spark-utils-go/internal/exec"
	"github.com/spark-utils/spark-utils-go/internal/plan"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/column"
)

// DataFrame is an immutable, lazily evaluated table. Transformations are
// analyzed when they are called; data is read only by actions.
type DataFrame interface {
	SparkSession() Session
	Schema() (*StructType, error)
	// Columns returns the column names in schema order.
	Columns() ([]string, error)
	PrintSchema() error
	Show(numRows int, truncate bool) error
	Collect() ([]Row, error)
	Count() (int64, error)
	GroupBy(cols ...column.Column) GroupedData
	OrderBy(cols ...column.Column) (DataFrame, error)
	Limit(n int) (DataFrame, error)
	Write() DataFrameWriter
	// Explain returns the logical plan.
	Explain() string
}

type dataFrameImpl struct {
	sparkSession *sparkSessionImpl
	relation     plan.Relation
}

func newDataFrame(session *sparkSessionImpl, relation plan.Relation) *dataFrameImpl {
	return &dataFrameImpl{sparkSession: session, relation: relation}
}

func (df *dataFrameImpl) SparkSession() Session {
	return df.sparkSession
}

func (df *dataFrameImpl) arrowSchema() (*arrow.Schema, error) {
	schema, err := df.sparkSession.analyzePlan(df.relation)
	if err != nil {
		return nil, err
	}
	return schema, nil
}

func (df *dataFrameImpl) Schema() (*StructType, error) {
	schema, err := df.arrowSchema()
	if err != nil {
		return nil, err
	}
	return convertArrowSchemaToStructType(schema), nil
}

func (df *dataFrameImpl) Columns() ([]string, error) {
	schema, err := df.Schema()
	if err != nil {
		return nil, err
	}
	return schema.FieldNames(), nil
}

func (df *dataFrameImpl) PrintSchema() error {
	schema, err := df.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(df.sparkSession.output, schema.TreeString())
	return err
}

func (df *dataFrameImpl) Show(numRows int, truncate bool) error {
	truncateValue := 0
	if truncate {
		truncateValue = df.sparkSession.showTruncate()
	}
	if numRows < 0 {
		numRows = 0
	}

	schema, err := df.arrowSchema()
	if err != nil {
		return err
	}
	// One extra row tells whether there is more to show.
	limit, err := plan.NewLimit(df.sparkSession.ctx, df.relation, numRows+1)
	if err != nil {
		return err
	}
	recs, err := df.sparkSession.executePlan(limit)
	if err != nil {
		return fmt.Errorf("failed to show dataframe: %w", err)
	}
	var rows [][]any
	for _, rec := range recs {
		rows = append(rows, arrowutil.Rows(rec)...)
	}
	_, err = fmt.Fprint(df.sparkSession.output, showString(fieldNames(schema), rows, numRows, truncateValue))
	return err
}

func (df *dataFrameImpl) Collect() ([]Row, error) {
	recs, err := df.sparkSession.executePlan(df.relation)
	if err != nil {
		return nil, fmt.Errorf("failed to execute plan: %w", err)
	}
	schema, err := df.Schema()
	if err != nil {
		return nil, err
	}
	var result []Row
	for _, rec := range recs {
		for _, values := range arrowutil.Rows(rec) {
			result = append(result, &GenericRowWithSchema{
				schema: schema,
				values: values,
			})
		}
	}
	return result, nil
}

func (df *dataFrameImpl) Count() (int64, error) {
	recs, err := df.sparkSession.executePlan(df.relation)
	if err != nil {
		return 0, fmt.Errorf("failed to execute plan: %w", err)
	}
	return exec.NumRows(recs), nil
}

func (df *dataFrameImpl) GroupBy(cols ...column.Column) GroupedData {
	return &groupedDataImpl{df: df, groupingCols: cols}
}

func (df *dataFrameImpl) OrderBy(cols ...column.Column) (DataFrame, error) {
	exprs, err := expressions(cols)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		return df, nil
	}
	sort, err := plan.NewSort(df.sparkSession.ctx, df.relation, exprs, df.sparkSession.caseSensitive())
	if err != nil {
		return nil, err
	}
	return newDataFrame(df.sparkSession, sort), nil
}

func (df *dataFrameImpl) Limit(n int) (DataFrame, error) {
	limit, err := plan.NewLimit(df.sparkSession.ctx, df.relation, n)
	if err != nil {
		return nil, err
	}
	return newDataFrame(df.sparkSession, limit), nil
}

func (df *dataFrameImpl) Write() DataFrameWriter {
	return &dataFrameWriterImpl{
		df:      df,
		format:  df.sparkSession.conf.GetWithDefault(confDefaultSource, "parquet"),
		mode:    "errorifexists",
		options: map[string]string{},
	}
}

func (df *dataFrameImpl) Explain() string {
	return plan.TreeString(df.relation)
}

func expressions(cols []column.Column) ([]plan.Expression, error) {
	exprs := make([]plan.Expression, len(cols))
	for i, c := range cols {
		if c.Expr() == nil {
			return nil, fmt.Errorf("column %d is not set", i)
		}
		exprs[i] = c.Expr()
	}
	return exprs, nil
}

func fieldNames(schema *arrow.Schema) []string {
	names := make([]string, len(schema.Fields()))
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	return names
}
