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
	"fmt"
	"slices"

	"github.com/apache/arrow/go/v12/arrow"

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
	"github.com/spark-utils/spark-utils-go/internal/plan"
)

// sortRecords gathers every input row and sorts them with a stable sort, so
// rows with equal keys keep their input order.
func sortRecords(ctx context.Context, r *plan.Sort, input []arrow.Record) ([]arrow.Record, error) {
	var rows [][]any
	for _, rec := range input {
		rows = append(rows, arrowutil.Rows(rec)...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(rows, func(a, b []any) int {
		for _, o := range r.Orders {
			c := arrowutil.Compare(a[o.Ordinal], b[o.Ordinal])
			if o.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})

	schema, err := r.Schema(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := arrowutil.NewRecord(schema, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to build sorted result: %w", err)
	}
	return []arrow.Record{rec}, nil
}
