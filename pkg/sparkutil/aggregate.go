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

package sparkutil

import (
	"fmt"

	"github.com/spark-utils/spark-utils-go/pkg/spark/sql"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/column"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/functions"
)

// GroupAndAggregate groups df by groupByCols and applies aggExprs, such as
// functions.Avg(functions.Col("price")).Alias("avg_price"). The result holds
// the grouping columns followed by one column per expression. When
// orderByCols are given the result is sorted by them, ascending.
func GroupAndAggregate(df sql.DataFrame, groupByCols []string, aggExprs []column.Column, orderByCols ...string) (sql.DataFrame, error) {
	if len(groupByCols) == 0 {
		return nil, fmt.Errorf("%w: groupByCols must be a non-empty list of column names", ErrInvalidArgument)
	}
	if len(aggExprs) == 0 {
		return nil, fmt.Errorf("%w: aggExprs must be a non-empty list of aggregation expressions", ErrInvalidArgument)
	}

	out := outputOf(df)
	fmt.Fprintf(out, "Grouping by %v and applying aggregations...\n", groupByCols)
	aggregated, err := df.GroupBy(columns(groupByCols)...).Agg(aggExprs...)
	if err != nil {
		return nil, err
	}

	if len(orderByCols) > 0 {
		fmt.Fprintf(out, "Ordering by %v...\n", orderByCols)
		return aggregated.OrderBy(columns(orderByCols)...)
	}
	return aggregated, nil
}

func columns(names []string) []column.Column {
	cols := make([]column.Column, len(names))
	for i, name := range names {
		cols[i] = functions.Col(name)
	}
	return cols
}
