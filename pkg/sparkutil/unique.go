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
	"slices"

	"github.com/spark-utils/spark-utils-go/pkg/spark/sql"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/functions"
)

// GetUniqueValues counts the rows of each distinct value of columnName. The
// result has the columns (columnName, count) and is ordered by count
// descending, or by value when orderByCount is false. Ties between equal
// counts keep the order the groups were first seen in. A positive limit
// keeps only that many rows.
//
// columnName must match a column of df exactly.
func GetUniqueValues(df sql.DataFrame, columnName string, orderByCount bool, limit int) (sql.DataFrame, error) {
	columns, err := df.Columns()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(columns, columnName) {
		return nil, fmt.Errorf("%w: column '%s' not found in DataFrame", ErrInvalidArgument, columnName)
	}

	fmt.Fprintf(outputOf(df), "Getting unique values and counts for column '%s'...\n", columnName)
	counts, err := df.GroupBy(functions.Col(columnName)).Count()
	if err != nil {
		return nil, err
	}
	var result sql.DataFrame
	if orderByCount {
		result, err = counts.OrderBy(functions.Col("count").Desc())
	} else {
		result, err = counts.OrderBy(functions.Col(columnName))
	}
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		return result.Limit(limit)
	}
	return result, nil
}
