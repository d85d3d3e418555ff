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

// Package functions builds column expressions, mirroring
// pyspark.sql.functions.
package functions

import (
	"github.com/spark-utils/spark-utils-go/internal/plan"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/column"
)

// Col refers to a column by name. "*" stands for all columns.
func Col(name string) column.Column {
	if name == "*" {
		return column.NewColumn(&plan.Star{})
	}
	return column.NewColumn(&plan.ColumnRef{Name: name})
}

func Asc(name string) column.Column {
	return Col(name).Asc()
}

func Desc(name string) column.Column {
	return Col(name).Desc()
}

func aggregate(fn string, c column.Column, distinct bool) column.Column {
	return column.NewColumn(&plan.AggregateFunction{Function: fn, Child: c.Expr(), Distinct: distinct})
}

func Sum(c column.Column) column.Column {
	return aggregate(plan.FuncSum, c, false)
}

func Avg(c column.Column) column.Column {
	return aggregate(plan.FuncAvg, c, false)
}

// Mean is an alias for Avg.
func Mean(c column.Column) column.Column {
	return Avg(c)
}

func Min(c column.Column) column.Column {
	return aggregate(plan.FuncMin, c, false)
}

func Max(c column.Column) column.Column {
	return aggregate(plan.FuncMax, c, false)
}

// Count counts non-null values of c, or all rows for Col("*").
func Count(c column.Column) column.Column {
	return aggregate(plan.FuncCount, c, false)
}

func CountDistinct(c column.Column) column.Column {
	return aggregate(plan.FuncCount, c, true)
}
