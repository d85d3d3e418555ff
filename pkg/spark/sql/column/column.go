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

package column

import (
	"github.com/spark-utils/spark-utils-go/internal/plan"
)

// Column is a handle on an expression evaluated against a DataFrame. The
// zero value refers to nothing and is rejected by DataFrame operations.
type Column struct {
	expr plan.Expression
}

func NewColumn(expr plan.Expression) Column {
	return Column{expr: expr}
}

func (c Column) Expr() plan.Expression {
	return c.expr
}

// Alias names the column's result. Aliasing an alias replaces the name.
func (c Column) Alias(name string) Column {
	child := c.expr
	if a, ok := child.(*plan.Alias); ok {
		child = a.Child
	}
	return Column{expr: &plan.Alias{Child: child, Name: name}}
}

func (c Column) Asc() Column {
	return Column{expr: &plan.SortOrder{Child: c.unordered()}}
}

func (c Column) Desc() Column {
	return Column{expr: &plan.SortOrder{Child: c.unordered(), Descending: true}}
}

func (c Column) unordered() plan.Expression {
	if s, ok := c.expr.(*plan.SortOrder); ok {
		return s.Child
	}
	return c.expr
}

func (c Column) String() string {
	if c.expr == nil {
		return "<nil>"
	}
	return c.expr.String()
}
