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

package plan

import (
	"fmt"
)

// Aggregate function names.
const (
	FuncCount = "count"
	FuncSum   = "sum"
	FuncAvg   = "avg"
	FuncMin   = "min"
	FuncMax   = "max"
)

// Expression is an unresolved expression built by the column API. It is
// bound to input ordinals when a relation is constructed.
type Expression interface {
	fmt.Stringer
	isExpression()
}

// Star stands for every column, as in count(*).
type Star struct{}

func (*Star) isExpression()  {}
func (*Star) String() string { return "*" }

// ColumnRef refers to an input column by name.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) isExpression()    {}
func (c *ColumnRef) String() string { return c.Name }

// Alias names the result of its child.
type Alias struct {
	Child Expression
	Name  string
}

func (*Alias) isExpression()    {}
func (a *Alias) String() string { return a.Name }

// AggregateFunction computes one value per group.
type AggregateFunction struct {
	Function string
	Child    Expression
	Distinct bool
}

func (*AggregateFunction) isExpression() {}

// String returns the generated column name, e.g. sum(sales) or count(1).
func (a *AggregateFunction) String() string {
	arg := a.Child.String()
	if _, star := a.Child.(*Star); star && a.Function == FuncCount {
		arg = "1"
	}
	if a.Distinct {
		return fmt.Sprintf("%s(DISTINCT %s)", a.Function, arg)
	}
	return fmt.Sprintf("%s(%s)", a.Function, arg)
}

// SortOrder orders by its child. Ascending orders put nulls first,
// descending orders put them last.
type SortOrder struct {
	Child      Expression
	Descending bool
}

func (*SortOrder) isExpression() {}

func (s *SortOrder) String() string {
	if s.Descending {
		return s.Child.String() + " DESC NULLS LAST"
	}
	return s.Child.String() + " ASC NULLS FIRST"
}
