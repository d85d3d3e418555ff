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
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/hashicorp/go-multierror"

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
	"github.com/spark-utils/spark-utils-go/internal/sqlerrors"
)

// resolveColumn finds name in schema. Matching ignores case unless
// caseSensitive is set.
func resolveColumn(schema *arrow.Schema, name string, caseSensitive bool) (int, error) {
	var matches []int
	for i, f := range schema.Fields() {
		if f.Name == name || (!caseSensitive && strings.EqualFold(f.Name, name)) {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		quoted := make([]string, 0, len(schema.Fields()))
		for _, n := range fieldNames(schema) {
			quoted = append(quoted, "`"+n+"`")
		}
		return -1, sqlerrors.Newf("UNRESOLVED_COLUMN.WITH_SUGGESTION",
			"A column or function parameter with name `%s` cannot be resolved. Did you mean one of the following? [%s].",
			name, strings.Join(quoted, ", "))
	default:
		return -1, sqlerrors.Newf("AMBIGUOUS_REFERENCE",
			"Reference `%s` is ambiguous, could be: %d columns.", name, len(matches))
	}
}

func resolveColumnExpr(schema *arrow.Schema, expr Expression, caseSensitive bool) (int, error) {
	ref, ok := expr.(*ColumnRef)
	if !ok {
		return -1, sqlerrors.Newf("UNSUPPORTED_EXPR",
			"Expression `%s` is not supported here, expected a column reference.", expr)
	}
	return resolveColumn(schema, ref.Name, caseSensitive)
}

// aggregateResultType returns the output type of fn applied to input.
func aggregateResultType(fn string, input arrow.DataType, expr Expression) (arrow.DataType, error) {
	mismatch := func(expected string) error {
		return sqlerrors.Newf("DATATYPE_MISMATCH.UNEXPECTED_INPUT_TYPE",
			"Cannot resolve \"%s\" due to data type mismatch: parameter requires %s type, however the input has type %s.",
			expr, expected, input)
	}
	switch fn {
	case FuncCount:
		return arrowutil.Types.Long, nil
	case FuncSum:
		switch input.ID() {
		case arrow.INT32, arrow.INT64:
			return arrowutil.Types.Long, nil
		case arrow.FLOAT64, arrow.NULL:
			return arrowutil.Types.Double, nil
		}
		return nil, mismatch("numeric")
	case FuncAvg:
		switch input.ID() {
		case arrow.INT32, arrow.INT64, arrow.FLOAT64, arrow.NULL:
			return arrowutil.Types.Double, nil
		}
		return nil, mismatch("numeric")
	case FuncMin, FuncMax:
		if !arrowutil.Supported(input) {
			return nil, mismatch("orderable")
		}
		return input, nil
	default:
		return nil, sqlerrors.Newf("UNRESOLVED_ROUTINE",
			"Cannot resolve function `%s`.", fn)
	}
}

// NewAggregate binds grouping columns and aggregate expressions against the
// input schema. All unresolved references are reported together.
func NewAggregate(ctx context.Context, input Relation, grouping, aggregates []Expression, caseSensitive bool) (*Aggregate, error) {
	if len(aggregates) == 0 {
		return nil, sqlerrors.Newf("INVALID_AGGREGATION", "Aggregate expressions should not be empty.")
	}
	inSchema, err := input.Schema(ctx)
	if err != nil {
		return nil, err
	}

	var errs *multierror.Error
	fields := make([]arrow.Field, 0, len(grouping)+len(aggregates))
	groupOrdinals := make([]int, 0, len(grouping))
	groupNames := make([]string, 0, len(grouping))
	for _, g := range grouping {
		idx, err := resolveColumnExpr(inSchema, g, caseSensitive)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		groupOrdinals = append(groupOrdinals, idx)
		groupNames = append(groupNames, inSchema.Field(idx).Name)
		fields = append(fields, inSchema.Field(idx))
	}

	bound := make([]BoundAggregate, 0, len(aggregates))
	aggNames := make([]string, 0, len(aggregates))
	for _, a := range aggregates {
		name := a.String()
		expr := a
		if alias, ok := a.(*Alias); ok {
			expr = alias.Child
		}
		b, err := bindAggregate(inSchema, expr, groupOrdinals, caseSensitive)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		b.Field.Name = name
		bound = append(bound, b)
		aggNames = append(aggNames, a.String())
		fields = append(fields, b.Field)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &Aggregate{
		id:         newPlanID(),
		Input:      input,
		Grouping:   groupOrdinals,
		Aggregates: bound,
		schema:     arrow.NewSchema(fields, nil),
		text:       fmt.Sprintf("Aggregate [%s], [%s]", strings.Join(groupNames, ", "), strings.Join(aggNames, ", ")),
	}, nil
}

func bindAggregate(inSchema *arrow.Schema, expr Expression, groupOrdinals []int, caseSensitive bool) (BoundAggregate, error) {
	switch e := expr.(type) {
	case *AggregateFunction:
		b := BoundAggregate{Function: e.Function, Ordinal: -1, Distinct: e.Distinct, InputType: arrowutil.Types.Null}
		if _, star := e.Child.(*Star); star {
			if e.Function != FuncCount || e.Distinct {
				return b, sqlerrors.Newf("INVALID_USAGE_OF_STAR_OR_REGEX",
					"Invalid usage of '*' in %s.", e)
			}
		} else {
			idx, err := resolveColumnExpr(inSchema, e.Child, caseSensitive)
			if err != nil {
				return b, err
			}
			b.Ordinal = idx
			b.InputType = inSchema.Field(idx).Type
		}
		resultType, err := aggregateResultType(e.Function, b.InputType, e)
		if err != nil {
			return b, err
		}
		b.Field = arrow.Field{Type: resultType, Nullable: e.Function != FuncCount}
		return b, nil
	case *ColumnRef:
		idx, err := resolveColumn(inSchema, e.Name, caseSensitive)
		if err != nil {
			return BoundAggregate{}, err
		}
		for k, ordinal := range groupOrdinals {
			if ordinal == idx {
				f := inSchema.Field(idx)
				return BoundAggregate{Ordinal: idx, KeyIndex: k, InputType: f.Type, Field: f}, nil
			}
		}
		return BoundAggregate{}, sqlerrors.Newf("MISSING_AGGREGATION",
			"The non-aggregating expression `%s` is based on columns which are not participating in the GROUP BY clause.", e.Name)
	default:
		return BoundAggregate{}, sqlerrors.Newf("UNSUPPORTED_EXPR",
			"Expression `%s` is not an aggregate function.", expr)
	}
}

// NewSort binds sort keys against the input schema. Plain column references
// sort ascending.
func NewSort(ctx context.Context, input Relation, orders []Expression, caseSensitive bool) (*Sort, error) {
	inSchema, err := input.Schema(ctx)
	if err != nil {
		return nil, err
	}
	var errs *multierror.Error
	bound := make([]BoundSortOrder, 0, len(orders))
	texts := make([]string, 0, len(orders))
	for _, o := range orders {
		order, ok := o.(*SortOrder)
		if !ok {
			order = &SortOrder{Child: o}
		}
		idx, err := resolveColumnExpr(inSchema, order.Child, caseSensitive)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		bound = append(bound, BoundSortOrder{Ordinal: idx, Descending: order.Descending})
		texts = append(texts, order.String())
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &Sort{
		id:     newPlanID(),
		Input:  input,
		Orders: bound,
		schema: inSchema,
		text:   fmt.Sprintf("Sort [%s]", strings.Join(texts, ", ")),
	}, nil
}

// NewLimit keeps the first n rows of input.
func NewLimit(ctx context.Context, input Relation, n int) (*Limit, error) {
	if n < 0 {
		return nil, sqlerrors.Newf("INVALID_LIMIT_LIKE_EXPRESSION.IS_NEGATIVE",
			"The limit like expression \"%d\" is invalid. The limit expression must be equal to or greater than 0.", n)
	}
	inSchema, err := input.Schema(ctx)
	if err != nil {
		return nil, err
	}
	return &Limit{id: newPlanID(), Input: input, N: int64(n), schema: inSchema}, nil
}
