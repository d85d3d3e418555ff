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

// Package arrowutil holds the small set of arrow conversions shared by the
// data sources, the executor and the row API.
package arrowutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/memory"
)

// Types lists the arrow types backing the supported column types.
var Types = struct {
	Null    arrow.DataType
	Boolean arrow.DataType
	Integer arrow.DataType
	Long    arrow.DataType
	Double  arrow.DataType
	String  arrow.DataType
}{
	Null:    arrow.Null,
	Boolean: arrow.FixedWidthTypes.Boolean,
	Integer: arrow.PrimitiveTypes.Int32,
	Long:    arrow.PrimitiveTypes.Int64,
	Double:  arrow.PrimitiveTypes.Float64,
	String:  arrow.BinaryTypes.String,
}

// Supported reports whether values of the given type can be read and built.
func Supported(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.NULL, arrow.BOOL, arrow.INT32, arrow.INT64, arrow.FLOAT64, arrow.STRING:
		return true
	default:
		return false
	}
}

// ValueAt returns the Go value stored at row i: nil, bool, int32, int64,
// float64 or string.
func ValueAt(arr arrow.Array, i int) any {
	if arr.IsNull(i) {
		return nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.String:
		return strings.Clone(a.Value(i))
	case *array.Null:
		return nil
	case interface{ ValueStr(int) string }:
		return a.ValueStr(i)
	default:
		return fmt.Sprintf("<%s>", arr.DataType())
	}
}

// Rows materializes a record row by row.
func Rows(rec arrow.Record) [][]any {
	numRows := int(rec.NumRows())
	numCols := int(rec.NumCols())
	rows := make([][]any, numRows)
	for i := range rows {
		rows[i] = make([]any, numCols)
	}
	for c := 0; c < numCols; c++ {
		col := rec.Column(c)
		for r := 0; r < numRows; r++ {
			rows[r][c] = ValueAt(col, r)
		}
	}
	return rows
}

// NewRecord builds a record with the given schema from row values.
func NewRecord(schema *arrow.Schema, rows [][]any) (arrow.Record, error) {
	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	numCols := len(schema.Fields())
	for r, row := range rows {
		if len(row) != numCols {
			return nil, fmt.Errorf("row %d has %d values, schema has %d columns", r, len(row), numCols)
		}
		for c, v := range row {
			if err := Append(builder.Field(c), v); err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", r, schema.Field(c).Name, err)
			}
		}
	}
	return builder.NewRecord(), nil
}

// EmptyRecord returns a zero-row record of the given schema.
func EmptyRecord(schema *arrow.Schema) arrow.Record {
	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()
	return builder.NewRecord()
}

// Append appends v to the builder, converting between Go numeric kinds when
// the conversion is lossless enough for the target column.
func Append(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch builder := b.(type) {
	case *array.BooleanBuilder:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("cannot store %T in a boolean column", v)
		}
		builder.Append(bv)
	case *array.Int32Builder:
		n, ok := ToInt64(v)
		if !ok || n < math.MinInt32 || n > math.MaxInt32 {
			return fmt.Errorf("cannot store %v (%T) in an integer column", v, v)
		}
		builder.Append(int32(n))
	case *array.Int64Builder:
		n, ok := ToInt64(v)
		if !ok {
			return fmt.Errorf("cannot store %T in a long column", v)
		}
		builder.Append(n)
	case *array.Float64Builder:
		f, ok := ToFloat64(v)
		if !ok {
			return fmt.Errorf("cannot store %T in a double column", v)
		}
		builder.Append(f)
	case *array.StringBuilder:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("cannot store %T in a string column", v)
		}
		builder.Append(s)
	case *array.NullBuilder:
		builder.AppendNull()
	default:
		return fmt.Errorf("unsupported column type %s", b.Type())
	}
	return nil
}

// ToInt64 converts any Go integer kind.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// ToFloat64 converts any Go integer or float kind.
func ToFloat64(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	n, ok := ToInt64(v)
	return float64(n), ok
}

// Compare orders two values of the same column. Nulls sort first and NaN
// sorts after every other double.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	case int32, int64:
		ai, _ := ToInt64(a)
		if bi, ok := ToInt64(b); ok {
			switch {
			case ai < bi:
				return -1
			case ai > bi:
				return 1
			default:
				return 0
			}
		}
	}
	af, aok := ToFloat64(a)
	bf, bok := ToFloat64(b)
	if aok && bok {
		return compareFloat(af, bf)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareFloat(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FormatValue renders a value the way Spark prints it in show output.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case float64:
		return FormatDouble(val)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// FormatDouble follows Java's Double.toString: a trailing ".0" on whole
// numbers and scientific notation outside [1e-3, 1e7).
func FormatDouble(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e7 || abs < 1e-3) {
		s := strconv.FormatFloat(f, 'E', -1, 64)
		mantissa, exponent, _ := strings.Cut(s, "E")
		if !strings.Contains(mantissa, ".") {
			mantissa += ".0"
		}
		exp, _ := strconv.Atoi(exponent)
		return mantissa + "E" + strconv.Itoa(exp)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
