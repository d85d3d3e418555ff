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

package arrowutil

import (
	"math"
	"testing"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDouble(t *testing.T) {
	testCases := map[float64]string{
		0:            "0.0",
		1:            "1.0",
		-2.5:         "-2.5",
		0.001:        "0.001",
		0.0001:       "1.0E-4",
		1234567:      "1234567.0",
		12345678:     "1.2345678E7",
		1e21:         "1.0E21",
		math.NaN():   "NaN",
		math.Inf(1):  "Infinity",
		math.Inf(-1): "-Infinity",
	}
	for in, want := range testCases {
		assert.Equal(t, want, FormatDouble(in), "FormatDouble(%v)", in)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "null", FormatValue(nil))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "3.0", FormatValue(3.0))
	assert.Equal(t, "x", FormatValue("x"))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, Compare(nil, nil))
	assert.Equal(t, -1, Compare(nil, int64(0)))
	assert.Equal(t, 1, Compare("a", nil))
	assert.Equal(t, -1, Compare("a", "b"))
	assert.Equal(t, -1, Compare(false, true))
	assert.Equal(t, 0, Compare(int32(3), int64(3)))
	assert.Equal(t, 1, Compare(int64(math.MaxInt64), int64(math.MaxInt64-1)))
	assert.Equal(t, -1, Compare(int64(1), 1.5))
	assert.Equal(t, 1, Compare(math.NaN(), math.Inf(1)))
	assert.Equal(t, 0, Compare(math.NaN(), math.NaN()))
}

func TestNewRecordAndRows(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "b", Type: Types.Boolean, Nullable: true},
		{Name: "i", Type: Types.Integer, Nullable: true},
		{Name: "l", Type: Types.Long, Nullable: true},
		{Name: "d", Type: Types.Double, Nullable: true},
		{Name: "s", Type: Types.String, Nullable: true},
		{Name: "n", Type: Types.Null, Nullable: true},
	}, nil)
	rec, err := NewRecord(schema, [][]any{
		{true, 1, uint8(2), int32(3), "x", nil},
		{nil, nil, nil, nil, nil, nil},
	})
	require.Nil(t, err)
	defer rec.Release()

	assert.Equal(t, [][]any{
		{true, int32(1), int64(2), 3.0, "x", nil},
		{nil, nil, nil, nil, nil, nil},
	}, Rows(rec))
}

func TestAppendRejectsMismatchedValues(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "i", Type: Types.Integer, Nullable: true}}, nil)

	_, err := NewRecord(schema, [][]any{{int64(math.MaxInt32) + 1}})
	assert.NotNil(t, err)
	_, err = NewRecord(schema, [][]any{{"1"}})
	assert.NotNil(t, err)
	_, err = NewRecord(schema, [][]any{{1, 2}})
	assert.NotNil(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(Types.Double))
	assert.False(t, Supported(arrow.PrimitiveTypes.Uint8))
}

func TestEmptyRecord(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{{Name: "s", Type: Types.String, Nullable: true}}, nil)
	rec := EmptyRecord(schema)
	defer rec.Release()
	assert.Equal(t, int64(0), rec.NumRows())
	assert.True(t, rec.Schema().Equal(schema))
}
