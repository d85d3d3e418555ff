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
	"reflect"
	"strings"

	"github.com/apache/arrow/go/v12/arrow"

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
)

type DataType interface {
	TypeName() string
}

type BooleanType struct {
}

func (t BooleanType) TypeName() string {
	return getDataTypeName(t)
}

type IntegerType struct {
}

func (t IntegerType) TypeName() string {
	return getDataTypeName(t)
}

type LongType struct {
}

func (t LongType) TypeName() string {
	return getDataTypeName(t)
}

type DoubleType struct {
}

func (t DoubleType) TypeName() string {
	return getDataTypeName(t)
}

type StringType struct {
}

func (t StringType) TypeName() string {
	return getDataTypeName(t)
}

type NullType struct {
}

func (t NullType) TypeName() string {
	return getDataTypeName(t)
}

type UnsupportedType struct {
	TypeInfo any
}

func (t UnsupportedType) TypeName() string {
	return getDataTypeName(t)
}

func getDataTypeName(dataType DataType) string {
	t := reflect.TypeOf(dataType)
	if t == nil {
		return "(nil)"
	}
	var name string
	if t.Kind() == reflect.Ptr {
		name = t.Elem().Name()
	} else {
		name = t.Name()
	}
	name = strings.TrimSuffix(name, "Type")
	return name
}

// simpleString is the lower-case name printed by PrintSchema, e.g. "long".
func simpleString(dataType DataType) string {
	if dataType == nil {
		return "null"
	}
	return strings.ToLower(dataType.TypeName())
}

func convertArrowDataTypeToDataType(input arrow.DataType) DataType {
	switch input.ID() {
	case arrow.BOOL:
		return BooleanType{}
	case arrow.INT32:
		return IntegerType{}
	case arrow.INT64:
		return LongType{}
	case arrow.FLOAT64:
		return DoubleType{}
	case arrow.STRING:
		return StringType{}
	case arrow.NULL:
		return NullType{}
	default:
		return UnsupportedType{
			TypeInfo: input,
		}
	}
}

func convertDataTypeToArrowDataType(input DataType) (arrow.DataType, error) {
	switch v := input.(type) {
	case BooleanType, *BooleanType:
		return arrowutil.Types.Boolean, nil
	case IntegerType, *IntegerType:
		return arrowutil.Types.Integer, nil
	case LongType, *LongType:
		return arrowutil.Types.Long, nil
	case DoubleType, *DoubleType:
		return arrowutil.Types.Double, nil
	case StringType, *StringType:
		return arrowutil.Types.String, nil
	case NullType, *NullType:
		return arrowutil.Types.Null, nil
	case UnsupportedType:
		if dt, ok := v.TypeInfo.(arrow.DataType); ok {
			return dt, nil
		}
	}
	return nil, fmt.Errorf("unsupported data type %v", input)
}
