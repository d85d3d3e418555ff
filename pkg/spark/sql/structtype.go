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
	"strings"

	"github.com/apache/arrow/go/v12/arrow"
)

type StructField struct {
	Name     string
	DataType DataType
	Nullable bool
}

type StructType struct {
	Fields []StructField
}

// NewStructType builds a schema of nullable fields from name/type pairs.
func NewStructType(fields ...StructField) *StructType {
	return &StructType{Fields: fields}
}

// FieldNames returns the column names in schema order.
func (s *StructType) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// TreeString renders the schema the way printSchema does.
func (s *StructType) TreeString() string {
	var sb strings.Builder
	sb.WriteString("root\n")
	for _, f := range s.Fields {
		fmt.Fprintf(&sb, " |-- %s: %s (nullable = %t)\n", f.Name, simpleString(f.DataType), f.Nullable)
	}
	return sb.String()
}

func convertArrowSchemaToStructType(input *arrow.Schema) *StructType {
	fields := make([]StructField, len(input.Fields()))
	for i, f := range input.Fields() {
		fields[i] = StructField{
			Name:     f.Name,
			DataType: convertArrowDataTypeToDataType(f.Type),
			Nullable: f.Nullable,
		}
	}
	return &StructType{Fields: fields}
}

func convertStructTypeToArrowSchema(input *StructType) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(input.Fields))
	for i, f := range input.Fields {
		dt, err := convertDataTypeToArrowDataType(f.DataType)
		if err != nil {
			return nil, fmt.Errorf("failed to convert field %s: %w", f.Name, err)
		}
		fields[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: f.Nullable}
	}
	return arrow.NewSchema(fields, nil), nil
}
