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

package main

import (
	"flag"
	"log"

	"github.com/spark-utils/spark-utils-go/pkg/spark/sql"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/functions"
)

var (
	master = flag.String("master", "local[*]",
		"the master URL of the local session: local, local[N] or local[*]")
)

func main() {
	flag.Parse()

	spark, err := sql.SparkSession.Builder.Master(*master).AppName("spark-session-example").Build()
	if err != nil {
		log.Fatalf("Failed: %s", err.Error())
	}
	defer spark.Stop()

	df, err := spark.CreateDataFrame([][]any{
		{"apple", int64(123)},
		{"orange", int64(456)},
		{"apple", int64(7)},
	}, sql.NewStructType(
		sql.StructField{Name: "word", DataType: sql.StringType{}, Nullable: true},
		sql.StructField{Name: "count", DataType: sql.LongType{}, Nullable: true},
	))
	if err != nil {
		log.Fatalf("Failed: %s", err.Error())
	}

	err = df.Show(100, false)
	if err != nil {
		log.Fatalf("Failed: %s", err.Error())
	}

	schema, err := df.Schema()
	if err != nil {
		log.Fatalf("Failed: %s", err.Error())
	}

	for _, f := range schema.Fields {
		log.Printf("Field in dataframe schema: %s - %s", f.Name, f.DataType.TypeName())
	}

	totals, err := df.GroupBy(functions.Col("word")).Agg(functions.Sum(functions.Col("count")).Alias("total"))
	if err != nil {
		log.Fatalf("Failed: %s", err.Error())
	}

	rows, err := totals.Collect()
	if err != nil {
		log.Fatalf("Failed: %s", err.Error())
	}

	schema, err = rows[0].Schema()
	if err != nil {
		log.Fatalf("Failed: %s", err.Error())
	}

	for _, f := range schema.Fields {
		log.Printf("Field in row: %s - %s", f.Name, f.DataType.TypeName())
	}

	for _, row := range rows {
		log.Printf("Row: %v", row)
	}
}
