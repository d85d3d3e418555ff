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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spark-utils/spark-utils-go/pkg/sparkutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `region,product,sales
east,apple,10
east,pear,20
west,apple,5
`

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--master", "local[2]"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeSales(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.Nil(t, os.WriteFile(path, []byte(salesCSV), 0o644))
	return path
}

func TestInfoCommand(t *testing.T) {
	path := writeSales(t)
	out, err := runCLI(t, "info", path, "-f", "csv", "-o", "header=true", "-o", "inferSchema=true")
	require.Nil(t, err)

	assert.Contains(t, out, "Loading csv data from: "+path)
	assert.Contains(t, out, " |-- sales: integer (nullable = true)")
	assert.Contains(t, out, "|east  |apple  |10   |")
}

func TestUniqueCommand(t *testing.T) {
	path := writeSales(t)
	out, err := runCLI(t, "unique", path, "region", "-f", "csv", "-o", "header=true")
	require.Nil(t, err)

	assert.Contains(t, out, "Getting unique values and counts for column 'region'...")
	assert.Contains(t, out, ""+
		"|east  |2    |\n"+
		"|west  |1    |\n")
}

func TestUniqueCommandUnknownColumn(t *testing.T) {
	path := writeSales(t)
	_, err := runCLI(t, "unique", path, "country", "-f", "csv", "-o", "header=true")
	assert.ErrorIs(t, err, sparkutil.ErrInvalidArgument)
}

func TestAggCommand(t *testing.T) {
	path := writeSales(t)
	out, err := runCLI(t, "agg", path, "-f", "csv", "-o", "header=true", "-o", "inferSchema=true",
		"--group-by", "region", "--agg", "sum:sales:total", "--agg", "count:*", "--order-by", "region")
	require.Nil(t, err)

	assert.Contains(t, out, "Grouping by [region] and applying aggregations...")
	assert.Contains(t, out, "Ordering by [region]...")
	assert.Contains(t, out, ""+
		"+------+-----+--------+\n"+
		"|region|total|count(1)|\n"+
		"+------+-----+--------+\n"+
		"|  east|   30|       2|\n"+
		"|  west|    5|       1|\n"+
		"+------+-----+--------+\n")
}

func TestAggCommandRequiresGroupBy(t *testing.T) {
	path := writeSales(t)
	_, err := runCLI(t, "agg", path, "-f", "csv", "-o", "header=true", "--agg", "count:*")
	assert.ErrorIs(t, err, sparkutil.ErrInvalidArgument)
}

func TestChartCommand(t *testing.T) {
	path := writeSales(t)
	out, err := runCLI(t, "chart", path, "product", "-f", "csv", "-o", "header=true", "--width", "6", "--height", "3")
	require.Nil(t, err)

	assert.Contains(t, out, "Counts of product")
	assert.Contains(t, out, "apple")
	assert.Contains(t, out, "pear")
	assert.True(t, strings.Contains(out, "█"))
}

func TestParseAggExpr(t *testing.T) {
	expr, err := parseAggExpr("sum:sales:total")
	require.Nil(t, err)
	assert.Equal(t, "total", expr.String())

	expr, err = parseAggExpr("count_distinct:product")
	require.Nil(t, err)
	assert.Equal(t, "count(DISTINCT product)", expr.String())

	expr, err = parseAggExpr("COUNT:*")
	require.Nil(t, err)
	assert.Equal(t, "count(1)", expr.String())

	for _, raw := range []string{"sum", "sum:", "median:sales", "sum:a:b:c"} {
		_, err := parseAggExpr(raw)
		assert.NotNil(t, err, raw)
	}
}
