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

package sparkutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
	"github.com/spark-utils/spark-utils-go/internal/sqlerrors"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/column"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/functions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeDataFrame records the calls made on it. Methods it does not override
// panic through the nil embedded interface.
type fakeDataFrame struct {
	sql.DataFrame
	columns []string
	calls   []string
}

func (f *fakeDataFrame) Columns() ([]string, error) {
	f.calls = append(f.calls, "Columns")
	return f.columns, nil
}

func (f *fakeDataFrame) SparkSession() sql.Session {
	return nil
}

func (f *fakeDataFrame) GroupBy(cols ...column.Column) sql.GroupedData {
	f.calls = append(f.calls, "GroupBy")
	return nil
}

func newTestSession(t *testing.T) (sql.Session, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	session, err := GetSparkSession("test", "local[2]", WithOutput(&buf))
	require.Nil(t, err)
	t.Cleanup(func() { session.Stop() })
	buf.Reset()
	return session, &buf
}

func collectValues(t *testing.T, df sql.DataFrame) [][]any {
	t.Helper()
	rows, err := df.Collect()
	require.Nil(t, err)
	result := make([][]any, len(rows))
	for i, row := range rows {
		values, err := row.Values()
		require.Nil(t, err)
		result[i] = values
	}
	return result
}

func statusDataFrame(t *testing.T, session sql.Session) sql.DataFrame {
	t.Helper()
	df, err := session.CreateDataFrame([][]any{{"ok"}, {"ok"}, {"fail"}}, sql.NewStructType(
		sql.StructField{Name: "status", DataType: sql.StringType{}, Nullable: true},
	))
	require.Nil(t, err)
	return df
}

func salesDataFrame(t *testing.T, session sql.Session) sql.DataFrame {
	t.Helper()
	df, err := session.CreateDataFrame([][]any{
		{"east", int64(10)},
		{"east", int64(20)},
		{"west", int64(5)},
	}, sql.NewStructType(
		sql.StructField{Name: "region", DataType: sql.StringType{}, Nullable: true},
		sql.StructField{Name: "sales", DataType: sql.LongType{}, Nullable: true},
	))
	require.Nil(t, err)
	return df
}

func TestGetSparkSession(t *testing.T) {
	var buf bytes.Buffer
	session, err := GetSparkSession("", "", WithOutput(&buf), WithConfig("spark.sql.caseSensitive", "true"))
	require.Nil(t, err)
	defer session.Stop()

	assert.Equal(t, "Initialising SparkSession for 'SparkApplication' with master 'local[*]'...\n", buf.String())
	assert.Equal(t, "SparkApplication", session.Conf().GetWithDefault("spark.app.name", ""))
	assert.Equal(t, "true", session.Conf().GetWithDefault("spark.sql.caseSensitive", ""))

	again, err := GetSparkSession("other", "local[1]", WithOutput(&buf))
	require.Nil(t, err)
	assert.Equal(t, session.SessionID(), again.SessionID())
}

func TestGetSparkSessionInvalidMaster(t *testing.T) {
	var buf bytes.Buffer
	_, err := GetSparkSession("app", "mesos://host:5050", WithOutput(&buf))
	assert.EqualError(t, err, "Could not parse Master URL: 'mesos://host:5050'")
	assert.NotErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, "Initialising SparkSession for 'app' with master 'mesos://host:5050'...\n", buf.String())
}

func TestLoadData(t *testing.T) {
	session, buf := newTestSession(t)
	path := filepath.Join(t.TempDir(), "status.json")
	require.Nil(t, os.WriteFile(path, []byte(`{"status":"ok"}`+"\n"+`{"status":"fail"}`+"\n"), 0o644))

	df, err := LoadData(session, path, "", nil)
	require.Nil(t, err)
	assert.Equal(t, "Loading json data from: "+path+"\n", buf.String())

	count, err := df.Count()
	require.Nil(t, err)
	assert.Equal(t, int64(2), count)
}

func TestLoadDataCSVOptions(t *testing.T) {
	session, _ := newTestSession(t)
	path := filepath.Join(t.TempDir(), "sales.csv")
	require.Nil(t, os.WriteFile(path, []byte("region;sales\neast;10\nwest;5\n"), 0o644))

	df, err := LoadData(session, path, "csv", map[string]string{"header": "true", "inferSchema": "true", "sep": ";"})
	require.Nil(t, err)
	schema, err := df.Schema()
	require.Nil(t, err)
	assert.Equal(t, []string{"region", "sales"}, schema.FieldNames())
	assert.Equal(t, sql.IntegerType{}, schema.Fields[1].DataType)
}

func TestLoadDataPropagatesEngineErrors(t *testing.T) {
	session, _ := newTestSession(t)
	_, err := LoadData(session, filepath.Join(t.TempDir(), "missing.json"), "json", nil)
	assert.True(t, sqlerrors.HasClass(err, "PATH_NOT_FOUND"))
}

func TestDisplayDFInfo(t *testing.T) {
	session, buf := newTestSession(t)
	df := statusDataFrame(t, session)

	require.Nil(t, DisplayDFInfo(df, DefaultSampleRows, false))
	assert.Equal(t, ""+
		"\n--- DataFrame Schema ---\n"+
		"root\n"+
		" |-- status: string (nullable = true)\n"+
		"\n--- Sample Data ---\n"+
		"+------+\n"+
		"|status|\n"+
		"+------+\n"+
		"|ok    |\n"+
		"|ok    |\n"+
		"|fail  |\n"+
		"+------+\n"+
		"------------------------\n", buf.String())
}

func TestGetUniqueValues(t *testing.T) {
	session, buf := newTestSession(t)
	df := statusDataFrame(t, session)

	byCount, err := GetUniqueValues(df, "status", true, 0)
	require.Nil(t, err)
	assert.Equal(t, "Getting unique values and counts for column 'status'...\n", buf.String())
	columns, err := byCount.Columns()
	require.Nil(t, err)
	assert.Equal(t, []string{"status", "count"}, columns)
	assert.Equal(t, [][]any{{"ok", int64(2)}, {"fail", int64(1)}}, collectValues(t, byCount))

	byValue, err := GetUniqueValues(df, "status", false, 0)
	require.Nil(t, err)
	assert.Equal(t, [][]any{{"fail", int64(1)}, {"ok", int64(2)}}, collectValues(t, byValue))

	limited, err := GetUniqueValues(df, "status", true, 1)
	require.Nil(t, err)
	assert.Equal(t, [][]any{{"ok", int64(2)}}, collectValues(t, limited))
}

func TestGetUniqueValuesOrderingAcrossFiles(t *testing.T) {
	session, _ := newTestSession(t)
	dir := t.TempDir()
	require.Nil(t, os.WriteFile(filepath.Join(dir, "part-0.json"),
		[]byte(`{"key":"a"}`+"\n"+`{"key":"c"}`+"\n"+`{"key":"b"}`+"\n"+`{"key":null}`+"\n"), 0o644))
	require.Nil(t, os.WriteFile(filepath.Join(dir, "part-1.json"),
		[]byte(`{"key":"a"}`+"\n"+`{"key":"c"}`+"\n"+`{"key":"a"}`+"\n"+`{"key":"d"}`+"\n"+`{"key":"a"}`+"\n"), 0o644))
	df, err := LoadData(session, dir, "json", nil)
	require.Nil(t, err)

	byCount, err := GetUniqueValues(df, "key", true, 0)
	require.Nil(t, err)
	rows := collectValues(t, byCount)
	require.Len(t, rows, 5)
	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1][1].(int64), rows[i][1].(int64), "counts must not increase: %v", rows)
	}
	assert.Equal(t, [][]any{{"a", int64(4)}, {"c", int64(2)}, {"b", int64(1)}, {nil, int64(1)}, {"d", int64(1)}}, rows)

	byValue, err := GetUniqueValues(df, "key", false, 0)
	require.Nil(t, err)
	rows = collectValues(t, byValue)
	require.Len(t, rows, 5)
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, arrowutil.Compare(rows[i-1][0], rows[i][0]), 0, "values must not decrease: %v", rows)
	}
	assert.Nil(t, rows[0][0])
	assert.Equal(t, [][]any{{nil, int64(1)}, {"a", int64(4)}, {"b", int64(1)}, {"c", int64(2)}, {"d", int64(1)}}, rows)
}

func TestGetUniqueValuesUnknownColumn(t *testing.T) {
	df := &fakeDataFrame{columns: []string{"status"}}

	_, err := GetUniqueValues(df, "state", true, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, []string{"Columns"}, df.calls)

	// Membership is exact even though the engine resolves names ignoring case.
	_, err = GetUniqueValues(df, "STATUS", true, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGroupAndAggregate(t *testing.T) {
	session, buf := newTestSession(t)
	df := salesDataFrame(t, session)

	result, err := GroupAndAggregate(df,
		[]string{"region"},
		[]column.Column{functions.Sum(functions.Col("sales")).Alias("total")},
		"region")
	require.Nil(t, err)
	assert.Equal(t, ""+
		"Grouping by [region] and applying aggregations...\n"+
		"Ordering by [region]...\n", buf.String())

	columns, err := result.Columns()
	require.Nil(t, err)
	assert.Equal(t, []string{"region", "total"}, columns)
	got := collectValues(t, result)
	want := [][]any{{"east", int64(30)}, {"west", int64(5)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestGroupAndAggregateSchema(t *testing.T) {
	session, _ := newTestSession(t)
	df := salesDataFrame(t, session)

	result, err := GroupAndAggregate(df,
		[]string{"region", "sales"},
		[]column.Column{
			functions.Count(functions.Col("*")),
			functions.Max(functions.Col("sales")),
			functions.Avg(functions.Col("sales")).Alias("avg_sales"),
		})
	require.Nil(t, err)
	columns, err := result.Columns()
	require.Nil(t, err)
	assert.Equal(t, []string{"region", "sales", "count(1)", "max(sales)", "avg_sales"}, columns)
}

func TestGroupAndAggregateRejectsEmptyArguments(t *testing.T) {
	df := &fakeDataFrame{}
	exprs := []column.Column{functions.Sum(functions.Col("sales"))}

	_, err := GroupAndAggregate(df, nil, exprs)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = GroupAndAggregate(df, []string{}, exprs)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = GroupAndAggregate(df, []string{"region"}, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, df.calls)
}

func TestGroupAndAggregatePropagatesEngineErrors(t *testing.T) {
	session, _ := newTestSession(t)
	df := salesDataFrame(t, session)

	_, err := GroupAndAggregate(df, []string{"region"}, []column.Column{functions.Sum(functions.Col("revenue"))})
	assert.True(t, sqlerrors.HasClass(err, "UNRESOLVED_COLUMN.WITH_SUGGESTION"))
	assert.NotErrorIs(t, err, ErrInvalidArgument)
}

func TestUniqueValuesAfterRoundTrip(t *testing.T) {
	session, _ := newTestSession(t)
	df, err := session.CreateDataFrame([][]any{{"a"}, {"b"}, {"a"}}, sql.NewStructType(
		sql.StructField{Name: "letter", DataType: sql.StringType{}, Nullable: true},
	))
	require.Nil(t, err)

	out := filepath.Join(t.TempDir(), "letters")
	require.Nil(t, df.Write().Format("json").Save(out))

	loaded, err := LoadData(session, out, "json", nil)
	require.Nil(t, err)
	unique, err := GetUniqueValues(loaded, "letter", true, 0)
	require.Nil(t, err)
	assert.Equal(t, [][]any{{"a", int64(2)}, {"b", int64(1)}}, collectValues(t, unique))
}
