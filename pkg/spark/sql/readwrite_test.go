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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spark-utils/spark-utils-go/internal/sqlerrors"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/functions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.Nil(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func partFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.Nil(t, err)
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "part-") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestReadJSON(t *testing.T) {
	session, _ := newTestSession(t)
	path := writeFile(t, t.TempDir(), "events.json", ""+
		`{"status":"ok","latency":12}`+"\n"+
		`{"status":"ok","latency":3.5}`+"\n"+
		`{"status":"fail"}`+"\n")

	df, err := session.Read().Format("json").Load(path)
	require.Nil(t, err)

	schema, err := df.Schema()
	require.Nil(t, err)
	assert.Equal(t, []string{"latency", "status"}, schema.FieldNames())
	assert.Equal(t, DoubleType{}, schema.Fields[0].DataType)

	got := collectValues(t, df)
	want := [][]any{
		{12.0, "ok"},
		{3.5, "ok"},
		{nil, "fail"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestReadMissingPath(t *testing.T) {
	session, _ := newTestSession(t)
	_, err := session.Read().Format("json").Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, sqlerrors.HasClass(err, "PATH_NOT_FOUND"))
}

func TestReadUnknownFormat(t *testing.T) {
	session, _ := newTestSession(t)
	path := writeFile(t, t.TempDir(), "data.xml", "<a/>")
	_, err := session.Read().Format("xml").Load(path)
	assert.True(t, sqlerrors.HasClass(err, "DATA_SOURCE_NOT_FOUND"))
}

func TestReadCSVWithUserSchema(t *testing.T) {
	session, _ := newTestSession(t)
	path := writeFile(t, t.TempDir(), "sales.csv", "region,sales\neast,10\nwest,5\n")

	df, err := session.Read().Format("csv").
		Option("header", "true").
		Schema(NewStructType(
			StructField{Name: "region", DataType: StringType{}, Nullable: true},
			StructField{Name: "sales", DataType: IntegerType{}, Nullable: true},
		)).
		Load(path)
	require.Nil(t, err)

	got := collectValues(t, df)
	assert.Equal(t, [][]any{{"east", int32(10)}, {"west", int32(5)}}, got)
}

func TestWriteAndReadBack(t *testing.T) {
	for _, format := range []string{"json", "csv", "parquet", "arrow"} {
		t.Run(format, func(t *testing.T) {
			session, _ := newTestSession(t)
			df := newSalesDataFrame(t, session)
			out := filepath.Join(t.TempDir(), "out")

			require.Nil(t, df.Write().Format(format).Option("header", "true").Save(out))
			_, err := os.Stat(filepath.Join(out, "_SUCCESS"))
			require.Nil(t, err)
			require.Len(t, partFiles(t, out), 1)

			loaded, err := session.Read().Format(format).
				Options(map[string]string{"header": "true", "inferSchema": "true"}).
				Load(out)
			require.Nil(t, err)
			totals, err := loaded.GroupBy(functions.Col("region")).Agg(functions.Sum(functions.Col("sales")).Alias("total"))
			require.Nil(t, err)
			ordered, err := totals.OrderBy(functions.Col("region"))
			require.Nil(t, err)

			got := collectValues(t, ordered)
			want := [][]any{
				{"east", int64(30)},
				{"north", nil},
				{"west", int64(5)},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("unexpected rows (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWritePartFileNames(t *testing.T) {
	session, _ := newTestSession(t)
	df := newSalesDataFrame(t, session)
	dir := t.TempDir()

	require.Nil(t, df.Write().Format("parquet").Save(filepath.Join(dir, "pq")))
	names := partFiles(t, filepath.Join(dir, "pq"))
	require.Len(t, names, 1)
	assert.True(t, strings.HasSuffix(names[0], "-c000.snappy.parquet"), names[0])

	require.Nil(t, df.Write().Format("json").Option("compression", "gzip").Save(filepath.Join(dir, "gz")))
	names = partFiles(t, filepath.Join(dir, "gz"))
	require.Len(t, names, 1)
	assert.True(t, strings.HasSuffix(names[0], "-c000.json.gz"), names[0])

	loaded, err := session.Read().Format("json").Load(filepath.Join(dir, "gz"))
	require.Nil(t, err)
	count, err := loaded.Count()
	require.Nil(t, err)
	assert.Equal(t, int64(4), count)
}

func TestSaveWithDefaultFormat(t *testing.T) {
	session, _ := newTestSession(t)
	df := newSalesDataFrame(t, session)
	out := filepath.Join(t.TempDir(), "sales")

	require.Nil(t, df.Write().Save(out))

	_, err := os.Stat(filepath.Join(out, "_SUCCESS"))
	require.Nil(t, err)
	names := partFiles(t, out)
	require.Len(t, names, 1)
	assert.True(t, strings.HasSuffix(names[0], ".snappy.parquet"), names[0])

	loaded, err := session.Read().Load(out)
	require.Nil(t, err)
	count, err := loaded.Count()
	require.Nil(t, err)
	assert.Equal(t, int64(4), count)
}

func TestFailedSaveRemovesPartFile(t *testing.T) {
	session, _ := newTestSession(t)
	df, err := session.CreateDataFrame([][]any{{nil}}, NewStructType(
		StructField{Name: "nothing", DataType: NullType{}, Nullable: true},
	))
	require.Nil(t, err)
	out := filepath.Join(t.TempDir(), "nulls")

	err = df.Write().Format("csv").Save(out)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "null data type")
	assert.Empty(t, partFiles(t, out))
	_, err = os.Stat(filepath.Join(out, "_SUCCESS"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteModes(t *testing.T) {
	session, _ := newTestSession(t)
	df := newSalesDataFrame(t, session)
	out := filepath.Join(t.TempDir(), "out")

	require.Nil(t, df.Write().Format("json").Save(out))

	err := df.Write().Format("json").Save(out)
	assert.True(t, sqlerrors.HasClass(err, "PATH_ALREADY_EXISTS"))

	require.Nil(t, df.Write().Format("json").Mode("ignore").Save(out))
	assert.Len(t, partFiles(t, out), 1)

	require.Nil(t, df.Write().Format("json").Mode("append").Save(out))
	assert.Len(t, partFiles(t, out), 2)

	require.Nil(t, df.Write().Format("json").Mode("overwrite").Save(out))
	assert.Len(t, partFiles(t, out), 1)

	err = df.Write().Format("json").Mode("upsert").Save(out)
	assert.NotNil(t, err)
}
