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
	"runtime"
	"testing"

	"github.com/spark-utils/spark-utils-go/internal/sqlerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseMaster(t *testing.T) {
	tests := []struct {
		master string
		want   int
	}{
		{master: "local", want: 1},
		{master: "local[4]", want: 4},
		{master: "local[*]", want: runtime.NumCPU()},
		{master: "local[2,3]", want: 2},
		{master: "local[*, 4]", want: runtime.NumCPU()},
	}
	for _, tt := range tests {
		t.Run(tt.master, func(t *testing.T) {
			got, err := parseMaster(tt.master)
			require.Nil(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMasterRejectsUnknownURL(t *testing.T) {
	_, err := parseMaster("yarn")
	assert.EqualError(t, err, "Could not parse Master URL: 'yarn'")

	_, err = parseMaster("local[0]")
	assert.NotNil(t, err)
}

func TestBuildRequiresMaster(t *testing.T) {
	_, err := SparkSession.Builder.AppName("test").Build()
	assert.NotNil(t, err)
}

func TestBuildGeneratesAppName(t *testing.T) {
	session, err := SparkSession.Builder.Master("local").Build()
	require.Nil(t, err)
	defer session.Stop()

	name, err := session.Conf().Get("spark.app.name")
	require.Nil(t, err)
	assert.NotEmpty(t, name)
}

func TestGetOrCreateReturnsActiveSession(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	first, err := SparkSession.Builder.Master("local[2]").AppName("first").Logger(zap.New(core)).GetOrCreate()
	require.Nil(t, err)
	defer first.Stop()

	second, err := SparkSession.Builder.Master("local[4]").AppName("second").
		Config("spark.sql.caseSensitive", "true").GetOrCreate()
	require.Nil(t, err)
	assert.Equal(t, first.SessionID(), second.SessionID())

	assert.Equal(t, "first", first.Conf().GetWithDefault("spark.app.name", ""))
	assert.Equal(t, "true", first.Conf().GetWithDefault("spark.sql.caseSensitive", ""))
	assert.Equal(t, 1, logs.Len())

	active, ok := ActiveSession()
	require.True(t, ok)
	assert.Equal(t, first.SessionID(), active.SessionID())

	require.Nil(t, first.Stop())
	_, ok = ActiveSession()
	assert.False(t, ok)

	third, err := SparkSession.Builder.Master("local").GetOrCreate()
	require.Nil(t, err)
	defer third.Stop()
	assert.NotEqual(t, first.SessionID(), third.SessionID())
}

func TestGetOrCreateInvalidMaster(t *testing.T) {
	_, err := SparkSession.Builder.Master("spark://nowhere:7077").GetOrCreate()
	assert.EqualError(t, err, "Could not parse Master URL: 'spark://nowhere:7077'")
	_, ok := ActiveSession()
	assert.False(t, ok)
}

func TestBuilderIsImmutable(t *testing.T) {
	base := SparkSession.Builder.Master("local").Config("a", "1")
	_ = base.Config("a", "2")

	session, err := base.Build()
	require.Nil(t, err)
	defer session.Stop()
	assert.Equal(t, "1", session.Conf().GetWithDefault("a", ""))
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spark.yaml")
	require.Nil(t, os.WriteFile(path, []byte(""+
		"spark:\n"+
		"  master: \"local[3]\"\n"+
		"  app:\n"+
		"    name: from-file\n"+
		"  sql:\n"+
		"    caseSensitive: true\n"), 0o644))

	session, err := SparkSession.Builder.ConfigFile(path).AppName("override").Build()
	require.Nil(t, err)
	defer session.Stop()

	all := session.Conf().GetAll()
	assert.Equal(t, "local[3]", all["spark.master"])
	assert.Equal(t, "override", all["spark.app.name"])
	assert.Equal(t, "true", all["spark.sql.caseSensitive"])
}

func TestConfigFileMissing(t *testing.T) {
	_, err := SparkSession.Builder.ConfigFile(filepath.Join(t.TempDir(), "missing.yaml")).Build()
	assert.NotNil(t, err)
}

func TestRuntimeConfig(t *testing.T) {
	session, _ := newTestSession(t)
	conf := session.Conf()

	_, err := conf.Get("spark.sql.missing")
	assert.True(t, sqlerrors.HasClass(err, "SQL_CONF_NOT_FOUND"))
	assert.Equal(t, "fallback", conf.GetWithDefault("spark.sql.missing", "fallback"))

	require.Nil(t, conf.Set("spark.sql.repl.eagerEval.truncate", "5"))
	v, err := conf.Get("spark.sql.repl.eagerEval.truncate")
	require.Nil(t, err)
	assert.Equal(t, "5", v)

	assert.False(t, conf.IsModifiable("spark.master"))
	err = conf.Set("spark.master", "local[8]")
	assert.True(t, sqlerrors.HasClass(err, "CANNOT_MODIFY_CONFIG"))
}

func TestShowTruncateSetting(t *testing.T) {
	session, buf := newTestSession(t)
	require.Nil(t, session.Conf().Set("spark.sql.repl.eagerEval.truncate", "5"))
	df, err := session.CreateDataFrame([][]any{{"abcdefgh"}}, NewStructType(
		StructField{Name: "value", DataType: StringType{}, Nullable: true},
	))
	require.Nil(t, err)

	require.Nil(t, df.Show(5, true))
	assert.Equal(t, ""+
		"+-----+\n"+
		"|value|\n"+
		"+-----+\n"+
		"|ab...|\n"+
		"+-----+\n", buf.String())
}
