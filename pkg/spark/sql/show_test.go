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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShowStringTruncatesLongCells(t *testing.T) {
	got := showString(
		[]string{"id", "comment"},
		[][]any{
			{int32(1), "a comment that is far too long to fit"},
			{nil, "short"},
		},
		20, 20)
	assert.Equal(t, ""+
		"+----+--------------------+\n"+
		"|  id|             comment|\n"+
		"+----+--------------------+\n"+
		"|   1|a comment that is...|\n"+
		"|null|               short|\n"+
		"+----+--------------------+\n", got)
}

func TestShowStringWithoutTruncation(t *testing.T) {
	got := showString(
		[]string{"x"},
		[][]any{{1.0e10}, {0.5}, {true}},
		2, 0)
	assert.Equal(t, ""+
		"+------+\n"+
		"|x     |\n"+
		"+------+\n"+
		"|1.0E10|\n"+
		"|0.5   |\n"+
		"+------+\n"+
		"only showing top 2 rows\n", got)
}

func TestShowStringEmpty(t *testing.T) {
	got := showString([]string{"a", "bb"}, nil, 20, 20)
	assert.Equal(t, ""+
		"+---+---+\n"+
		"|  a| bb|\n"+
		"+---+---+\n"+
		"+---+---+\n", got)
}

func TestShowStringWideRunes(t *testing.T) {
	got := showString([]string{"city"}, [][]any{{"東京"}}, 20, 20)
	assert.Equal(t, ""+
		"+----+\n"+
		"|city|\n"+
		"+----+\n"+
		"|東京|\n"+
		"+----+\n", got)
}

func TestTruncateCell(t *testing.T) {
	assert.Equal(t, "abc", truncateCell("abcdef", 3))
	assert.Equal(t, "abcdef", truncateCell("abcdef", 0))
	assert.Equal(t, "a...", truncateCell("abcdef", 4))
	assert.Equal(t, "abcdef", truncateCell("abcdef", 6))
}
