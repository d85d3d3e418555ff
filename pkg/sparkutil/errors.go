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

// Package sparkutil holds small helpers for everyday DataFrame work: getting
// a session, loading files, printing a quick overview, counting distinct
// values, grouped aggregation and a terminal bar chart.
package sparkutil

import (
	"errors"
	"io"
	"os"

	"github.com/spark-utils/spark-utils-go/pkg/spark/sql"
)

// ErrInvalidArgument is returned, wrapped, when a helper rejects its
// arguments before touching the DataFrame.
var ErrInvalidArgument = errors.New("invalid argument")

// outputOf returns where status lines for df are printed.
func outputOf(df sql.DataFrame) io.Writer {
	if session := df.SparkSession(); session != nil && session.Output() != nil {
		return session.Output()
	}
	return os.Stdout
}
