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
	"fmt"

	"github.com/spark-utils/spark-utils-go/pkg/spark/sql"
)

const DefaultFormat = "json"

// LoadData reads path with the given format (json when empty) and reader
// options, e.g. {"header": "true"} for csv. Errors from the reader are
// returned as is.
func LoadData(session sql.Session, path string, format string, options map[string]string) (sql.DataFrame, error) {
	if format == "" {
		format = DefaultFormat
	}
	fmt.Fprintf(session.Output(), "Loading %s data from: %s\n", format, path)
	return session.Read().Format(format).Options(options).Load(path)
}
