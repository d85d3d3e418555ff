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

const DefaultSampleRows = 5

// DisplayDFInfo prints the schema of df followed by its first sampleRows rows.
func DisplayDFInfo(df sql.DataFrame, sampleRows int, truncate bool) error {
	out := outputOf(df)
	fmt.Fprintln(out, "\n--- DataFrame Schema ---")
	if err := df.PrintSchema(); err != nil {
		return err
	}
	fmt.Fprintln(out, "\n--- Sample Data ---")
	if err := df.Show(sampleRows, truncate); err != nil {
		return err
	}
	fmt.Fprintln(out, "------------------------")
	return nil
}
