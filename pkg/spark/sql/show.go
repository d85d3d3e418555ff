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

	"github.com/mattn/go-runewidth"

	"github.com/spark-utils/spark-utils-go/internal/arrowutil"
)

const minimumColWidth = 3

// showString renders names and up to numRows of rows as an ASCII table.
// rows may hold one row beyond numRows, which only triggers the footer.
// Cells longer than truncate are cut, and truncate > 0 right-aligns cells.
func showString(names []string, rows [][]any, numRows int, truncate int) string {
	hasMoreData := len(rows) > numRows
	if hasMoreData {
		rows = rows[:numRows]
	}

	cells := make([][]string, 0, len(rows)+1)
	header := make([]string, len(names))
	for i, name := range names {
		header[i] = truncateCell(name, truncate)
	}
	cells = append(cells, header)
	for _, row := range rows {
		line := make([]string, len(row))
		for i, v := range row {
			line[i] = truncateCell(arrowutil.FormatValue(v), truncate)
		}
		cells = append(cells, line)
	}

	colWidths := make([]int, len(names))
	for i := range colWidths {
		colWidths[i] = minimumColWidth
	}
	for _, line := range cells {
		for i, cell := range line {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}

	var sb strings.Builder
	sep := separatorLine(colWidths)
	sb.WriteString(sep)
	writeLine(&sb, cells[0], colWidths, truncate > 0)
	sb.WriteString(sep)
	for _, line := range cells[1:] {
		writeLine(&sb, line, colWidths, truncate > 0)
	}
	sb.WriteString(sep)

	if hasMoreData {
		rowsString := "rows"
		if numRows == 1 {
			rowsString = "row"
		}
		fmt.Fprintf(&sb, "only showing top %d %s\n", numRows, rowsString)
	}
	return sb.String()
}

func truncateCell(s string, truncate int) string {
	runes := []rune(s)
	if truncate <= 0 || len(runes) <= truncate {
		return s
	}
	// Too short for an ellipsis.
	if truncate < 4 {
		return string(runes[:truncate])
	}
	return string(runes[:truncate-3]) + "..."
}

func separatorLine(colWidths []int) string {
	var sb strings.Builder
	sb.WriteString("+")
	for _, w := range colWidths {
		sb.WriteString(strings.Repeat("-", w))
		sb.WriteString("+")
	}
	sb.WriteString("\n")
	return sb.String()
}

func writeLine(sb *strings.Builder, line []string, colWidths []int, alignRight bool) {
	sb.WriteString("|")
	for i, cell := range line {
		pad := strings.Repeat(" ", colWidths[i]-runewidth.StringWidth(cell))
		if alignRight {
			sb.WriteString(pad)
			sb.WriteString(cell)
		} else {
			sb.WriteString(cell)
			sb.WriteString(pad)
		}
		sb.WriteString("|")
	}
	sb.WriteString("\n")
}
