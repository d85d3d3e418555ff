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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spark-utils/spark-utils-go/pkg/spark/sql"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/column"
	"github.com/spark-utils/spark-utils-go/pkg/spark/sql/functions"
	"github.com/spark-utils/spark-utils-go/pkg/sparkutil"
)

type loadOptions struct {
	format  string
	options map[string]string
}

func (l *loadOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&l.format, "format", "f", sparkutil.DefaultFormat, "input format: json, csv, parquet, arrow or text")
	cmd.Flags().StringToStringVarP(&l.options, "option", "o", nil, "reader option as key=value, repeatable")
}

// withDataFrame runs fn on the loaded file and stops the session afterwards.
func withDataFrame(cmd *cobra.Command, root *rootOptions, load *loadOptions, path string, fn func(df sql.DataFrame) error) error {
	session, err := root.session(cmd)
	if err != nil {
		return err
	}
	defer session.Stop()

	df, err := sparkutil.LoadData(session, path, load.format, load.options)
	if err != nil {
		return err
	}
	return fn(df)
}

func newInfoCmd(root *rootOptions) *cobra.Command {
	var (
		load     loadOptions
		rows     int
		truncate bool
	)
	cmd := &cobra.Command{
		Use:   "info PATH",
		Short: "Print the schema and a sample of a data file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDataFrame(cmd, root, &load, args[0], func(df sql.DataFrame) error {
				return sparkutil.DisplayDFInfo(df, rows, truncate)
			})
		},
	}
	load.register(cmd)
	cmd.Flags().IntVarP(&rows, "rows", "n", sparkutil.DefaultSampleRows, "number of sample rows")
	cmd.Flags().BoolVar(&truncate, "truncate", false, "cut long cell values to 20 characters")
	return cmd
}

func newUniqueCmd(root *rootOptions) *cobra.Command {
	var (
		load    loadOptions
		byValue bool
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "unique PATH COLUMN",
		Short: "Count the rows of each distinct value of a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDataFrame(cmd, root, &load, args[0], func(df sql.DataFrame) error {
				counts, err := sparkutil.GetUniqueValues(df, args[1], !byValue, limit)
				if err != nil {
					return err
				}
				return counts.Show(showRows(limit), false)
			})
		},
	}
	load.register(cmd)
	cmd.Flags().BoolVar(&byValue, "by-value", false, "order by value instead of by count")
	cmd.Flags().IntVar(&limit, "limit", 0, "keep only the first N values")
	return cmd
}

func newAggCmd(root *rootOptions) *cobra.Command {
	var (
		load    loadOptions
		groupBy []string
		aggs    []string
		orderBy []string
		rows    int
	)
	cmd := &cobra.Command{
		Use:   "agg PATH",
		Short: "Group a data file and compute aggregates",
		Example: `  spark-utils agg sales.csv -f csv -o header=true -o inferSchema=true \
    --group-by region --agg sum:sales:total --agg count:* --order-by region`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exprs := make([]column.Column, 0, len(aggs))
			for _, raw := range aggs {
				expr, err := parseAggExpr(raw)
				if err != nil {
					return err
				}
				exprs = append(exprs, expr)
			}
			return withDataFrame(cmd, root, &load, args[0], func(df sql.DataFrame) error {
				result, err := sparkutil.GroupAndAggregate(df, groupBy, exprs, orderBy...)
				if err != nil {
					return err
				}
				return result.Show(rows, true)
			})
		},
	}
	load.register(cmd)
	cmd.Flags().StringSliceVar(&groupBy, "group-by", nil, "columns to group by")
	cmd.Flags().StringArrayVar(&aggs, "agg", nil, "aggregate as function:column[:alias], repeatable; functions are count, count_distinct, sum, avg, mean, min, max")
	cmd.Flags().StringSliceVar(&orderBy, "order-by", nil, "columns to sort the result by")
	cmd.Flags().IntVarP(&rows, "rows", "n", 20, "number of rows to print")
	return cmd
}

func newChartCmd(root *rootOptions) *cobra.Command {
	var (
		load          loadOptions
		byValue       bool
		limit         int
		title         string
		color         string
		rotation      float64
		width, height float64
	)
	cmd := &cobra.Command{
		Use:   "chart PATH COLUMN",
		Short: "Draw a bar chart of the value counts of a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			columnName := args[1]
			return withDataFrame(cmd, root, &load, args[0], func(df sql.DataFrame) error {
				counts, err := sparkutil.GetUniqueValues(df, columnName, !byValue, limit)
				if err != nil {
					return err
				}
				rows, err := counts.Collect()
				if err != nil {
					return err
				}
				labels := make([]string, len(rows))
				values := make([]int64, len(rows))
				for i, row := range rows {
					v, err := row.Values()
					if err != nil {
						return err
					}
					labels[i] = "null"
					if v[0] != nil {
						labels[i] = fmt.Sprint(v[0])
					}
					values[i], _ = v[1].(int64)
				}
				if title == "" {
					title = fmt.Sprintf("Counts of %s", columnName)
				}
				return sparkutil.PlotBarChart(values, labels, title, columnName, "count",
					sparkutil.WithColor(color),
					sparkutil.WithRotation(rotation),
					sparkutil.WithFigSize(width, height),
					sparkutil.WithChartOutput(cmd.OutOrStdout()))
			})
		},
	}
	load.register(cmd)
	cmd.Flags().BoolVar(&byValue, "by-value", false, "order bars by value instead of by count")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of bars, 0 for all values")
	cmd.Flags().StringVar(&title, "title", "", "chart title")
	cmd.Flags().StringVar(&color, "color", sparkutil.DefaultColor, "bar color name or #rrggbb")
	cmd.Flags().Float64Var(&rotation, "rotation", 0, "x tick label rotation in degrees")
	cmd.Flags().Float64Var(&width, "width", sparkutil.DefaultFigWidth, "chart width in inches")
	cmd.Flags().Float64Var(&height, "height", sparkutil.DefaultFigHeight, "chart height in inches")
	return cmd
}

func showRows(limit int) int {
	if limit > 0 {
		return limit
	}
	return 20
}

var aggFunctions = map[string]func(column.Column) column.Column{
	"count":          functions.Count,
	"count_distinct": functions.CountDistinct,
	"sum":            functions.Sum,
	"avg":            functions.Avg,
	"mean":           functions.Mean,
	"min":            functions.Min,
	"max":            functions.Max,
}

// parseAggExpr turns "sum:sales:total" into sum(sales) AS total.
func parseAggExpr(raw string) (column.Column, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[1] == "" {
		return column.Column{}, fmt.Errorf("invalid aggregate %q, expected function:column[:alias]", raw)
	}
	fn, ok := aggFunctions[strings.ToLower(parts[0])]
	if !ok {
		return column.Column{}, fmt.Errorf("unknown aggregate function %q in %q", parts[0], raw)
	}
	expr := fn(functions.Col(parts[1]))
	if len(parts) == 3 && parts[2] != "" {
		expr = expr.Alias(parts[2])
	}
	return expr, nil
}
