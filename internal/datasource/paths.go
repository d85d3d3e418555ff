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

package datasource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spark-utils/spark-utils-go/internal/sqlerrors"
)

// ResolvePaths expands files, directories and glob patterns into a sorted
// list of data files. Directory entries starting with "_" or "." are
// metadata (such as _SUCCESS markers) and are skipped.
func ResolvePaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, sqlerrors.Newf("PATH_NOT_FOUND", "No path was given to load.")
	}
	var files []string
	for _, p := range paths {
		matches := []string{p}
		if strings.ContainsAny(p, "*?[") {
			globbed, err := filepath.Glob(p)
			if err != nil {
				return nil, fmt.Errorf("failed to expand glob %s: %w", p, err)
			}
			if len(globbed) == 0 {
				return nil, pathNotFound(p)
			}
			matches = globbed
		}
		for _, m := range matches {
			found, err := listPath(m)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
		}
	}
	sort.Strings(files)
	return files, nil
}

func listPath(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pathNotFound(p)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", p, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || isHidden(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(p, e.Name()))
	}
	return files, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}

func pathNotFound(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return sqlerrors.Newf("PATH_NOT_FOUND", "Path does not exist: file:%s.", abs)
}
