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

package sqlerrors

import (
	"errors"
	"fmt"
)

// AnalysisError is raised when a plan cannot be resolved against its input:
// unknown columns, missing data sources, type mismatches and so on. The error
// class mirrors the names used by Spark so messages look familiar.
type AnalysisError struct {
	ErrorClass string
	Message    string
}

func (e *AnalysisError) Error() string {
	if e.ErrorClass == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s] %s", e.ErrorClass, e.Message)
}

// Newf builds an AnalysisError of the given class.
func Newf(errorClass string, format string, args ...any) *AnalysisError {
	return &AnalysisError{
		ErrorClass: errorClass,
		Message:    fmt.Sprintf(format, args...),
	}
}

// HasClass reports whether err, or any error it wraps, is an AnalysisError of the given class.
func HasClass(err error, errorClass string) bool {
	var analysisErr *AnalysisError
	if !errors.As(err, &analysisErr) {
		return false
	}
	return analysisErr.ErrorClass == errorClass
}
