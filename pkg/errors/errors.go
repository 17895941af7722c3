// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeRequiredComponent indicates a required detector (CPU, memory)
	// failed entirely. Errors with this code abort the whole topology build.
	ErrCodeRequiredComponent ErrorCode = "REQUIRED_COMPONENT"
	// ErrCodeToolUnavailable indicates an external tool backing a detector
	// is not installed or not on PATH. Always recoverable.
	ErrCodeToolUnavailable ErrorCode = "TOOL_UNAVAILABLE"
	// ErrCodeTimeout indicates an operation exceeded its time limit.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeParse indicates external tool or pseudo-file output could not
	// be parsed.
	ErrCodeParse ErrorCode = "PARSE"
	// ErrCodeNotFound indicates a requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an internal system error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError provides structured error information for better
// observability. It includes an error code for programmatic handling, a
// human-readable message, the underlying cause, and optional context.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// RequiredComponent creates the fatal error surfaced when a mandatory
// detector fails. The component name is carried in the error context so
// callers can report which required subsystem was missing.
func RequiredComponent(component string, cause error) *StructuredError {
	return &StructuredError{
		Code:    ErrCodeRequiredComponent,
		Message: fmt.Sprintf("required component %q could not be detected", component),
		Cause:   cause,
		Context: map[string]any{"component": component},
	}
}

// IsRequiredComponent reports whether err (or any error it wraps) is a
// required-component failure.
func IsRequiredComponent(err error) bool {
	return HasCode(err, ErrCodeRequiredComponent)
}

// HasCode reports whether any StructuredError in err's chain carries the
// given code. errors.As stops at the outermost StructuredError, so the walk
// continues through each cause until a match is found.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var se *StructuredError
		if !stderrors.As(err, &se) {
			return false
		}
		if se.Code == code {
			return true
		}
		err = se.Unwrap()
	}
	return false
}
