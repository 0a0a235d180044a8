// Copyright 2025 The Rivaas Authors
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

// Package errorkit implements the error taxonomy and rescuer (C5): a
// small set of HTTP-status-carrying error kinds, each able to render a
// content-negotiated body with development/production-appropriate detail.
package errorkit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Kind names one of the nine taxonomy members from spec §4.5/§7.
type Kind struct {
	Name   string
	Status int
}

var (
	KindBadRequest          = Kind{"BadRequest", http.StatusBadRequest}
	KindUnauthorized        = Kind{"Unauthorized", http.StatusUnauthorized}
	KindForbidden           = Kind{"Forbidden", http.StatusForbidden}
	KindNotFound            = Kind{"NotFound", http.StatusNotFound}
	KindConflict            = Kind{"Conflict", http.StatusConflict}
	KindValidationError     = Kind{"ValidationError", http.StatusUnprocessableEntity}
	KindTooManyRequests     = Kind{"TooManyRequests", http.StatusTooManyRequests}
	KindInternalServerError = Kind{"InternalServerError", http.StatusInternalServerError}
	KindServiceUnavailable  = Kind{"ServiceUnavailable", http.StatusServiceUnavailable}
)

// Typed is implemented by any error that carries an HTTP status, the
// interface the rescuer dispatches on (grounded on
// rivaas-dev-rivaas/errors's ErrorType interface).
type Typed interface {
	error
	HTTPStatus() int
}

// FieldErrored is implemented by errors carrying a field -> messages map
// (spec §4.4 ValidationError).
type FieldErrored interface {
	Fields() map[string][]string
}

// Error is the concrete error object from spec §3: status, title, detail,
// source, field errors, an optional backtrace, a unique errorId, and a
// stable fingerprint for external-monitoring grouping.
type Error struct {
	Kind        Kind
	Title       string
	Detail      string
	Source      string
	FieldErrs   map[string][]string
	Backtrace   []string
	ErrorID     string
	Fingerprint string
	Timestamp   time.Time

	wrapped error
}

func newError(kind Kind, title, detail string) *Error {
	e := &Error{
		Kind:      kind,
		Title:     title,
		Detail:    detail,
		ErrorID:   uuid.New().String(),
		Timestamp: time.Now(),
	}
	e.Fingerprint = fingerprint(kind.Name, topFrame(3), detail)
	return e
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Kind.Name, e.Detail)
	}
	return e.Kind.Name
}

func (e *Error) HTTPStatus() int { return e.Kind.Status }

func (e *Error) Fields() map[string][]string { return e.FieldErrs }

func (e *Error) Unwrap() error { return e.wrapped }

// WithSource annotates the error with a source identifier (e.g. the field
// name that failed conversion, or a subsystem name).
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// NewBadRequest builds a 400 carrying the offending field name as Source,
// per spec §4.4 "fail with a BadRequest error carrying the field name".
func NewBadRequest(detail, field string) *Error {
	e := newError(KindBadRequest, "Bad Request", detail)
	e.Source = field
	return e
}

// NewValidationError builds a 422 carrying the full field->messages map,
// per spec §7.
func NewValidationError(fields map[string][]string) *Error {
	e := newError(KindValidationError, "Validation Failed", "one or more fields are invalid")
	e.FieldErrs = fields
	return e
}

// NewNotFound builds a 404.
func NewNotFound(detail string) *Error {
	return newError(KindNotFound, "Not Found", detail)
}

// NewUnauthorized builds a 401.
func NewUnauthorized(detail string) *Error {
	return newError(KindUnauthorized, "Unauthorized", detail)
}

// NewForbidden builds a 403.
func NewForbidden(detail string) *Error {
	return newError(KindForbidden, "Forbidden", detail)
}

// NewConflict builds a 409.
func NewConflict(detail string) *Error {
	return newError(KindConflict, "Conflict", detail)
}

// NewTooManyRequests builds a 429.
func NewTooManyRequests(detail string) *Error {
	return newError(KindTooManyRequests, "Too Many Requests", detail)
}

// NewServiceUnavailable builds a 503.
func NewServiceUnavailable(detail string) *Error {
	return newError(KindServiceUnavailable, "Service Unavailable", detail)
}

// NewInternalServerError wraps an arbitrary error/panic value as a 500,
// capturing a backtrace (spec §4.5 "InternalServerError.fromException").
func NewInternalServerError(cause error) *Error {
	e := newError(KindInternalServerError, "Internal Server Error", safeDetail(cause))
	e.wrapped = cause
	e.Backtrace = captureBacktrace()
	return e
}

func safeDetail(cause error) string {
	if cause == nil {
		return "an unexpected error occurred"
	}
	return cause.Error()
}

func captureBacktrace() []string {
	return splitLines(string(debug.Stack()))
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func topFrame(skip int) string {
	pcs := make([]uintptr, 1)
	// runtime.Callers needs the real package, pulled in lazily to keep
	// this file's import list focused; see backtrace.go.
	return callersTopFrame(skip, pcs)
}

func fingerprint(errClass, frame, detailTemplate string) string {
	h := sha256.Sum256([]byte(errClass + "|" + frame + "|" + detailTemplate))
	return hex.EncodeToString(h[:])[:16]
}

// FromError normalizes any error into *Error: if it already is one, or
// implements Typed, it is used as-is (or wrapped to preserve status); any
// other error becomes an InternalServerError.
func FromError(err error) *Error {
	if err == nil {
		return NewInternalServerError(errors.New("nil error"))
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var typed Typed
	if errors.As(err, &typed) {
		wrapped := newError(Kind{Name: "Typed", Status: typed.HTTPStatus()}, typed.Error(), typed.Error())
		wrapped.wrapped = err
		if fe, ok := err.(FieldErrored); ok {
			wrapped.FieldErrs = fe.Fields()
		}
		return wrapped
	}
	return NewInternalServerError(err)
}
