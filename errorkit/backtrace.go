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

package errorkit

import (
	"runtime"
	"strconv"
)

// callersTopFrame returns "file:line" for the caller `skip` frames up the
// stack, used as one input to the fingerprint hash (spec §3 "a stable
// hash over (errorClass, topFrame, detail-template)").
func callersTopFrame(skip int, scratch []uintptr) string {
	n := runtime.Callers(skip, scratch)
	if n == 0 {
		return "unknown"
	}
	frames := runtime.CallersFrames(scratch[:n])
	frame, _ := frames.Next()
	if frame.Function == "" {
		return "unknown"
	}
	return frame.File + ":" + strconv.Itoa(frame.Line)
}
