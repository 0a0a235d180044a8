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

// Package negotiate implements content negotiation (C3): parsing the
// Accept header into ranked media ranges and picking the representation a
// response value can render in the highest-ranked acceptable format.
//
// It also owns the request params bag (path/query/form precedence, spec
// §3) and multipart upload bookkeeping, since both are prerequisites for
// content negotiation to run against a fully-parsed request.
package negotiate

import (
	"sort"
	"strconv"
	"strings"
)

// MediaRange is one entry of a parsed Accept header.
type MediaRange struct {
	Type    string // e.g. "application/json", "*/*", "text/*"
	Quality float64
	order   int // position of appearance, used to break exact quality ties
}

// ParseAccept parses an Accept header into media ranges sorted by
// descending quality. Equal-quality ranges preserve the order they
// appeared in the header (spec §9 Open Question, resolved as
// order-of-appearance). A missing q parameter defaults to 1.0. Malformed
// entries are skipped rather than aborting the whole parse.
func ParseAccept(header string) []MediaRange {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}

	parts := strings.Split(header, ",")
	ranges := make([]MediaRange, 0, len(parts))
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segs := strings.Split(part, ";")
		mediaType := strings.TrimSpace(segs[0])
		if mediaType == "" {
			continue
		}
		quality := 1.0
		for _, param := range segs[1:] {
			param = strings.TrimSpace(param)
			if !strings.HasPrefix(param, "q=") && !strings.HasPrefix(param, "Q=") {
				continue
			}
			if q, err := strconv.ParseFloat(strings.TrimSpace(param[2:]), 64); err == nil {
				quality = q
			}
		}
		ranges = append(ranges, MediaRange{Type: mediaType, Quality: quality, order: i})
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Quality > ranges[j].Quality
	})
	return ranges
}

// Matches reports whether mediaType satisfies range r, honoring the "*/*"
// and "type/*" wildcard forms.
func (r MediaRange) Matches(mediaType string) bool {
	if r.Type == "*/*" || r.Type == mediaType {
		return true
	}
	rType, _, ok := strings.Cut(r.Type, "/")
	mType, _, mOk := strings.Cut(mediaType, "/")
	if ok && mOk && strings.HasSuffix(r.Type, "/*") {
		return rType == mType
	}
	return false
}

// Best returns the first offer (in the order given) accepted by ranges,
// or "" if the header matched nothing. An empty or malformed Accept header
// (no ranges) falls back to the first offer, matching spec §4.3 "Empty or
// malformed Accept headers fall back to the response's natural type."
func Best(ranges []MediaRange, offers ...string) string {
	if len(offers) == 0 {
		return ""
	}
	if len(ranges) == 0 {
		return offers[0]
	}
	for _, r := range ranges {
		if r.Quality <= 0 {
			continue
		}
		for _, offer := range offers {
			if r.Matches(offer) {
				return offer
			}
		}
	}
	return ""
}
