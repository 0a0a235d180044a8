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

package negotiate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkkit/spark/negotiate"
)

func TestParseAcceptOrdersByQuality(t *testing.T) {
	t.Parallel()
	ranges := negotiate.ParseAccept("text/html;q=0.5, application/json;q=0.9, */*;q=0.1")
	require.Len(t, ranges, 3)
	assert.Equal(t, "application/json", ranges[0].Type)
	assert.Equal(t, "text/html", ranges[1].Type)
	assert.Equal(t, "*/*", ranges[2].Type)
}

func TestParseAcceptDefaultsQualityToOne(t *testing.T) {
	t.Parallel()
	ranges := negotiate.ParseAccept("application/xml")
	require.Len(t, ranges, 1)
	assert.Equal(t, 1.0, ranges[0].Quality)
}

func TestParseAcceptPreservesOrderOnTies(t *testing.T) {
	t.Parallel()
	ranges := negotiate.ParseAccept("text/plain, application/json")
	require.Len(t, ranges, 2)
	assert.Equal(t, "text/plain", ranges[0].Type)
	assert.Equal(t, "application/json", ranges[1].Type)
}

func TestParseAcceptSkipsMalformedEntries(t *testing.T) {
	t.Parallel()
	ranges := negotiate.ParseAccept("application/json, , text/html")
	require.Len(t, ranges, 2)
}

func TestParseAcceptEmptyHeaderReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, negotiate.ParseAccept(""))
}

func TestMediaRangeMatchesWildcards(t *testing.T) {
	t.Parallel()
	star := negotiate.MediaRange{Type: "*/*"}
	assert.True(t, star.Matches("application/json"))

	typeStar := negotiate.MediaRange{Type: "text/*"}
	assert.True(t, typeStar.Matches("text/html"))
	assert.False(t, typeStar.Matches("application/json"))

	exact := negotiate.MediaRange{Type: "application/json"}
	assert.True(t, exact.Matches("application/json"))
	assert.False(t, exact.Matches("application/xml"))
}

func TestBestReturnsFirstAcceptedOffer(t *testing.T) {
	t.Parallel()
	ranges := negotiate.ParseAccept("application/xml;q=0.8, application/json")
	best := negotiate.Best(ranges, "application/json", "application/xml")
	assert.Equal(t, "application/json", best)
}

func TestBestWithNoRangesFallsBackToFirstOffer(t *testing.T) {
	t.Parallel()
	best := negotiate.Best(nil, "text/html", "application/json")
	assert.Equal(t, "text/html", best)
}

func TestBestReturnsEmptyWhenNothingMatches(t *testing.T) {
	t.Parallel()
	ranges := negotiate.ParseAccept("application/xml")
	best := negotiate.Best(ranges, "text/plain")
	assert.Equal(t, "", best)
}

func TestBestIgnoresZeroQualityRanges(t *testing.T) {
	t.Parallel()
	ranges := negotiate.ParseAccept("application/json;q=0")
	best := negotiate.Best(ranges, "application/json")
	assert.Equal(t, "", best)
}
