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
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkkit/spark/negotiate"
)

func TestReaperRunSweepsStaleFiles(t *testing.T) {
	t.Parallel()
	tmp, err := os.CreateTemp(t.TempDir(), "spark-upload-*")
	require.NoError(t, err)
	tmp.Close()

	reaper := negotiate.NewReaper(time.Millisecond, 2*time.Millisecond)
	reaper.Track(tmp.Name())

	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go reaper.Run(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()

	_, err = os.Stat(tmp.Name())
	assert.True(t, os.IsNotExist(err))
}

func TestReaperTrackUploadsRegistersEachPath(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a, err := os.CreateTemp(dir, "spark-upload-a-*")
	require.NoError(t, err)
	a.Close()
	b, err := os.CreateTemp(dir, "spark-upload-b-*")
	require.NoError(t, err)
	b.Close()

	reaper := negotiate.NewReaper(time.Millisecond, time.Millisecond)
	reaper.TrackUploads(map[string]*negotiate.Upload{
		"a": {TempPath: a.Name()},
		"b": {TempPath: b.Name()},
	})

	time.Sleep(5 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	go reaper.Run(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()

	_, errA := os.Stat(a.Name())
	_, errB := os.Stat(b.Name())
	assert.True(t, os.IsNotExist(errA))
	assert.True(t, os.IsNotExist(errB))
}
