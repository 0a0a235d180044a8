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

package spark

import (
	"context"
	"sync"
	"time"
)

// maxPoolSize caps the number of idle components held per type in the
// reuse pool (spec §4.10).
const maxPoolSize = 50

type entry struct {
	id             string
	componentType  string
	component      Component
	connected      bool
	mountedAt      time.Time
	disconnectedAt time.Time
	pendingRemoval bool
}

// Registry is the thread-safe id -> component map backing the Spark
// Channel (spec §4.10). A second, independent mutex guards the per-type
// reuse pool so pool maintenance never blocks registry lookups.
type Registry struct {
	mu         sync.RWMutex
	components map[string]*entry

	poolMu sync.Mutex
	pools  map[string][]Component
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		components: make(map[string]*entry),
		pools:      make(map[string][]Component),
	}
}

// Register adds a component under id, keyed separately by componentType
// for pooling. Registering an id that already exists replaces the prior
// entry without unmounting it; callers are expected to Delete first if
// that matters.
func (r *Registry) Register(id, componentType string, c Component) {
	r.mu.Lock()
	r.components[id] = &entry{
		id:            id,
		componentType: componentType,
		component:     c,
	}
	r.mu.Unlock()
}

// Get returns the component registered under id, if any.
func (r *Registry) Get(id string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.components[id]
	if !ok {
		return nil, false
	}
	return e.component, true
}

// MarkConnected records that id's client connection is live and calls
// Mount the first time it transitions to connected (spec §4.11
// "subscribe ... sets connected=true, calls mount()"). Returns false if
// id is not registered, so the caller can silently ignore the message.
func (r *Registry) MarkConnected(ctx context.Context, id string) (Component, bool) {
	r.mu.Lock()
	e, ok := r.components[id]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	firstMount := !e.connected && e.mountedAt.IsZero()
	e.connected = true
	e.pendingRemoval = false
	if firstMount {
		e.mountedAt = time.Now()
	}
	component := e.component
	r.mu.Unlock()

	if firstMount {
		_ = component.Mount(ctx)
	}
	return component, true
}

// MarkDisconnected records that id's client connection dropped, starting
// the grace-period clock used by CleanupDisconnected.
func (r *Registry) MarkDisconnected(id string) {
	r.mu.Lock()
	if e, ok := r.components[id]; ok {
		e.connected = false
		e.disconnectedAt = time.Now()
		e.pendingRemoval = false
	}
	r.mu.Unlock()
}

// Delete removes id from the registry and returns its component so the
// caller can unmount it outside of any lock.
func (r *Registry) Delete(id string) (Component, bool) {
	r.mu.Lock()
	e, ok := r.components[id]
	if ok {
		delete(r.components, id)
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	return e.component, true
}

// Disconnect immediately removes id from the registry, unmounts its
// component, and returns it to the reuse pool. Unlike MarkDisconnected,
// which only starts the grace-period clock for the background sweep,
// Disconnect is for the socket-close path: spec §4.11 requires the
// component to be unmounted the instant its connection drops, not after
// up to two GC cycles.
func (r *Registry) Disconnect(ctx context.Context, id string) {
	r.mu.Lock()
	e, ok := r.components[id]
	if ok {
		delete(r.components, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	_ = e.component.Unmount(ctx)
	r.Release(e.componentType, e.component)
}

// Acquire pops a component of componentType from the reuse pool, if one
// is available.
func (r *Registry) Acquire(componentType string) (Component, bool) {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	pool := r.pools[componentType]
	if len(pool) == 0 {
		return nil, false
	}
	c := pool[len(pool)-1]
	r.pools[componentType] = pool[:len(pool)-1]
	return c, true
}

// Release returns a component to the reuse pool, subject to maxPoolSize;
// components beyond the cap are dropped (left for garbage collection,
// never unmounted twice).
func (r *Registry) Release(componentType string, c Component) {
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	pool := r.pools[componentType]
	if len(pool) >= maxPoolSize {
		return
	}
	r.pools[componentType] = append(pool, c)
}

// CleanupDisconnected removes components that have been disconnected for
// at least gcInterval. A one-cycle grace period applies only to
// components that disconnected less than one gcInterval after they were
// mounted: such an entry is marked pending on the sweep where it first
// crosses the disconnect threshold and is actually removed (and unmounted)
// on the following sweep, unless it reconnected in the meantime.
// Components that stayed mounted for a full gcInterval before
// disconnecting, and components that were never mounted, are removed the
// moment they cross the threshold, with no extra grace (spec
// §4.11 "one-cycle grace period for components mounted exactly during the
// interval"). The snapshot is taken under the registry lock; Unmount
// always runs outside it.
func (r *Registry) CleanupDisconnected(gcInterval time.Duration) {
	now := time.Now()
	var toRemove []*entry

	r.mu.Lock()
	for id, e := range r.components {
		if e.connected {
			e.pendingRemoval = false
			continue
		}
		if now.Sub(e.disconnectedAt) < gcInterval {
			continue
		}
		recentlyMounted := !e.mountedAt.IsZero() && e.disconnectedAt.Sub(e.mountedAt) < gcInterval
		if !recentlyMounted || e.pendingRemoval {
			toRemove = append(toRemove, e)
			delete(r.components, id)
			continue
		}
		e.pendingRemoval = true
	}
	r.mu.Unlock()

	for _, e := range toRemove {
		_ = e.component.Unmount(context.Background())
		r.Release(e.componentType, e.component)
	}
}

// CleanupAll unconditionally removes and unmounts every registered
// component, snapshotting under the lock and unmounting outside it.
func (r *Registry) CleanupAll() {
	r.mu.Lock()
	all := make([]*entry, 0, len(r.components))
	for id, e := range r.components {
		all = append(all, e)
		delete(r.components, id)
	}
	r.mu.Unlock()

	for _, e := range all {
		_ = e.component.Unmount(context.Background())
	}
}

// Len reports the number of registered components.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.components)
}
