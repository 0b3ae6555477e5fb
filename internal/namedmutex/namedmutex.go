// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package namedmutex is an in-process stand-in for the cross-process,
// named OS mutex that ringrpc's role election is specified against
// (spec §4.6: "a named process-scoped mutex derived from the channel
// name"). The real primitive is an out-of-scope external collaborator;
// this package gives the election algorithm something real to run
// against within a single process (and across ringrpc.Core instances
// sharing one process, which is how the test suite exercises a
// master/slave pair).
package namedmutex

import "sync"

var (
	registryMu sync.Mutex
	registry   = map[string]*sync.Mutex{}
)

// Mutex is a named, process-wide mutual-exclusion lock.
type Mutex struct {
	name string
	mu   *sync.Mutex
}

// Acquire opens (creating if necessary) the named mutex and reports
// whether this call is the one that created it — the same signal a real
// named OS mutex gives via CreateMutex's "already exists" return.
func Acquire(name string) (m *Mutex, created bool) {
	registryMu.Lock()
	mu, ok := registry[name]
	if !ok {
		mu = &sync.Mutex{}
		registry[name] = mu
	}
	registryMu.Unlock()
	return &Mutex{name: name, mu: mu}, !ok
}

// TryLock attempts to take the lock, reporting false immediately if it is
// already held. There is no cross-process timed wait to emulate here
// (acquisition is uncontended in-process); callers still honor the
// caller-specified election timeout around Acquire+TryLock.
func (m *Mutex) TryLock() bool { return m.mu.TryLock() }

// Unlock releases the lock.
func (m *Mutex) Unlock() { m.mu.Unlock() }

// Release removes the named mutex from the registry once no peer needs
// it any longer. Safe to call after Unlock.
func Release(name string) {
	registryMu.Lock()
	delete(registry, name)
	registryMu.Unlock()
}
