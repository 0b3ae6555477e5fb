// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package namedmutex

import "testing"

func TestFirstAcquireReportsCreated(t *testing.T) {
	name := t.Name()
	t.Cleanup(func() { Release(name) })

	m1, created := Acquire(name)
	if !created {
		t.Fatal("first Acquire should report created=true")
	}
	if !m1.TryLock() {
		t.Fatal("TryLock on a freshly acquired mutex should succeed")
	}

	m2, created := Acquire(name)
	if created {
		t.Fatal("second Acquire for the same name should report created=false")
	}
	if m2.TryLock() {
		t.Fatal("TryLock should fail while m1 still holds the lock")
	}

	m1.Unlock()
	if !m2.TryLock() {
		t.Fatal("TryLock should succeed once the first holder releases it")
	}
	m2.Unlock()
}

func TestReleaseThenAcquireStartsFresh(t *testing.T) {
	name := t.Name()

	m1, created := Acquire(name)
	if !created {
		t.Fatal("want created=true")
	}
	if !m1.TryLock() {
		t.Fatal("TryLock on a freshly acquired mutex should succeed")
	}
	m1.Unlock()
	Release(name)

	m2, created := Acquire(name)
	if !created {
		t.Fatal("after Release, the next Acquire should report created=true again")
	}
	t.Cleanup(func() { Release(name) })
	if !m2.TryLock() {
		t.Fatal("TryLock on the fresh mutex should succeed")
	}
	m2.Unlock()
}
