// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package shmring

import (
	"testing"
	"time"
)

func TestCreateThenOpenShareTheSameRing(t *testing.T) {
	name := t.Name()
	t.Cleanup(func() { Forget(name) })

	r1, err := Create(name, 64, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	r2, err := Open(name, time.Second)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if r1 != r2 {
		t.Fatal("Open did not return the same ring Create registered")
	}
}

func TestCapacityReportsSlotSizeFromCreate(t *testing.T) {
	name := t.Name()
	t.Cleanup(func() { Forget(name) })

	r, err := Create(name, 512, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := r.Capacity(); got != 512 {
		t.Fatalf("Capacity() = %d, want 512", got)
	}

	opened, err := Open(name, time.Second)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := opened.Capacity(); got != 512 {
		t.Fatalf("opened ring Capacity() = %d, want 512 (must match creator's, not a local default)", got)
	}
}

func TestCreateTwiceFails(t *testing.T) {
	name := t.Name()
	t.Cleanup(func() { Forget(name) })

	if _, err := Create(name, 64, 4); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := Create(name, 64, 4); err != ErrAlreadyExists {
		t.Fatalf("second Create: got %v, want ErrAlreadyExists", err)
	}
}

func TestOpenTimesOutWhenNeverCreated(t *testing.T) {
	_, err := Open(t.Name(), 5*time.Millisecond)
	if err != ErrNotFound {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestWriteThenRead(t *testing.T) {
	r := newRing(16, 2)

	err := r.Write(func(slot []byte) (int, error) {
		return copy(slot, []byte("hello")), nil
	}, time.Second)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got string
	err = r.Read(func(slot []byte) (int, error) {
		got = string(slot)
		return len(slot), nil
	}, time.Second)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestReadTimesOutWhenEmpty(t *testing.T) {
	r := newRing(16, 1)
	err := r.Read(func(slot []byte) (int, error) { return 0, nil }, 5*time.Millisecond)
	if err != ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestNonBlockingReadReportsWouldBlock(t *testing.T) {
	r := newRing(16, 1)
	err := r.Read(func(slot []byte) (int, error) { return 0, nil }, 0)
	if err != ErrWouldBlock {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}
}

func TestNonBlockingWriteReportsWouldBlockUntilCapacityFreesUp(t *testing.T) {
	r := newRing(16, 1)

	fill := func() error {
		return r.Write(func(slot []byte) (int, error) { return 0, nil }, time.Second)
	}
	if err := fill(); err != nil {
		t.Fatalf("first Write: %v", err)
	}

	// The single slot is now in the filled queue, not free: a second
	// non-blocking Write must report ErrWouldBlock immediately.
	if err := r.Write(func(slot []byte) (int, error) { return 0, nil }, 0); err != ErrWouldBlock {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}

	// Draining the one filled slot returns it to free, unblocking a Write.
	if err := r.Read(func(slot []byte) (int, error) { return 0, nil }, time.Second); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if err := fill(); err != nil {
		t.Fatalf("Write after drain: %v", err)
	}
}

func TestDisposeUnblocksPendingReadAndWrite(t *testing.T) {
	r := newRing(16, 1)

	done := make(chan error, 1)
	go func() {
		done <- r.Read(func(slot []byte) (int, error) { return 0, nil }, 5*time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	r.Dispose()

	select {
	case err := <-done:
		if err != ErrShuttingDown {
			t.Fatalf("got %v, want ErrShuttingDown", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not unblock after Dispose")
	}

	if !r.ShuttingDown() {
		t.Fatal("ShuttingDown should report true after Dispose")
	}
	if err := r.Write(func(slot []byte) (int, error) { return 0, nil }, time.Second); err != ErrShuttingDown {
		t.Fatalf("Write after Dispose: got %v, want ErrShuttingDown", err)
	}
}

func TestDisposeIsIdempotent(t *testing.T) {
	r := newRing(16, 1)
	r.Dispose()
	r.Dispose() // must not panic on double-close
}
