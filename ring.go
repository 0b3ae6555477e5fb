// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"time"

	"code.hybscloud.com/ringrpc/internal/shmring"
)

// ReadVisitor inspects a filled ring slot and reports how many bytes of
// it were consumed.
type ReadVisitor = shmring.ReadVisitor

// WriteVisitor fills a free ring slot and reports how many bytes it
// wrote.
type WriteVisitor = shmring.WriteVisitor

// Ring is the contract ringrpc needs from the shared-memory circular
// buffer primitive: a bounded queue of fixed-size slots with blocking,
// timeout-bounded visitor-style Read/Write and a ShuttingDown flag. The
// primitive itself — a named memory-mapped file pair in the reference
// design — is an external collaborator implemented elsewhere; Ring is
// the seam ringrpc depends on instead of a concrete transport.
//
// code.hybscloud.com/ringrpc/internal/shmring provides the one concrete,
// in-process implementation this module ships, used by tests and by
// Core's default construction path.
type Ring interface {
	// Read blocks up to timeout waiting for a filled slot, then invokes v
	// with it. Returns ErrTimeout (per implementation) on expiry and
	// ErrShuttingDown once Dispose has been called.
	Read(v ReadVisitor, timeout time.Duration) error

	// Write blocks up to timeout waiting for a free slot, then invokes v
	// to fill it before publishing it for Read.
	Write(v WriteVisitor, timeout time.Duration) error

	// ShuttingDown reports whether Dispose has been called.
	ShuttingDown() bool

	// Dispose marks the ring as shutting down, unblocking any in-flight
	// or future Read/Write with ErrShuttingDown.
	Dispose()

	// Capacity reports the fixed slot size in bytes, header included.
	// buffer_capacity is master-only configuration: a slave derives its
	// msg_buffer_length from the ring it opens rather than from its own
	// BufferCapacity option, so the two peers never disagree about
	// fragment size.
	Capacity() int
}

// Capacity bounds: the minimum and maximum allowed buffer_capacity,
// including the 64-byte header.
const (
	MinBufferCapacity = 256
	MaxBufferCapacity = 1 << 20
)
