// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// handlerFunc is the single internal abstraction every public handler
// shape normalizes to: an async function (msg_id, bytes) -> optional
// bytes. Synchronous shapes are trivially lifted by ignoring ctx.
type handlerFunc func(ctx context.Context, msgID uint64, data []byte) ([]byte, error)

// Options configures a Core. Construct one via New's functional Option
// arguments, following the teacher's options-pattern idiom.
type Options struct {
	// BufferCapacity is the full ring slot size in bytes, header
	// included. Master-only: the slave inherits the master's sizing when
	// it opens the existing rings. Must be in [MinBufferCapacity,
	// MaxBufferCapacity].
	BufferCapacity int

	// BufferNodeCount is the number of slots per ring. Master-only, for
	// the same reason as BufferCapacity.
	BufferNodeCount int

	// ProtocolVersion selects the wire header layout. Only V1 exists
	// today.
	ProtocolVersion ProtocolVersion

	// ElectionTimeout bounds how long role election waits to acquire the
	// named mutex before falling back to slave.
	ElectionTimeout time.Duration

	// RingOpenTimeout bounds how long a slave waits for the master to
	// create the named rings.
	RingOpenTimeout time.Duration

	// RequestTimeout is the default remote_request/remote_request_async
	// timeout when the caller does not override it.
	RequestTimeout time.Duration

	// Logger receives structured diagnostics for role election, shutdown
	// phases, discarded responses, and handler failures. Defaults to a
	// no-op logger.
	Logger *zap.Logger

	handler      handlerFunc
	handlerCount int // number of With*Handler* options applied; must end at 0 or 1
}

const (
	defaultBufferCapacity  = 4096
	defaultBufferNodeCount = 32
	defaultElectionTimeout = 500 * time.Millisecond
	defaultRingOpenTimeout = 2 * time.Second
	defaultRequestTimeout  = 30 * time.Second

	// writeTimeout and readTimeout are the ring-level blocking bounds:
	// 1000ms per outbound packet write, 500ms per inbound ring poll.
	// These are not configurable — they bound the read loop's own poll
	// granularity, not something callers should be tuning.
	writeTimeout = 1000 * time.Millisecond
	readTimeout  = 500 * time.Millisecond
)

var defaultOptions = Options{
	BufferCapacity:  defaultBufferCapacity,
	BufferNodeCount: defaultBufferNodeCount,
	ProtocolVersion: V1,
	ElectionTimeout: defaultElectionTimeout,
	RingOpenTimeout: defaultRingOpenTimeout,
	RequestTimeout:  defaultRequestTimeout,
}

// Option configures a Core at construction time.
type Option func(*Options)

// WithBufferCapacity sets the master-only ring slot size in bytes.
func WithBufferCapacity(n int) Option {
	return func(o *Options) { o.BufferCapacity = n }
}

// WithBufferNodeCount sets the master-only number of slots per ring.
func WithBufferNodeCount(n int) Option {
	return func(o *Options) { o.BufferNodeCount = n }
}

// WithProtocolVersion selects the wire header layout.
func WithProtocolVersion(v ProtocolVersion) Option {
	return func(o *Options) { o.ProtocolVersion = v }
}

// WithElectionTimeout overrides the master/slave election window.
func WithElectionTimeout(d time.Duration) Option {
	return func(o *Options) { o.ElectionTimeout = d }
}

// WithRingOpenTimeout overrides how long a slave waits for the master's
// rings to appear.
func WithRingOpenTimeout(d time.Duration) Option {
	return func(o *Options) { o.RingOpenTimeout = d }
}

// WithRequestTimeout overrides the default remote_request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) { o.RequestTimeout = d }
}

// WithLogger attaches a zap logger for lifecycle, read-loop, and
// dispatcher diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithHandler registers the request-only, synchronous handler shape: it
// is invoked for every complete inbound REQUEST and returns nothing. A
// RESPONSE with an empty payload is still sent back to the caller.
func WithHandler(fn func(msgID uint64, data []byte)) Option {
	return func(o *Options) {
		o.handler = func(_ context.Context, msgID uint64, data []byte) ([]byte, error) {
			fn(msgID, data)
			return nil, nil
		}
		o.handlerCount++
	}
}

// WithHandlerAsync registers the request-only, asynchronous handler
// shape: it runs to completion (or returns an error) before the
// dispatcher emits the RESPONSE/ERROR.
func WithHandlerAsync(fn func(ctx context.Context, msgID uint64, data []byte) error) Option {
	return func(o *Options) {
		o.handler = func(ctx context.Context, msgID uint64, data []byte) ([]byte, error) {
			return nil, fn(ctx, msgID, data)
		}
		o.handlerCount++
	}
}

// WithResultHandler registers the request-with-result, synchronous
// handler shape: its return value becomes the RESPONSE payload, and a
// returned error becomes an ERROR packet instead.
func WithResultHandler(fn func(msgID uint64, data []byte) ([]byte, error)) Option {
	return func(o *Options) {
		o.handler = func(_ context.Context, msgID uint64, data []byte) ([]byte, error) {
			return fn(msgID, data)
		}
		o.handlerCount++
	}
}

// WithResultHandlerAsync registers the request-with-result, asynchronous
// handler shape.
func WithResultHandlerAsync(fn func(ctx context.Context, msgID uint64, data []byte) ([]byte, error)) Option {
	return func(o *Options) {
		o.handler = fn
		o.handlerCount++
	}
}
