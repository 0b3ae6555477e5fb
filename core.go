// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"code.hybscloud.com/ringrpc/internal/namedmutex"
	"code.hybscloud.com/ringrpc/internal/shmring"
)

// Infinite, passed as the timeout to RemoteRequest/RemoteRequestAsync,
// means "wait forever": the wait-slot is never armed with a timer and
// only completes when a response, error, or send failure arrives, or
// when this Core tears down.
const Infinite time.Duration = -1

// disposed states: 0 alive, 1 dispose in progress, 2 finished.
const (
	stateAlive    = int32(0)
	stateDisposing = int32(1)
	stateFinished = int32(2)
)

// Core is one end of a channel: the bidirectional request/response
// messaging peer this package implements. Construct one with New; exactly
// two Cores (in separate processes, normally) sharing the same channel
// name form a master/slave pair.
type Core struct {
	name   string
	opts   Options
	logger *zap.Logger

	msgBufferLength int

	isMaster    bool
	mutexHandle *namedmutex.Mutex

	outbound Ring
	inbound  Ring

	sendMu    sync.Mutex
	nextMsgID atomic.Uint64

	correlation *correlationTables
	stats       *Statistics
	disp        *dispatcher

	readLoopDone chan struct{}

	readingMu         sync.Mutex
	readingInProgress bool

	shutdownMu          sync.Mutex
	needsManagedDispose bool

	disposed atomic.Int32
}

// New elects this process as master or slave of the named channel,
// constructs or opens its pair of rings accordingly, and starts the read
// loop.
func New(name string, opts ...Option) (*Core, error) {
	o := defaultOptions
	for _, fn := range opts {
		fn(&o)
	}
	if o.BufferCapacity < MinBufferCapacity || o.BufferCapacity > MaxBufferCapacity {
		return nil, ErrOutOfRangeConfig
	}
	if o.BufferNodeCount <= 0 {
		return nil, ErrOutOfRangeConfig
	}
	if o.handlerCount > 1 {
		return nil, ErrMultipleHandlers
	}

	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	mh, created := namedmutex.Acquire(mutexName(name))
	isMaster := false
	if created {
		deadline := time.Now().Add(o.ElectionTimeout)
		for {
			if mh.TryLock() {
				isMaster = true
				break
			}
			if time.Now().After(deadline) {
				break
			}
			time.Sleep(time.Millisecond)
		}
	}

	outboundName, inboundName := outboundInboundNames(name, isMaster)

	var outbound, inbound Ring
	var err error
	if isMaster {
		inbound, err = shmring.Create(inboundName, o.BufferCapacity, o.BufferNodeCount)
		if err != nil {
			return nil, err
		}
		outbound, err = shmring.Create(outboundName, o.BufferCapacity, o.BufferNodeCount)
		if err != nil {
			return nil, err
		}
	} else {
		inbound, err = shmring.Open(inboundName, o.RingOpenTimeout)
		if err != nil {
			return nil, err
		}
		outbound, err = shmring.Open(outboundName, o.RingOpenTimeout)
		if err != nil {
			return nil, err
		}
	}

	// buffer_capacity is master-only configuration: a slave's ring was
	// sized by whatever the master passed to Create, which may differ
	// from this slave's own (possibly default) BufferCapacity option.
	c := &Core{
		name:            name,
		opts:            o,
		logger:          logger,
		msgBufferLength: msgBufferLength(inbound.Capacity()),
		isMaster:        isMaster,
		outbound:        outbound,
		inbound:         inbound,
		correlation:     newCorrelationTables(),
		stats:           newStatistics(),
		readLoopDone:    make(chan struct{}),
	}
	if isMaster {
		c.mutexHandle = mh
	}
	c.disp = newDispatcher(c, o.handler)

	logger.Debug("ringrpc: role elected", zap.String("channel", name), zap.Bool("master", isMaster))

	go c.readLoop()

	return c, nil
}

func (c *Core) newMsgID() uint64 { return c.nextMsgID.Add(1) }

func (c *Core) setReading(v bool) {
	c.readingMu.Lock()
	c.readingInProgress = v
	c.readingMu.Unlock()
}

func (c *Core) isReading() bool {
	c.readingMu.Lock()
	defer c.readingMu.Unlock()
	return c.readingInProgress
}

// RemoteRequest blocks until a response arrives, the send fails, or
// timeout elapses.
func (c *Core) RemoteRequest(payload []byte, timeout time.Duration) (Response, error) {
	req, err := c.startRequest(payload)
	if err != nil {
		return Response{}, err
	}
	return c.awaitResponse(req, timeout), nil
}

// RemoteRequestAsync is the non-blocking variant of RemoteRequest: it
// does not wait for the response. It returns once the request's packets
// have been written (or the write has failed), with a channel that
// receives exactly one Response.
func (c *Core) RemoteRequestAsync(payload []byte, timeout time.Duration) (<-chan Response, error) {
	req, err := c.startRequest(payload)
	if err != nil {
		return nil, err
	}
	ch := make(chan Response, 1)
	go func() { ch <- c.awaitResponse(req, timeout) }()
	return ch, nil
}

// RemoteRequestContext behaves like RemoteRequestAsync but blocks inline.
// When ctx is canceled first, it abandons the request and returns a zero
// (failure) Response together with ctx.Err().
func (c *Core) RemoteRequestContext(ctx context.Context, payload []byte, timeout time.Duration) (Response, error) {
	req, err := c.startRequest(payload)
	if err != nil {
		return Response{}, err
	}
	if timeout == 0 {
		timeout = c.opts.RequestTimeout
	}
	if timeout == Infinite {
		select {
		case <-req.done:
			return Response{Success: req.isSuccess, Data: req.data}, nil
		case <-ctx.Done():
			c.correlation.removePending(req.msgID)
			req.complete(false, nil)
			return Response{}, ctx.Err()
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-req.done:
		return Response{Success: req.isSuccess, Data: req.data}, nil
	case <-timer.C:
		c.correlation.removePending(req.msgID)
		req.complete(false, nil)
		c.stats.recordTimeout()
		return Response{Success: req.isSuccess, Data: req.data}, nil
	case <-ctx.Done():
		c.correlation.removePending(req.msgID)
		req.complete(false, nil)
		return Response{}, ctx.Err()
	}
}

func (c *Core) startRequest(payload []byte) (*outboundRequest, error) {
	if c.disposed.Load() != stateAlive {
		return nil, ErrAlreadyDisposed
	}
	if c.outbound.ShuttingDown() {
		return nil, ErrChannelClosed
	}

	msgID := c.newMsgID()
	req := newOutboundRequest(msgID)
	c.correlation.addPending(req)

	if !c.writeFramed(MsgRequest, msgID, payload, 0, writeTimeout) {
		c.correlation.removePending(msgID)
		req.complete(false, nil)
	}
	return req, nil
}

// awaitResponse blocks on req's wait-slot: zero takes this Core's
// configured RequestTimeout, Infinite waits forever, anything else arms a
// one-shot timer that completes the slot as failure and increments the
// timeout counter.
//
// Whichever side — a real arriving response, or this timer — wins the
// race, req.complete's once-guard makes the outcome consistent: if the
// timer fires first, removePending makes the eventually-arriving
// response's response_id unknown to the reader, so it is counted as a
// discarded response rather than silently applied.
func (c *Core) awaitResponse(req *outboundRequest, timeout time.Duration) Response {
	if timeout == 0 {
		timeout = c.opts.RequestTimeout
	}
	if timeout == Infinite {
		<-req.done
		return Response{Success: req.isSuccess, Data: req.data}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-req.done:
		return Response{Success: req.isSuccess, Data: req.data}
	case <-timer.C:
		c.correlation.removePending(req.msgID)
		req.complete(false, nil)
		c.stats.recordTimeout()
		return Response{Success: req.isSuccess, Data: req.data}
	}
}

// Dispose requests shutdown. If no handler dispatch is in flight and the
// read loop is not inside a ring Read call, teardown happens
// synchronously before Dispose returns; otherwise it is deferred to
// whichever of the read loop or a dispatch finishes last. The read loop
// counts as reading for the whole Read call, including its wait of up to
// 500ms for a packet, not only while a packet is being processed, so
// teardown is usually deferred to the read loop's next return from Read.
func (c *Core) Dispose() {
	c.shutdownMu.Lock()
	c.needsManagedDispose = true
	c.shutdownMu.Unlock()
	c.maybeFinalizeShutdown()
}

// DisposeFinished reports whether teardown has completed.
func (c *Core) DisposeFinished() bool { return c.disposed.Load() == stateFinished }

// IsMaster reports whether this Core won role election.
func (c *Core) IsMaster() bool { return c.isMaster }

// Stats returns a point-in-time snapshot of this Core's counters.
func (c *Core) Stats() StatisticsSnapshot { return c.stats.Snapshot() }

// PrometheusCollector exposes this Core's Statistics for scraping,
// labeled by channel name and role.
func (c *Core) PrometheusCollector() prometheus.Collector {
	role := "slave"
	if c.isMaster {
		role = "master"
	}
	return c.stats.PrometheusCollector(c.name, role)
}

// maybeFinalizeShutdown tears down once a shutdown has been requested
// and it is actually safe to: no handler dispatch in flight, and the
// read loop is not currently inside a ring Read call (its wait for a
// packet included). Safe to call from
// multiple goroutines concurrently — teardown itself is idempotent.
func (c *Core) maybeFinalizeShutdown() {
	c.shutdownMu.Lock()
	needs := c.needsManagedDispose
	c.shutdownMu.Unlock()
	if !needs {
		return
	}
	if c.disp.processCountSnapshot() != 0 {
		return
	}
	if c.isReading() {
		return
	}
	c.teardown()
}

// teardown clears handler callbacks, disposes both rings (unblocking any
// in-flight ring Read/Write with ErrShuttingDown), releases the master
// mutex, completes every still-pending outbound request as a failure,
// and marks disposal finished. Idempotent: only the first caller
// to win the disposed CAS performs it.
func (c *Core) teardown() {
	if !c.disposed.CompareAndSwap(stateAlive, stateDisposing) {
		return
	}

	c.disp.clearHandler()
	c.disp.drain()

	c.outbound.Dispose()
	c.inbound.Dispose()

	if c.mutexHandle != nil {
		c.mutexHandle.Unlock()
	}
	namedmutex.Release(mutexName(c.name))
	shmring.Forget(masterRingName(c.name))
	shmring.Forget(slaveRingName(c.name))

	c.correlation.mu.Lock()
	pending := c.correlation.pendingRequests
	c.correlation.pendingRequests = make(map[uint64]*outboundRequest)
	c.correlation.mu.Unlock()
	for _, req := range pending {
		req.complete(false, nil)
	}

	c.disposed.Store(stateFinished)
	c.logger.Info("ringrpc: disposed", zap.String("channel", c.name))
}
