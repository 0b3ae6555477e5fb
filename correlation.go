// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"sync"
	"time"
)

// Response is the result of a remote call: Success is false whenever the
// call failed for any reason (send failure, timeout, or a remote ERROR
// packet); Data is only meaningful when Success is true. A handler
// failure today carries no payload of its own, but the field stays
// generic in case a future handler wants to attach detail.
type Response struct {
	Success bool
	Data    []byte
}

// outboundRequest is one in-flight call originated by this peer. It is
// inserted into pendingRequests before the first packet is written and
// removed by the reader on the terminal packet of the matching response,
// or locally on a send failure, a timeout, or teardown.
type outboundRequest struct {
	msgID     uint64
	createdAt time.Time

	done      chan struct{}
	once      sync.Once
	isSuccess bool
	data      []byte

	// reassembly state for a multi-packet response/error, valid only
	// between the first and terminal packet of the answer.
	buf []byte
}

func newOutboundRequest(msgID uint64) *outboundRequest {
	return &outboundRequest{msgID: msgID, createdAt: time.Now(), done: make(chan struct{})}
}

// complete resolves the wait-slot exactly once; later calls are no-ops, so
// a timeout racing a late-arriving response can never double-resolve it.
func (r *outboundRequest) complete(success bool, data []byte) {
	r.once.Do(func() {
		r.isSuccess = success
		r.data = data
		close(r.done)
	})
}

// inboundMessage is one partial inbound message being reassembled: a
// REQUEST from the peer, carried packet by packet until its terminal
// packet completes it.
type inboundMessage struct {
	msgID       uint64
	payloadSize int
	buf         []byte
}

// correlationTables holds the pending-outbound and in-progress-inbound
// maps, both guarded by the one mutex mu: each sees read-modify-write on
// every call (insert now, delete later) rather than the read-mostly
// shape sync.Map optimizes for.
type correlationTables struct {
	mu              sync.Mutex
	pendingRequests map[uint64]*outboundRequest
	incoming        map[uint64]*inboundMessage
}

func newCorrelationTables() *correlationTables {
	return &correlationTables{
		pendingRequests: make(map[uint64]*outboundRequest),
		incoming:        make(map[uint64]*inboundMessage),
	}
}

func (c *correlationTables) addPending(r *outboundRequest) {
	c.mu.Lock()
	c.pendingRequests[r.msgID] = r
	c.mu.Unlock()
}

func (c *correlationTables) removePending(msgID uint64) (*outboundRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.pendingRequests[msgID]
	if ok {
		delete(c.pendingRequests, msgID)
	}
	return r, ok
}

func (c *correlationTables) lookupPending(msgID uint64) (*outboundRequest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.pendingRequests[msgID]
	return r, ok
}

// incomingOrCreate returns the in-progress reassembly record for msgID,
// lazily creating one on the first packet.
func (c *correlationTables) incomingOrCreate(msgID uint64) *inboundMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.incoming[msgID]
	if !ok {
		m = &inboundMessage{msgID: msgID}
		c.incoming[msgID] = m
	}
	return m
}

func (c *correlationTables) removeIncoming(msgID uint64) {
	c.mu.Lock()
	delete(c.incoming, msgID)
	c.mu.Unlock()
}

// pendingCount reports the number of in-flight outbound requests, used by
// tests and diagnostics only.
func (c *correlationTables) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pendingRequests)
}
