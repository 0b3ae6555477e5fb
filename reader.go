// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"go.uber.org/zap"
)

// readLoop is the single long-running task that drives reassembly for
// the Core's lifetime. It is launched once, from New, and exits once
// teardown has finished or its inbound ring reports shutting down.
func (c *Core) readLoop() {
	defer close(c.readLoopDone)

	for {
		if c.DisposeFinished() {
			return
		}
		// Between iterations readingInProgress is false, so if dispose()
		// deferred teardown to us because a handler dispatch was still
		// in flight, this is the moment to retry it.
		c.maybeFinalizeShutdown()
		if c.DisposeFinished() {
			return
		}

		c.setReading(true)
		err := c.inbound.Read(c.readVisitor, readTimeout)
		c.setReading(false)

		if err != nil {
			// ErrTimeout: no packet within the poll window, loop again.
			// ErrShuttingDown: the ring was disposed out from under us
			// (by this Core's teardown or by the peer's); stop reading.
			c.maybeFinalizeShutdown()
			if c.inbound.ShuttingDown() {
				return
			}
			continue
		}
	}
}

// readVisitor parses one packet's header and routes its payload to
// either a pending outbound request's reassembly buffer or the inbound
// request table.
func (c *Core) readVisitor(slot []byte) (consumed int, err error) {
	h, err := decodeHeader(slot)
	if err != nil {
		// Malformed header: nothing sane to do but drop the slot.
		return len(slot), nil
	}

	msgBufferLen := c.msgBufferLength
	packetSize := packetPayloadSize(int(h.payloadSize), msgBufferLen, h.currentPacket, h.totalPackets)

	if h.msgType == MsgResponse || h.msgType == MsgError {
		req, ok := c.correlation.lookupPending(h.responseID)
		if !ok {
			c.stats.recordDiscardedResponse(h.responseID)
			c.logger.Debug("ringrpc: discarded response", zap.Uint64("response_id", h.responseID))
			return headerSize, nil
		}
		c.stats.recordPacketRead(headerSize + packetSize)
		if h.payloadSize > 0 {
			if req.buf == nil {
				req.buf = make([]byte, h.payloadSize)
			}
			copy(req.buf[msgBufferLen*(int(h.currentPacket)-1):], slot[headerSize:headerSize+packetSize])
		}
		if h.currentPacket == h.totalPackets {
			c.correlation.removePending(h.responseID)
			c.stats.recordMessageReceived(h.msgType)
			data := req.buf
			if h.msgType == MsgResponse {
				req.complete(true, data)
			} else {
				req.complete(false, data)
			}
		}
		return headerSize + packetSize, nil
	}

	// REQUEST: find-or-create the reassembly record for this msg_id.
	msg := c.correlation.incomingOrCreate(h.msgID)
	c.stats.recordPacketRead(headerSize + packetSize)
	if h.payloadSize > 0 {
		if msg.buf == nil {
			msg.buf = make([]byte, h.payloadSize)
			msg.payloadSize = int(h.payloadSize)
		}
		copy(msg.buf[msgBufferLen*(int(h.currentPacket)-1):], slot[headerSize:headerSize+packetSize])
	}
	if h.currentPacket == h.totalPackets {
		c.correlation.removeIncoming(h.msgID)
		c.stats.recordMessageReceived(h.msgType)
		c.disp.submit(h.msgID, msg.buf)
	}
	return headerSize + packetSize, nil
}
