// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"time"
)

// writeFramed fragments payload into packet-sized ring slots and writes
// them in order, holding sendMu for the whole loop so packets of one
// message are contiguous on the wire. It never blocks on a response —
// that is the caller's concern via outboundRequest's wait-slot.
func (c *Core) writeFramed(msgType MessageType, msgID uint64, payload []byte, responseID uint64, timeout time.Duration) bool {
	if c.outbound.ShuttingDown() {
		return false
	}

	msgBufferLen := c.msgBufferLength
	totalPackets := fragmentPlan(len(payload), msgBufferLen)

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	for current := 1; current <= totalPackets; current++ {
		if c.outbound.ShuttingDown() {
			return false
		}

		start := (current - 1) * msgBufferLen
		end := start + msgBufferLen
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[start:end]

		h := header{
			msgType:       msgType,
			msgID:         msgID,
			payloadSize:   int32(len(payload)),
			currentPacket: uint16(current),
			totalPackets:  uint16(totalPackets),
			responseID:    responseID,
		}

		waitStart := time.Now()
		err := c.outbound.Write(func(slot []byte) (int, error) {
			encodeHeaderInto(slot, h)
			n := copy(slot[headerSize:], chunk)
			return headerSize + n, nil
		}, timeout)
		waitTicks := time.Since(waitStart).Nanoseconds()

		if err != nil {
			return false
		}
		c.stats.recordPacketWritten(headerSize+len(chunk), waitTicks)
	}

	c.stats.recordMessageSent(msgType)
	return true
}
