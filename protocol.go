// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"code.hybscloud.com/ringrpc/internal/bo"
)

// ProtocolVersion identifies the on-wire header layout. V1 is the only
// version defined today.
type ProtocolVersion uint8

const V1 ProtocolVersion = 1

// MessageType is the packet header's msg_type field.
type MessageType uint8

const (
	// MsgRequest marks a packet carrying (a fragment of) an inbound call.
	MsgRequest MessageType = 1
	// MsgResponse marks a packet carrying (a fragment of) a successful reply.
	MsgResponse MessageType = 2
	// MsgError marks a packet carrying a handler failure; it never has a payload.
	MsgError MessageType = 3
)

func (t MessageType) String() string {
	switch t {
	case MsgRequest:
		return "REQUEST"
	case MsgResponse:
		return "RESPONSE"
	case MsgError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

const (
	// headerSize is the fixed on-wire header length: every field order
	// and width is bit-exact, padded to 64 bytes. Endianness is the
	// host's native order — both peers run on the same host.
	headerSize = 64

	offMsgType       = 0
	offMsgID         = 1
	offPayloadSize   = 9
	offCurrentPacket = 13
	offTotalPackets  = 15
	offResponseID    = 17
	// bytes 25..63 are reserved padding, always zeroed.
)

// header is the fixed 64-byte packet header.
type header struct {
	msgType       MessageType
	msgID         uint64
	payloadSize   int32
	currentPacket uint16
	totalPackets  uint16
	responseID    uint64
}

// byteOrder is the wire byte order for every packet header and is native
// to the host — both peers of a channel run on the same machine, so
// there is no cross-endian concern to guard against.
var byteOrder = bo.Native()

// encodeHeader serializes h into a freshly-sized 64-byte slice.
func encodeHeader(h header) []byte {
	buf := make([]byte, headerSize)
	encodeHeaderInto(buf, h)
	return buf
}

// encodeHeaderInto serializes h into the first headerSize bytes of buf,
// which must be at least headerSize bytes long.
func encodeHeaderInto(buf []byte, h header) {
	_ = buf[headerSize-1]
	buf[offMsgType] = byte(h.msgType)
	byteOrder.PutUint64(buf[offMsgID:], h.msgID)
	byteOrder.PutUint32(buf[offPayloadSize:], uint32(h.payloadSize))
	byteOrder.PutUint16(buf[offCurrentPacket:], h.currentPacket)
	byteOrder.PutUint16(buf[offTotalPackets:], h.totalPackets)
	byteOrder.PutUint64(buf[offResponseID:], h.responseID)
	for i := offResponseID + 8; i < headerSize; i++ {
		buf[i] = 0
	}
}

// decodeHeader parses the first headerSize bytes of buf into a header.
func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, ErrInvalidArgument
	}
	h := header{
		msgType:       MessageType(buf[offMsgType]),
		msgID:         byteOrder.Uint64(buf[offMsgID:]),
		payloadSize:   int32(byteOrder.Uint32(buf[offPayloadSize:])),
		currentPacket: byteOrder.Uint16(buf[offCurrentPacket:]),
		totalPackets:  byteOrder.Uint16(buf[offTotalPackets:]),
		responseID:    byteOrder.Uint64(buf[offResponseID:]),
	}
	switch h.msgType {
	case MsgRequest, MsgResponse, MsgError:
	default:
		return header{}, ErrInvalidArgument
	}
	return h, nil
}

// msgBufferLength returns the usable payload capacity per packet for a
// ring whose slots are bufferCapacity bytes, header included.
func msgBufferLength(bufferCapacity int) int {
	return bufferCapacity - headerSize
}

// fragmentPlan computes the number of packets needed to carry a payload
// of payloadLen bytes over packets of msgBufferLength bytes each. An
// empty payload still takes one packet, since every message — even a
// handler call with no arguments — needs at least one header to carry
// its msg_id and terminal-packet marker.
func fragmentPlan(payloadLen, msgBufferLen int) (totalPackets int) {
	if payloadLen == 0 {
		return 1
	}
	totalPackets = payloadLen / msgBufferLen
	if payloadLen%msgBufferLen != 0 {
		totalPackets++
	}
	return totalPackets
}

// packetPayloadSize resolves how many payload bytes packet number
// currentPacket (1-indexed) of totalPackets carries, given the
// reassembled message's total payloadSize and per-packet capacity
// msgBufferLen.
//
// The terminal packet's size is payloadSize minus what every prior
// packet already carried, never the raw modulo — modulo misidentifies a
// payload that divides evenly into msgBufferLen-sized packets as having
// a zero-length last packet.
func packetPayloadSize(payloadSize int, msgBufferLen int, currentPacket, totalPackets uint16) int {
	if payloadSize < msgBufferLen {
		return payloadSize
	}
	if currentPacket < totalPackets {
		return msgBufferLen
	}
	return payloadSize - msgBufferLen*(int(totalPackets)-1)
}
