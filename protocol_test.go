// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	cases := []header{
		{msgType: MsgRequest, msgID: 1, payloadSize: 0, currentPacket: 1, totalPackets: 1, responseID: 0},
		{msgType: MsgResponse, msgID: 42, payloadSize: 4096, currentPacket: 2, totalPackets: 5, responseID: 42},
		{msgType: MsgError, msgID: 7, payloadSize: 0, currentPacket: 1, totalPackets: 1, responseID: 7},
	}
	for _, c := range cases {
		buf := encodeHeader(c)
		require.Len(t, buf, headerSize)
		got, err := decodeHeader(buf)
		require.NoError(t, err)
		require.Equal(t, c, got)
	}
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	_, err := decodeHeader(make([]byte, headerSize-1))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDecodeHeaderRejectsUnknownMsgType(t *testing.T) {
	buf := encodeHeader(header{msgType: MsgRequest, msgID: 1, totalPackets: 1, currentPacket: 1})
	buf[offMsgType] = 0xEE
	_, err := decodeHeader(buf)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMessageTypeString(t *testing.T) {
	require.Equal(t, "REQUEST", MsgRequest.String())
	require.Equal(t, "RESPONSE", MsgResponse.String())
	require.Equal(t, "ERROR", MsgError.String())
	require.Equal(t, "UNKNOWN", MessageType(0xFF).String())
}

func TestFragmentPlan(t *testing.T) {
	const msgBufferLen = 100

	cases := []struct {
		name       string
		payloadLen int
		want       int
	}{
		{"empty payload still one packet", 0, 1},
		{"exactly one packet", msgBufferLen, 1},
		{"one byte over one packet", msgBufferLen + 1, 2},
		{"exactly three packets", msgBufferLen * 3, 3},
		{"three packets plus one byte", msgBufferLen*3 + 1, 4},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, fragmentPlan(c.payloadLen, msgBufferLen))
		})
	}
}

// TestPacketPayloadSize verifies the last packet's size comes from
// subtraction, not payloadSize % msgBufferLen — an exact multiple would
// otherwise misreport a zero-length terminal packet.
func TestPacketPayloadSize(t *testing.T) {
	const msgBufferLen = 100

	t.Run("single packet under capacity", func(t *testing.T) {
		require.Equal(t, 37, packetPayloadSize(37, msgBufferLen, 1, 1))
	})

	t.Run("middle packet of a multi-packet message is always full", func(t *testing.T) {
		require.Equal(t, msgBufferLen, packetPayloadSize(msgBufferLen*3, msgBufferLen, 2, 3))
	})

	t.Run("terminal packet on an exact multiple is a full packet, not zero", func(t *testing.T) {
		require.Equal(t, msgBufferLen, packetPayloadSize(msgBufferLen*3, msgBufferLen, 3, 3))
	})

	t.Run("terminal packet with a remainder", func(t *testing.T) {
		payloadSize := msgBufferLen*3 + 42
		require.Equal(t, 42, packetPayloadSize(payloadSize, msgBufferLen, 4, 4))
	})
}

func TestMsgBufferLength(t *testing.T) {
	require.Equal(t, 4096-headerSize, msgBufferLength(4096))
}
