// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestStatisticsRecordMessageSentAndReceived(t *testing.T) {
	s := newStatistics()

	s.recordMessageSent(MsgRequest)
	s.recordMessageSent(MsgResponse)
	s.recordMessageSent(MsgError)
	s.recordMessageReceived(MsgRequest)

	snap := s.Snapshot()
	require.EqualValues(t, 1, snap.RequestsSent)
	require.EqualValues(t, 1, snap.ResponsesSent)
	require.EqualValues(t, 1, snap.ErrorsSent)
	require.EqualValues(t, 1, snap.RequestsReceived)
}

func TestStatisticsDiscardedResponseTracksLastID(t *testing.T) {
	s := newStatistics()

	s.recordDiscardedResponse(11)
	s.recordDiscardedResponse(22)

	snap := s.Snapshot()
	require.EqualValues(t, 2, snap.DiscardedResponses)
	require.EqualValues(t, 22, snap.LastDiscardedResponseID)
}

func TestStatisticsPacketSizeExtrema(t *testing.T) {
	s := newStatistics()

	s.recordPacketWritten(64, 10)
	s.recordPacketWritten(4096, 5)
	s.recordPacketWritten(128, 50)

	snap := s.Snapshot()
	require.EqualValues(t, 64, snap.MinPacketSize)
	require.EqualValues(t, 4096, snap.MaxPacketSize)
	require.EqualValues(t, 50, snap.MaxWriteWaitTicks)
}

func TestStatisticsSnapshotWithNoPacketsReportsZeroMin(t *testing.T) {
	s := newStatistics()
	snap := s.Snapshot()
	require.EqualValues(t, 0, snap.MinPacketSize)
	require.EqualValues(t, 0, snap.MaxPacketSize)
}

func TestStatisticsConcurrentUpdatesDoNotRace(t *testing.T) {
	s := newStatistics()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.recordPacketWritten(n+1, int64(n))
			s.recordMessageSent(MsgRequest)
		}(i)
	}
	wg.Wait()

	snap := s.Snapshot()
	require.EqualValues(t, 100, snap.RequestsSent)
	require.EqualValues(t, 100, snap.PacketsSent)
}

func TestStatisticsPrometheusCollector(t *testing.T) {
	s := newStatistics()
	s.recordMessageSent(MsgRequest)
	s.recordPacketWritten(128, 1)

	c := s.PrometheusCollector("test-channel", "master")

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	count := testutil.CollectAndCount(c)
	require.Greater(t, count, 0)
}
