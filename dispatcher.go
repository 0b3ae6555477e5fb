// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// dispatcher invokes the configured handler for each fully-reassembled
// inbound REQUEST and frames the result as a RESPONSE or ERROR. Each
// dispatch runs on its own ephemeral goroutine — tracked through group,
// the same errgroup.Group-based worker-tracking idiom sakateka-yanet2's
// ring.go uses for its per-worker reader goroutines — so a slow handler
// never stalls read-loop reassembly.
type dispatcher struct {
	core    *Core
	handler handlerFunc

	processMu    sync.Mutex
	processCount int

	group errgroup.Group
}

func newDispatcher(core *Core, handler handlerFunc) *dispatcher {
	return &dispatcher{core: core, handler: handler}
}

// submit launches dispatch(msgID, data) on a fresh goroutine so reader.go
// can immediately go back to reassembling the next packet.
func (d *dispatcher) submit(msgID uint64, data []byte) {
	d.group.Go(func() error {
		d.dispatch(msgID, data)
		return nil
	})
}

// drain waits for every in-flight dispatch goroutine to finish. Called
// during teardown so no handler invocation is still running once
// DisposeFinished can observe true.
func (d *dispatcher) drain() { _ = d.group.Wait() }

// processCountSnapshot reports how many dispatch goroutines are
// currently between invoke and their response write, used by
// maybeFinalizeShutdown to decide whether teardown is safe yet.
func (d *dispatcher) processCountSnapshot() int {
	d.processMu.Lock()
	defer d.processMu.Unlock()
	return d.processCount
}

// clearHandler detaches the configured handler so any dispatch still in
// flight when teardown starts sees ErrNoHandler instead of racing a
// handler that assumes live rings.
func (d *dispatcher) clearHandler() {
	d.processMu.Lock()
	d.handler = nil
	d.processMu.Unlock()
}

func (d *dispatcher) dispatch(msgID uint64, data []byte) {
	d.processMu.Lock()
	d.processCount++
	d.processMu.Unlock()

	respPayload, err := d.invoke(msgID, data)

	if err != nil {
		d.core.logger.Warn("ringrpc: handler failed", zap.Uint64("msg_id", msgID), zap.Error(err))
		d.core.writeFramed(MsgError, d.core.newMsgID(), nil, msgID, writeTimeout)
	} else {
		d.core.writeFramed(MsgResponse, d.core.newMsgID(), respPayload, msgID, writeTimeout)
	}

	d.processMu.Lock()
	d.processCount--
	drained := d.processCount == 0
	d.processMu.Unlock()

	if drained {
		// Run outside this goroutine: teardown drains the group this
		// dispatch belongs to and would otherwise wait on itself.
		go d.core.maybeFinalizeShutdown()
	}
}

func (d *dispatcher) invoke(msgID uint64, data []byte) ([]byte, error) {
	d.processMu.Lock()
	h := d.handler
	d.processMu.Unlock()
	if h == nil {
		return nil, ErrNoHandler
	}
	return h(context.Background(), msgID, data)
}
