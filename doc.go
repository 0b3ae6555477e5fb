// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ringrpc implements a bidirectional request/response RPC core
// for exactly two peers (master and slave) in separate processes on one
// host, connected by a pair of shared-memory circular buffers — one
// ring per direction.
//
// Semantics and design:
//   - Role election: the first Core to create the channel's named
//     election mutex becomes master and creates both rings; the other
//     opens them as slave. See internal/namedmutex and internal/shmring
//     for the (out-of-process, in this module's case out-of-scope)
//     collaborators this is built against.
//   - Fragmentation: a call's payload is split across as many fixed-size
//     ring slots as needed, written under one lock so a message's
//     packets land contiguously on the wire, and reassembled by msg_id
//     on the other side.
//   - Correlation: an outbound call is tracked in a pending-requests
//     table keyed by msg_id until its RESPONSE or ERROR arrives, is
//     locally timed out, or this Core tears down. An inbound call is
//     tracked in an incoming-requests table only while its packets are
//     still being reassembled.
//   - Four handler shapes (WithHandler, WithHandlerAsync,
//     WithResultHandler, WithResultHandlerAsync) are mutually exclusive
//     and normalize to one internal signature; each complete inbound
//     REQUEST dispatches to its own goroutine so a slow handler never
//     stalls reassembly of the next message.
//   - Shutdown is graceful: Dispose defers teardown until every
//     in-flight handler dispatch has finished and the read loop is not
//     inside a ring Read call (its wait for the next packet included),
//     then disposes both rings and releases the election mutex.
//
// Wire format: every packet begins with a fixed 64-byte header (wire
// byte order is the host's native order — both peers run on the same
// machine) encoding msg_type, msg_id, the reassembled message's total
// payload_size, this packet's 1-indexed current_packet/total_packets,
// and, for RESPONSE/ERROR packets, the response_id of the request they
// answer.
package ringrpc
