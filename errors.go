// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import "errors"

var (
	// ErrAlreadyDisposed is raised by any public entry point once dispose
	// has been initiated on the Core.
	ErrAlreadyDisposed = errors.New("ringrpc: already disposed")

	// ErrChannelClosed is raised when the underlying ring reports
	// shutting_down while a public entry point is in flight.
	ErrChannelClosed = errors.New("ringrpc: channel closed")

	// ErrOutOfRangeConfig reports a buffer_capacity or buffer_node_count
	// outside the allowed range at construction time.
	ErrOutOfRangeConfig = errors.New("ringrpc: configuration value out of range")

	// ErrNoHandler is returned internally when a REQUEST arrives and no
	// handler shape was configured; the dispatcher turns this into an
	// outbound ERROR packet rather than surfacing it to a caller.
	ErrNoHandler = errors.New("ringrpc: no handler configured")

	// ErrMultipleHandlers is raised by New when more than one of
	// WithHandler, WithHandlerAsync, WithResultHandler, and
	// WithResultHandlerAsync was passed: the four handler shapes are
	// mutually exclusive.
	ErrMultipleHandlers = errors.New("ringrpc: more than one handler shape configured")

	// ErrInvalidArgument reports a malformed packet header: a buffer
	// shorter than the header, or an unknown msg_type.
	ErrInvalidArgument = errors.New("ringrpc: invalid argument")
)
