// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringrpc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsMultipleHandlerShapes(t *testing.T) {
	_, err := New("ringrpc_options_test_"+t.Name(),
		WithHandler(func(msgID uint64, data []byte) {}),
		WithResultHandler(func(msgID uint64, data []byte) ([]byte, error) { return nil, nil }),
	)
	require.ErrorIs(t, err, ErrMultipleHandlers)
}

func TestNewRejectsBufferCapacityOutOfRange(t *testing.T) {
	_, err := New("ringrpc_options_test_"+t.Name(), WithBufferCapacity(MinBufferCapacity-1))
	require.ErrorIs(t, err, ErrOutOfRangeConfig)

	_, err = New("ringrpc_options_test_"+t.Name()+"_max", WithBufferCapacity(MaxBufferCapacity+1))
	require.ErrorIs(t, err, ErrOutOfRangeConfig)
}

func TestNewRejectsNonPositiveBufferNodeCount(t *testing.T) {
	_, err := New("ringrpc_options_test_"+t.Name(), WithBufferNodeCount(0))
	require.ErrorIs(t, err, ErrOutOfRangeConfig)
}
