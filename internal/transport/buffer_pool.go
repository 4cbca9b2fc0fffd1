package transport

import (
	"sync"

	"github.com/netbeacon/beacon/internal/protocol"
)

// bufferPool is a sync.Pool of receive buffers sized for the largest mDNS
// message this engine accepts, avoiding a fresh allocation on every
// Receive() call.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, protocol.ReceiveBufferSize)
		return &buf
	},
}

// GetBuffer returns a pointer to a pooled receive buffer.
//
// Callers must call PutBuffer to return it (typically via defer).
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer returns a buffer to the pool for reuse.
//
// Callers must not use the buffer after calling PutBuffer.
func PutBuffer(bufPtr *[]byte) {
	buf := *bufPtr
	for i := range buf {
		buf[i] = 0
	}

	bufferPool.Put(bufPtr)
}
