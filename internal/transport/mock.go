package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/netbeacon/beacon/internal/errors"
	"github.com/netbeacon/beacon/internal/protocol"
)

// MockTransport is a test double for Transport.
//
// It records every Send() call for verification and, for Receive(), serves
// a caller-configured queue of canned packets so the engine's poll loop can
// be driven deterministically without a real socket.
type MockTransport struct {
	mu        sync.Mutex
	sendCalls []SendCall
	responses []cannedResponse
	closed    bool
}

// SendCall records a single Send() invocation.
type SendCall struct {
	Packet []byte
	Dest   net.Addr
}

type cannedResponse struct {
	packet []byte
	src    net.Addr
	err    error
}

// NewMockTransport creates a new mock transport for testing.
func NewMockTransport() *MockTransport {
	return &MockTransport{
		sendCalls: make([]SendCall, 0),
	}
}

// Send records the call for verification.
func (m *MockTransport) Send(_ context.Context, packet []byte, dest net.Addr) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sendCalls = append(m.sendCalls, SendCall{
		Packet: append([]byte(nil), packet...), // copy to avoid aliasing
		Dest:   dest,
	})

	return nil
}

// QueueResponse appends a packet to be returned by a future Receive() call,
// as if it arrived from src.
func (m *MockTransport) QueueResponse(packet []byte, src net.Addr) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = append(m.responses, cannedResponse{
		packet: append([]byte(nil), packet...),
		src:    src,
	})
}

// QueueError makes a future Receive() call return err instead of a packet.
func (m *MockTransport) QueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses = append(m.responses, cannedResponse{err: err})
}

// Receive returns the next queued response, blocking until one is queued or
// ctx is done. A queue drained to empty behaves like a transport with
// nothing to read: it blocks until ctx is canceled, mirroring a real
// socket's read timeout.
func (m *MockTransport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	for {
		m.mu.Lock()
		if len(m.responses) > 0 {
			next := m.responses[0]
			m.responses = m.responses[1:]
			m.mu.Unlock()

			if next.err != nil {
				return nil, nil, next.err
			}
			return next.packet, next.src, nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, nil, &errors.NetworkError{
				Operation: "receive response",
				Err:       ctx.Err(),
				Details:   "no response queued before context deadline",
			}
		case <-time.After(protocol.PollInterval):
		}
	}
}

// Close marks the transport as closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (m *MockTransport) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.closed
}

// SendCalls returns all recorded Send() calls.
func (m *MockTransport) SendCalls() []SendCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]SendCall, len(m.sendCalls))
	copy(calls, m.sendCalls)
	return calls
}
