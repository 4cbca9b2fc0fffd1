// Package transport provides network transport abstractions for mDNS communication.
//
// This package decouples the discovery engine from a specific socket
// implementation, enabling a real multicast transport alongside a mock for
// deterministic tests.
package transport

import (
	"context"
	"net"
)

// Transport abstracts network operations for sending and receiving mDNS packets.
//
// Implementations:
//   - UDPv4Transport: production IPv4 multicast transport, bound to a single
//     caller-supplied interface
//   - MockTransport: test double
type Transport interface {
	// Send transmits a packet to the specified destination address.
	//
	// Parameters:
	//   - ctx: context for cancellation and deadline propagation
	//   - packet: DNS message in wire format
	//   - dest: destination address (mDNS multicast 224.0.0.251:5353)
	//
	// Returns a NetworkError on transmission failure.
	Send(ctx context.Context, packet []byte, dest net.Addr) error

	// Receive waits for an incoming packet, respecting context cancellation/deadline.
	//
	// Returns the packet, the source address it arrived from, and a
	// NetworkError on timeout or receive failure.
	Receive(ctx context.Context) (packet []byte, srcAddr net.Addr, err error)

	// Close releases network resources.
	Close() error
}
