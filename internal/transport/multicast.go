package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/net/ipv4"

	"github.com/netbeacon/beacon/internal/errors"
	"github.com/netbeacon/beacon/internal/protocol"
)

// UDPv4Transport implements Transport for IPv4 mDNS multicast, bound to a
// single caller-supplied interface.
//
// Binding to one interface rather than iterating net.Interfaces() keeps the
// core engine's socket setup matching the reference Init(debug, ifaceAddr)
// contract: interface selection is the caller's concern, not the engine's.
type UDPv4Transport struct {
	conn      *net.UDPConn
	pconn     *ipv4.PacketConn
	iface     *net.Interface
	ifaceAddr net.IP
}

// NewUDPv4Transport creates a UDP multicast transport bound to 0.0.0.0:5353,
// with IP_MULTICAST_IF set to ifaceAddr and the mDNS group joined on the
// matching interface.
//
// Socket setup mirrors RFC 6762 §5/§11: IP_MULTICAST_TTL=32,
// IP_MULTICAST_LOOP=1, SO_REUSEADDR/SO_REUSEPORT where the platform supports
// it (tolerating ENOPROTOOPT where it doesn't).
func NewUDPv4Transport(ifaceAddr net.IP) (*UDPv4Transport, error) {
	iface, err := interfaceForAddr(ifaceAddr)
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "resolve interface",
			Err:       err,
			Details:   fmt.Sprintf("no local interface carries address %s", ifaceAddr),
		}
	}

	lc := net.ListenConfig{Control: PlatformControl}
	pc, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("0.0.0.0", strconv.Itoa(protocol.Port)))
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "create socket",
			Err:       err,
			Details:   fmt.Sprintf("failed to bind 0.0.0.0:%d", protocol.Port),
		}
	}

	conn, ok := pc.(*net.UDPConn)
	if !ok {
		_ = pc.Close()
		return nil, &errors.NetworkError{
			Operation: "create socket",
			Err:       fmt.Errorf("unexpected packet conn type %T", pc),
		}
	}

	pconn := ipv4.NewPacketConn(conn)

	group := &net.UDPAddr{IP: net.ParseIP(protocol.MulticastAddrIPv4)}
	if err := pconn.JoinGroup(iface, group); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{
			Operation: "join multicast group",
			Err:       err,
			Details:   fmt.Sprintf("failed to join %s on %s", protocol.MulticastAddrIPv4, iface.Name),
		}
	}

	if err := pconn.SetMulticastInterface(iface); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{
			Operation: "configure socket",
			Err:       err,
			Details:   "failed to set outgoing multicast interface",
		}
	}

	if err := pconn.SetMulticastTTL(protocol.MulticastTTL); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{
			Operation: "configure socket",
			Err:       err,
			Details:   "failed to set multicast TTL",
		}
	}

	if err := pconn.SetMulticastLoopback(true); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{
			Operation: "configure socket",
			Err:       err,
			Details:   "failed to enable multicast loopback",
		}
	}

	if err := conn.SetReadBuffer(protocol.ReceiveBufferSize); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{
			Operation: "configure socket",
			Err:       err,
			Details:   "failed to set read buffer size",
		}
	}

	return &UDPv4Transport{conn: conn, pconn: pconn, iface: iface, ifaceAddr: ifaceAddr}, nil
}

// interfaceForAddr finds the net.Interface that carries the given IPv4 address.
func interfaceForAddr(addr net.IP) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.IP.Equal(addr) {
				return &ifaces[i], nil
			}
		}
	}

	return nil, fmt.Errorf("address %s not found on any local interface", addr)
}

// Send transmits a packet to the specified destination address.
func (t *UDPv4Transport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return &errors.NetworkError{
			Operation: "send query",
			Err:       ctx.Err(),
			Details:   "context canceled before send",
		}
	default:
	}

	n, err := t.conn.WriteTo(packet, dest)
	if err != nil {
		return &errors.NetworkError{
			Operation: "send query",
			Err:       err,
			Details:   fmt.Sprintf("failed to send %d bytes to %s", len(packet), dest),
		}
	}

	if n != len(packet) {
		return &errors.NetworkError{
			Operation: "send query",
			Err:       fmt.Errorf("partial write: %d/%d bytes", n, len(packet)),
			Details:   "incomplete transmission",
		}
	}

	return nil
}

// Receive waits for an incoming packet, respecting context cancellation/deadline.
func (t *UDPv4Transport) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case <-ctx.Done():
		return nil, nil, &errors.NetworkError{
			Operation: "receive response",
			Err:       ctx.Err(),
			Details:   "context canceled before receive",
		}
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, &errors.NetworkError{
				Operation: "set read timeout",
				Err:       err,
				Details:   fmt.Sprintf("failed to set deadline %v", deadline),
			}
		}
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buffer := *bufPtr

	n, srcAddr, err := t.conn.ReadFrom(buffer)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, &errors.NetworkError{
				Operation: "receive response",
				Err:       err,
				Details:   "timeout",
			}
		}

		return nil, nil, &errors.NetworkError{
			Operation: "receive response",
			Err:       err,
			Details:   "failed to read from socket",
		}
	}

	result := make([]byte, n)
	copy(result, buffer[:n])
	return result, srcAddr, nil
}

// Close releases the socket.
func (t *UDPv4Transport) Close() error {
	if t.conn == nil {
		return nil
	}

	if err := t.conn.Close(); err != nil {
		return &errors.NetworkError{
			Operation: "close socket",
			Err:       err,
			Details:   "failed to close UDP connection",
		}
	}

	return nil
}
