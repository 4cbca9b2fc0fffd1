// Package querier implements a persistent mDNS service discovery engine.
//
// A Handle drives a single active query at a time: Init creates the
// transport, Query runs the receive/re-query loop on the calling goroutine
// until its runtime budget expires or a callback requests a stop, and
// Control/Close can be invoked concurrently from another goroutine to steer
// or end that loop.
package querier

import (
	"context"
	goerrors "errors"
	"log"
	"net"
	"sync"
	"time"

	"github.com/netbeacon/beacon/internal/correlator"
	"github.com/netbeacon/beacon/internal/errors"
	"github.com/netbeacon/beacon/internal/message"
	"github.com/netbeacon/beacon/internal/protocol"
	"github.com/netbeacon/beacon/internal/security"
	"github.com/netbeacon/beacon/internal/transport"
)

// Handle owns the transport and all state for a sequence of Query calls.
// A Handle is safe for Control and Close to be called concurrently with an
// in-flight Query; it is not safe for two Query calls to run at once.
type Handle struct {
	transport         transport.Transport
	logger            *log.Logger
	debug             bool
	receiveBufferSize int

	rateLimitEnabled   bool
	rateLimitThreshold int
	rateLimitCooldown  time.Duration
	rateLimiter        *security.RateLimiter

	control chan ControlRequest

	mu     sync.Mutex
	state  State
	ctx    *correlator.Context
	closed bool
}

// Init creates a Handle bound to the interface carrying ifaceAddr and joins
// the mDNS multicast group on it. debug enables verbose logging via the
// configured logger (default: discarded).
//
// WithTransport overrides the real socket entirely, for tests.
func Init(debug bool, ifaceAddr net.IP, opts ...Option) (*Handle, error) {
	h := &Handle{
		debug:              debug,
		logger:             defaultLogger(),
		receiveBufferSize:  protocol.MaxMessageSize,
		rateLimitEnabled:   true,
		rateLimitThreshold: 100,
		rateLimitCooldown:  60 * time.Second,
		control:            make(chan ControlRequest, 4),
		state:              StateIdle,
	}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}

	if h.transport == nil {
		t, err := transport.NewUDPv4Transport(ifaceAddr)
		if err != nil {
			return nil, err
		}
		h.transport = t
	}

	if h.rateLimitEnabled {
		h.rateLimiter = security.NewRateLimiter(h.rateLimitThreshold, h.rateLimitCooldown, 10000)
	}

	if debug {
		h.logger.Printf("querier: initialized on %s", ifaceAddr)
	}

	return h, nil
}

// Query issues serviceType as a PTR query and runs the receive loop on the
// calling goroutine until runtime elapses, Control(h, ControlSuspend) is
// called, or callback sets stop to true.
//
// ttlCap, if non-zero, bounds the effective lifetime assigned to any record
// this query ingests, overriding a longer TTL advertised by a responder.
// callback may be nil, in which case services are still tracked (GetList
// remains usable) but no delta is ever dispatched.
func Query(h *Handle, serviceType string, ttlCap, runtime time.Duration, callback Callback, cookie any) error {
	if err := protocol.ValidateServiceType(serviceType); err != nil {
		return err
	}

	h.mu.Lock()
	h.state = StateRunning
	h.ctx = correlator.NewContext(serviceType, ttlCap)
	h.mu.Unlock()

	deadline := time.Now().Add(runtime)
	lastQuery := time.Time{}

	defer h.finishQuery()

	for {
		h.mu.Lock()
		idle := h.state == StateIdle
		h.mu.Unlock()
		if idle {
			return nil
		}

		now := time.Now()
		if runtime > 0 && !now.Before(deadline) {
			return nil
		}

		if now.Sub(lastQuery) >= protocol.RequeryInterval {
			if err := h.sendQuery(serviceType); err != nil && h.debug {
				h.logger.Printf("querier: periodic query failed: %v", err)
			}
			lastQuery = now
		}

		select {
		case req := <-h.control:
			switch req {
			case ControlReset:
				h.mu.Lock()
				h.ctx = correlator.NewContext(serviceType, ttlCap)
				h.mu.Unlock()
				lastQuery = time.Time{}
				continue
			case ControlSuspend:
				h.mu.Lock()
				h.state = StateIdle
				h.mu.Unlock()
				return nil
			}
		default:
		}

		recvCtx, cancel := context.WithTimeout(context.Background(), protocol.PollInterval)
		packet, srcAddr, err := h.transport.Receive(recvCtx)
		cancel()

		switch {
		case err != nil && isTimeout(err):
			// No packet arrived this tick; fall through to age and prune the
			// association lists so TTL expiry fires even when a responder
			// goes silent.
		case err != nil:
			return err
		case h.rateLimitEnabled && h.rateLimiter != nil && !h.rateLimiter.Allow(addrIP(srcAddr)):
			continue
		case len(packet) > h.receiveBufferSize:
			continue
		default:
			h.ingest(packet, srcAddr, now)
		}

		h.mu.Lock()
		build := callback != nil
		delta := h.ctx.BuildUpdate(build, now)
		h.mu.Unlock()

		if callback == nil || len(delta) == 0 {
			continue
		}

		stop := false
		callback(delta, cookie, &stop)
		if stop {
			h.mu.Lock()
			h.state = StateIdle
			h.mu.Unlock()
			return nil
		}
	}
}

// ingest parses a received packet and feeds every answer and additional
// record into the active correlation context.
func (h *Handle) ingest(packet []byte, srcAddr net.Addr, now time.Time) {
	msg, err := message.ParseMessage(packet)
	if err != nil {
		if h.debug {
			h.logger.Printf("querier: discarding malformed message from %s: %v", srcAddr, err)
		}
		return
	}

	if msg.Header.IsQuery() {
		// Our own query, looped back by IP_MULTICAST_LOOP, or another
		// querier's; nothing to correlate.
		return
	}

	if err := protocol.ValidateResponse(msg.Header.IsResponse(), msg.Header.GetOPCODE(), msg.Header.GetRCODE()); err != nil {
		if h.debug {
			h.logger.Printf("querier: discarding invalid response from %s: %v", srcAddr, err)
		}
		return
	}

	host := addrIPAddr(srcAddr)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, records := range [][]message.Answer{msg.Answers, msg.Additionals} {
		for _, rr := range records {
			h.ingestAnswer(packet, host, rr, now)
		}
	}
}

// ingestAnswer dispatches a single resource record to the correlator based
// on its type. Decode failures are skipped record-by-record; a malformed RR
// does not abort the rest of the message.
func (h *Handle) ingestAnswer(packet []byte, host net.IP, rr message.Answer, now time.Time) {
	if err := protocol.ValidateRecordType(rr.TYPE); err != nil {
		if h.debug {
			h.logger.Printf("querier: skipping unsupported record type %d from %s: %v", rr.TYPE, host, err)
		}
		return
	}

	parsed, err := message.ParseRDATAAt(packet, rr.TYPE, rr.RDATAOffset, int(rr.RDLENGTH))
	if err != nil {
		if h.debug {
			h.logger.Printf("querier: discarding malformed record type %d from %s: %v", rr.TYPE, host, err)
		}
		return
	}

	switch protocol.RecordType(rr.TYPE) {
	case protocol.RecordTypeA:
		addr, ok := parsed.(net.IP)
		if !ok {
			return
		}
		// A link-local address (169.254.0.0/16) means the responder has not
		// yet acquired a routable address; treated as absent rather than a
		// usable hostname binding.
		if addr4 := addr.To4(); addr4 != nil && addr4[0] == 169 && addr4[1] == 254 {
			addr = net.IPv4zero
		}
		h.ctx.IngestA(rr.NAME, addr, rr.TTL, now)

	case protocol.RecordTypePTR:
		instanceName, ok := parsed.(string)
		if !ok {
			return
		}
		h.ctx.IngestPTR(rr.NAME, host, instanceName, rr.TTL, now)

	case protocol.RecordTypeSRV:
		srv, ok := parsed.(message.SRVData)
		if !ok {
			return
		}
		h.ctx.IngestSRV(rr.NAME, host, srv.Target, srv.Port, rr.TTL, now)

	case protocol.RecordTypeTXT:
		strs, ok := parsed.([]string)
		if !ok {
			return
		}
		h.ctx.IngestTXT(rr.NAME, host, encodeTXT(strs), rr.TTL, now)
	}
}

// encodeTXT re-encodes decoded TXT strings back into the length-prefixed
// wire blob the correlator stores and parses at emission time. ParseRDATAAt
// decodes TXT once into []string for type dispatch; the correlator keeps the
// raw blob so repeated ingests can cheaply compare for change.
func encodeTXT(strs []string) []byte {
	var out []byte
	for _, s := range strs {
		out = append(out, byte(len(s)))
		out = append(out, s...)
	}
	return out
}

// sendQuery builds and transmits a PTR query for serviceType to the mDNS
// multicast group.
func (h *Handle) sendQuery(serviceType string) error {
	packet, err := message.BuildQuery(serviceType, uint16(protocol.RecordTypePTR))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), protocol.PollInterval)
	defer cancel()

	return h.transport.Send(ctx, packet, protocol.MulticastGroupIPv4())
}

// finishQuery returns the Handle to Idle and, if Close was called while this
// Query was running, performs the deferred socket cleanup.
func (h *Handle) finishQuery() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = StateIdle
	if h.closed {
		_ = h.transport.Close()
	}
}

// Control delivers a command to a running Query loop. It is safe to call
// from any goroutine, including concurrently with Query. Outside of
// Running, Reset clears state in place and Suspend is a no-op.
func Control(h *Handle, request ControlRequest) {
	h.mu.Lock()
	running := h.state == StateRunning
	h.mu.Unlock()

	if !running {
		if request == ControlReset {
			h.mu.Lock()
			if h.ctx != nil {
				h.ctx = correlator.NewContext(h.ctx.Query, h.ctx.TTLCap)
			}
			h.mu.Unlock()
		}
		return
	}

	select {
	case h.control <- request:
	default:
		// Control channel full: a prior request hasn't been consumed yet.
		// Drain and replace with the newest request rather than block.
		select {
		case <-h.control:
		default:
		}
		h.control <- request
	}
}

// Close releases the Handle and its socket. If a Query call is in flight,
// Close signals it to stop and the loop performs the actual socket cleanup
// on its way out, guaranteeing exactly one closer regardless of timing.
func Close(h *Handle) error {
	h.mu.Lock()
	running := h.state == StateRunning
	h.closed = true
	h.mu.Unlock()

	if running {
		Control(h, ControlSuspend)
		return nil
	}

	return h.transport.Close()
}

// FreeList is a no-op retained for API parity: Go's garbage collector
// reclaims service slices, so callers that declined ownership in a callback
// have nothing to manually release.
func FreeList(services []Service) {}

// GetList returns a snapshot of every currently complete service known to
// the active query, without waiting for a new packet. Returns nil if no
// query has ever run on this Handle.
func GetList(h *Handle) []Service {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctx == nil {
		return nil
	}
	return h.ctx.GetList(time.Now())
}

func isTimeout(err error) bool {
	if goerrors.Is(err, context.DeadlineExceeded) || goerrors.Is(err, context.Canceled) {
		return true
	}
	var netErr *errors.NetworkError
	if goerrors.As(err, &netErr) {
		if goerrors.Is(netErr.Err, context.DeadlineExceeded) || goerrors.Is(netErr.Err, context.Canceled) {
			return true
		}
		if ne, ok := netErr.Err.(net.Error); ok && ne.Timeout() {
			return true
		}
	}
	return false
}

func addrIP(addr net.Addr) string {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP.String()
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

func addrIPAddr(addr net.Addr) net.IP {
	if udp, ok := addr.(*net.UDPAddr); ok {
		return udp.IP
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}
