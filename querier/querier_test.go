package querier

import (
	"encoding/binary"
	goerrors "errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/netbeacon/beacon/internal/errors"
	"github.com/netbeacon/beacon/internal/transport"
)

func encodeNameBytes(name string) []byte {
	var out []byte
	for _, label := range strings.Split(name, ".") {
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	return append(out, 0x00)
}

func buildHeader(ancount uint16) []byte {
	h := make([]byte, 12)
	binary.BigEndian.PutUint16(h[2:4], 0x8000) // QR=1
	binary.BigEndian.PutUint16(h[6:8], ancount)
	return h
}

type rawRecord struct {
	name  string
	rtype uint16
	ttl   uint32
	rdata []byte
}

func buildRecord(r rawRecord) []byte {
	out := encodeNameBytes(r.name)
	tail := make([]byte, 10)
	binary.BigEndian.PutUint16(tail[0:2], r.rtype)
	binary.BigEndian.PutUint16(tail[2:4], 1) // CLASS IN
	binary.BigEndian.PutUint32(tail[4:8], r.ttl)
	binary.BigEndian.PutUint16(tail[8:10], uint16(len(r.rdata)))
	out = append(out, tail...)
	return append(out, r.rdata...)
}

func ptrRData(instance string) []byte { return encodeNameBytes(instance) }

func srvRData(target string, port uint16) []byte {
	head := make([]byte, 6)
	binary.BigEndian.PutUint16(head[4:6], port)
	return append(head, encodeNameBytes(target)...)
}

func txtRData(pairs ...string) []byte {
	var out []byte
	for _, p := range pairs {
		out = append(out, byte(len(p)))
		out = append(out, p...)
	}
	return out
}

func aRData(ip net.IP) []byte {
	v4 := ip.To4()
	return []byte{v4[0], v4[1], v4[2], v4[3]}
}

func buildResponse(records ...rawRecord) []byte {
	msg := buildHeader(uint16(len(records)))
	for _, r := range records {
		msg = append(msg, buildRecord(r)...)
	}
	return msg
}

func testSrcAddr() net.Addr {
	return &net.UDPAddr{IP: net.ParseIP("192.0.2.10"), Port: 5353}
}

func newTestHandle(t *testing.T, mock *transport.MockTransport) *Handle {
	t.Helper()
	h, err := Init(false, net.ParseIP("127.0.0.1"), WithTransport(mock), WithRateLimit(false))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return h
}

func TestQuery_RejectsServiceTypeWithoutUnderscore(t *testing.T) {
	mock := transport.NewMockTransport()
	h := newTestHandle(t, mock)
	defer func() { _ = Close(h) }()

	err := Query(h, "http._tcp.local", 0, 10*time.Millisecond, nil, nil)
	if err == nil {
		t.Fatal("expected ValidationError, got nil")
	}
	var ve *errors.ValidationError
	if !goerrors.As(err, &ve) {
		t.Errorf("expected *errors.ValidationError, got %T: %v", err, err)
	}
}

func TestQuery_HappyPath_PTRSRVTXTAcrossTwoPackets(t *testing.T) {
	mock := transport.NewMockTransport()
	h := newTestHandle(t, mock)
	defer func() { _ = Close(h) }()

	query := "_http._tcp.local"
	instance := "foo._http._tcp.local"
	src := testSrcAddr()

	packet1 := buildResponse(
		rawRecord{name: query, rtype: 12, ttl: 120, rdata: ptrRData(instance)},
		rawRecord{name: instance, rtype: 33, ttl: 120, rdata: srvRData("host1.local", 80)},
		rawRecord{name: instance, rtype: 16, ttl: 120, rdata: txtRData("path=/")},
	)
	packet2 := buildResponse(
		rawRecord{name: "host1.local", rtype: 1, ttl: 120, rdata: aRData(net.ParseIP("192.0.2.20"))},
	)

	mock.QueueResponse(packet1, src)
	mock.QueueResponse(packet2, src)

	var delivered []Service
	callback := func(services []Service, cookie any, stop *bool) bool {
		delivered = append(delivered, services...)
		if len(delivered) > 0 {
			*stop = true
		}
		return false
	}

	if err := Query(h, query, 0, time.Second, callback, nil); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if len(delivered) != 1 {
		t.Fatalf("expected exactly 1 delivered service, got %d: %+v", len(delivered), delivered)
	}

	svc := delivered[0]
	if svc.InstanceName != instance {
		t.Errorf("InstanceName = %q, want %q", svc.InstanceName, instance)
	}
	if svc.Hostname != "host1.local" {
		t.Errorf("Hostname = %q, want host1.local", svc.Hostname)
	}
	if svc.Port != 80 {
		t.Errorf("Port = %d, want 80", svc.Port)
	}
	if !svc.Addr.Equal(net.ParseIP("192.0.2.20")) {
		t.Errorf("Addr = %v, want 192.0.2.20", svc.Addr)
	}
	if svc.Expired {
		t.Error("Expired = true on first completion, want false")
	}
	if len(svc.Attrs) != 1 || svc.Attrs[0].Name != "path" || svc.Attrs[0].Value != "/" {
		t.Errorf("Attrs = %+v, want [{path /}]", svc.Attrs)
	}
}

func TestQuery_LinkLocalAddressNeverCompletes(t *testing.T) {
	mock := transport.NewMockTransport()
	h := newTestHandle(t, mock)
	defer func() { _ = Close(h) }()

	query := "_http._tcp.local"
	instance := "foo._http._tcp.local"
	src := testSrcAddr()

	packet1 := buildResponse(
		rawRecord{name: query, rtype: 12, ttl: 120, rdata: ptrRData(instance)},
		rawRecord{name: instance, rtype: 33, ttl: 120, rdata: srvRData("host1.local", 80)},
		rawRecord{name: instance, rtype: 16, ttl: 120, rdata: txtRData("path=/")},
	)
	packet2 := buildResponse(
		rawRecord{name: "host1.local", rtype: 1, ttl: 120, rdata: aRData(net.ParseIP("169.254.1.1"))},
	)

	mock.QueueResponse(packet1, src)
	mock.QueueResponse(packet2, src)

	called := false
	callback := func(services []Service, cookie any, stop *bool) bool {
		called = true
		return false
	}

	err := Query(h, query, 0, 150*time.Millisecond, callback, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if called {
		t.Error("callback invoked for a service that should never complete")
	}
}

func TestQuery_TTLCapExpiresService(t *testing.T) {
	mock := transport.NewMockTransport()
	h := newTestHandle(t, mock)
	defer func() { _ = Close(h) }()

	query := "_http._tcp.local"
	instance := "foo._http._tcp.local"
	src := testSrcAddr()

	packet1 := buildResponse(
		rawRecord{name: query, rtype: 12, ttl: 120, rdata: ptrRData(instance)},
		rawRecord{name: instance, rtype: 33, ttl: 120, rdata: srvRData("host1.local", 80)},
		rawRecord{name: instance, rtype: 16, ttl: 120, rdata: txtRData("path=/")},
		rawRecord{name: "host1.local", rtype: 1, ttl: 120, rdata: aRData(net.ParseIP("192.0.2.20"))},
	)
	mock.QueueResponse(packet1, src)

	var sawExpired bool
	deliveries := 0
	callback := func(services []Service, cookie any, stop *bool) bool {
		deliveries++
		for _, s := range services {
			if s.Expired {
				sawExpired = true
			}
		}
		if deliveries >= 2 {
			*stop = true
		}
		return false
	}

	err := Query(h, query, 50*time.Millisecond, 2*time.Second, callback, nil)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if !sawExpired {
		t.Error("expected the capped-TTL service to be delivered as expired")
	}
}

func TestControl_SuspendStopsLoop(t *testing.T) {
	mock := transport.NewMockTransport()
	h := newTestHandle(t, mock)
	defer func() { _ = Close(h) }()

	done := make(chan error, 1)
	go func() {
		done <- Query(h, "_http._tcp.local", 0, 0, nil, nil)
	}()

	time.Sleep(20 * time.Millisecond)
	Control(h, ControlSuspend)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Query returned error after Suspend: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Query did not return after Control(ControlSuspend)")
	}
}

func TestGetList_ReturnsNilBeforeAnyQuery(t *testing.T) {
	mock := transport.NewMockTransport()
	h := newTestHandle(t, mock)
	defer func() { _ = Close(h) }()

	if list := GetList(h); list != nil {
		t.Errorf("GetList before any Query = %+v, want nil", list)
	}
}

func TestClose_WhileIdleClosesTransportImmediately(t *testing.T) {
	mock := transport.NewMockTransport()
	h := newTestHandle(t, mock)

	if err := Close(h); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
	if !mock.IsClosed() {
		t.Error("transport was not closed")
	}
}

func TestFreeList_IsNoOp(t *testing.T) {
	// FreeList must be safe to call with any slice, including nil, and must
	// not mutate or retain it.
	FreeList(nil)
	FreeList([]Service{{InstanceName: "x"}})
}
