// Package correlator stitches PTR, SRV, TXT, and A records arriving in
// arbitrary order, across multiple responders, into coherent service
// records, and ages them by their individual time-to-live.
package correlator

import (
	"net"
	"time"
)

// Status tracks whether a ServiceEntry has unflushed changes to report to
// the next BuildUpdate caller.
type Status int

const (
	// StatusCurrent means the entry matches the last snapshot handed to a caller.
	StatusCurrent Status = iota
	// StatusUpdated means port, hostname, or TXT content changed since the last snapshot.
	StatusUpdated
)

// AddrEntry tracks the address of a single hostname. A records are
// responder-agnostic in this design: identity is the hostname alone, so two
// responders publishing the same hostname with different addresses collapse
// into one entry (last writer wins).
type AddrEntry struct {
	Hostname string
	Addr     net.IP
	Expiry   time.Time
}

// ServiceEntry is a composite of PTR (instance discovery), SRV (host/port),
// and TXT (metadata) records that together describe one advertised service
// instance from one responder. Identity is the pair (Host, InstanceName):
// two responders advertising the same instance name are two distinct
// entries, by design.
type ServiceEntry struct {
	Host         net.IP
	InstanceName string
	Hostname     string
	Port         uint16
	TXT          []byte
	Addr         net.IP

	EOLPTR   time.Time
	EOLSRV   time.Time
	EOLTXT   time.Time
	LastSeen time.Time

	Status Status

	seq uint64
}

// Complete reports whether an entry carries everything required before it
// is eligible for emission: a resolved address, a hostname, a nonzero port,
// and TXT content.
func (s *ServiceEntry) Complete() bool {
	return len(s.Addr) != 0 && !s.Addr.Equal(net.IPv4zero) &&
		s.Hostname != "" && s.Port != 0 && len(s.TXT) > 0
}

// Expired reports whether any record type the entry has actually received
// has aged past its individual TTL. A record type never received leaves
// its EOL field at the zero time and does not count against expiry — only
// information that arrived and then went stale marks the whole composite
// entry stale.
func (s *ServiceEntry) Expired(now time.Time) bool {
	if !s.EOLPTR.IsZero() && s.EOLPTR.Before(now) {
		return true
	}
	if !s.EOLSRV.IsZero() && s.EOLSRV.Before(now) {
		return true
	}
	if !s.EOLTXT.IsZero() && s.EOLTXT.Before(now) {
		return true
	}
	return false
}

// Attr is a single TXT record attribute, parsed at emit time from the raw
// TXT blob.
type Attr struct {
	Name  string
	Value string
}

// Service is the callback-visible snapshot of a ServiceEntry: an owned copy,
// safe to retain after the producing BuildUpdate call returns.
type Service struct {
	Host         net.IP
	InstanceName string
	Hostname     string
	Addr         net.IP
	Port         uint16
	LastSeen     time.Duration
	Expired      bool
	Attrs        []Attr
}
