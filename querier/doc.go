// Package querier provides a high-level API for mDNS (.local) service
// discovery.
//
// # Overview
//
// The querier package implements Multicast DNS (mDNS) per RFC 6762 and
// DNS-Based Service Discovery per RFC 6763: given a service type such as
// "_http._tcp.local", it issues PTR queries on the multicast group, parses
// the responses, correlates PTR/SRV/TXT/A records into complete service
// descriptions, and delivers them to a caller-supplied callback as they
// become available, change, or age out.
//
// Unlike a one-shot resolver, a query started with Query runs a persistent
// loop on the calling goroutine: it periodically re-issues the query,
// expires stale entries on their own TTL, and keeps running until its
// runtime budget elapses, the caller issues Control(h, ControlSuspend), or
// the callback itself asks to stop.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//	    "net"
//	    "time"
//
//	    "github.com/netbeacon/beacon/internal/network"
//	    "github.com/netbeacon/beacon/querier"
//	)
//
//	func main() {
//	    ifaces, err := network.DefaultInterfaces()
//	    if err != nil || len(ifaces) == 0 {
//	        log.Fatal("no usable multicast interface found")
//	    }
//	    addrs, err := ifaces[0].Addrs()
//	    if err != nil || len(addrs) == 0 {
//	        log.Fatal("interface has no address")
//	    }
//	    ifaceAddr := addrs[0].(*net.IPNet).IP
//
//	    h, err := querier.Init(false, ifaceAddr)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer querier.Close(h)
//
//	    callback := func(services []querier.Service, cookie any, stop *bool) bool {
//	        for _, svc := range services {
//	            if svc.Expired {
//	                fmt.Printf("expired: %s\n", svc.InstanceName)
//	                continue
//	            }
//	            fmt.Printf("found: %s at %s:%d\n", svc.InstanceName, svc.Addr, svc.Port)
//	        }
//	        return false // caller doesn't need to retain services
//	    }
//
//	    err = querier.Query(h, "_http._tcp.local", 0, 30*time.Second, callback, nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Interface Selection
//
// Init binds to exactly one interface, identified by its IPv4 address. This
// package does not choose that interface for the caller: enumerate
// candidates with internal/network.DefaultInterfaces, or net.Interfaces
// directly, and pass the chosen address in.
//
// # Callback Semantics
//
// The callback receives a delta, not a full snapshot: only services that
// newly completed, changed, or expired since the last delivery are
// included. Its bool return value controls ownership of the slice: false
// (typical) means the engine may reuse the underlying storage; true means
// the caller intends to retain it past the callback's return, though since
// this is Go and not the C library this API mirrors, retaining a slice
// reference is always safe regardless of the return value — the return
// exists for API parity with FreeList, which is consequently a no-op here.
// Setting *stop to true ends the Query call after the callback returns.
//
// # TTL Cap
//
// ttlCap, when non-zero, overrides every record's advertised TTL with
// min(ttlCap, advertised). This is useful for discovering rapidly changing
// environments where the default RFC 6762 §10 TTLs (120s for service
// records, 4500s for address records) are too conservative.
//
// # Runtime Budget
//
// runtime, when non-zero, bounds how long Query runs before returning nil.
// A runtime of 0 means Query runs until explicitly stopped via Control or
// the callback's stop flag.
//
// # Error Handling
//
// Query returns a ValidationError immediately, without touching the
// socket, if serviceType is malformed. A NetworkError on send during the
// periodic re-query is logged (when debug is set) but not fatal; a
// NetworkError on receive is fatal and ends the loop. Malformed inbound
// messages produce a WireFormatError that is logged and skipped; the loop
// continues.
//
// # Concurrency
//
// Exactly one Query call should be in flight per Handle at a time; it owns
// the receive loop and runs entirely on the calling goroutine, invoking
// callback synchronously from that same goroutine. Control and Close may
// be called from any other goroutine at any time, including while Query is
// running.
//
// # RFC Compliance
//
// This implementation follows:
//   - RFC 6762: Multicast DNS
//   - RFC 6763: DNS-Based Service Discovery
//   - RFC 1035: Domain Names - Implementation and Specification
//   - RFC 2782: A DNS RR for specifying the location of services (DNS SRV)
//
// # Limitations
//
//   - IPv4 only (no IPv6/AAAA records)
//   - Query-only (no mDNS responder functionality)
//   - No Known-Answer suppression (RFC 6762 §7.1)
//   - A records are correlated by hostname alone; two responders
//     advertising the same hostname with different addresses will
//     last-writer-win
package querier
