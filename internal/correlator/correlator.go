package correlator

import (
	"net"
	"strings"
	"time"
)

// Context holds the live association state for one active query: the set
// of known addresses and the set of known service instances.
type Context struct {
	Query  string
	TTLCap time.Duration

	addrs map[string]*AddrEntry

	services    map[string]*ServiceEntry
	serviceKeys []string // insertion order, for reverse-arrival emission
	seq         uint64
}

// NewContext creates a correlation context for a freshly issued query.
func NewContext(query string, ttlCap time.Duration) *Context {
	return &Context{
		Query:    query,
		TTLCap:   ttlCap,
		addrs:    make(map[string]*AddrEntry),
		services: make(map[string]*ServiceEntry),
	}
}

func serviceKey(host net.IP, instanceName string) string {
	return host.String() + "|" + instanceName
}

// IngestA processes an A record, updating or creating the AddrEntry for its
// hostname. The record's hostname convention (plain "host.local") does not
// follow the "<instance>.<query>" shape SRV/TXT owner names do, so unlike
// those two, A is not filtered against the active query here — correlation
// happens later, in BuildUpdate, by matching a ServiceEntry's Hostname
// against this map.
func (c *Context) IngestA(hostname string, addr net.IP, ttl uint32, now time.Time) {
	eff := EffectiveTTL(c.TTLCap, time.Duration(ttl)*time.Second)

	entry, ok := c.addrs[hostname]
	if !ok {
		if ttl == 0 {
			return
		}
		entry = &AddrEntry{Hostname: hostname}
		c.addrs[hostname] = entry
	}
	if addr != nil && !addr.Equal(net.IPv4zero) {
		entry.Addr = addr
	}
	entry.Expiry = now.Add(eff)
}

// IngestPTR processes a PTR record whose owner name must equal the active
// query exactly. instanceName is the decompressed rdata target, which
// becomes the identity the later SRV/TXT records key against.
func (c *Context) IngestPTR(name string, host net.IP, instanceName string, ttl uint32, now time.Time) {
	if name != c.Query {
		return
	}

	key := serviceKey(host, instanceName)
	eff := EffectiveTTL(c.TTLCap, time.Duration(ttl)*time.Second)

	if entry, ok := c.services[key]; ok {
		entry.EOLPTR = now.Add(eff)
		if ttl > 0 {
			entry.LastSeen = now
		}
		return
	}

	if ttl == 0 {
		return
	}

	c.seq++
	entry := &ServiceEntry{
		Host:         host,
		InstanceName: instanceName,
		EOLPTR:       now.Add(eff),
		LastSeen:     now,
		seq:          c.seq,
	}
	c.services[key] = entry
	c.serviceKeys = append(c.serviceKeys, key)
}

// IngestSRV processes an SRV record whose owner name must contain the
// active query as a substring (the "<instance>.<query>" shape).
func (c *Context) IngestSRV(name string, host net.IP, hostname string, port uint16, ttl uint32, now time.Time) {
	if !strings.Contains(name, c.Query) {
		return
	}

	entry, _ := c.getOrCreate(name, host, ttl)
	if entry == nil {
		return
	}

	if entry.Port != 0 && entry.Port != port {
		entry.Status = StatusUpdated
	}
	entry.Port = port

	if entry.Hostname != "" && entry.Hostname != hostname {
		entry.Status = StatusUpdated
	}
	entry.Hostname = hostname

	eff := EffectiveTTL(c.TTLCap, time.Duration(ttl)*time.Second)
	entry.EOLSRV = now.Add(eff)
	if ttl > 0 {
		entry.LastSeen = now
	}
}

// IngestTXT processes a TXT record whose owner name must contain the
// active query as a substring (the "<instance>.<query>" shape).
func (c *Context) IngestTXT(name string, host net.IP, txt []byte, ttl uint32, now time.Time) {
	if !strings.Contains(name, c.Query) {
		return
	}

	entry, created := c.getOrCreate(name, host, ttl)
	if entry == nil {
		return
	}

	if !created && (len(entry.TXT) != len(txt) || string(entry.TXT) != string(txt)) {
		entry.Status = StatusUpdated
	}
	entry.TXT = append([]byte(nil), txt...)

	eff := EffectiveTTL(c.TTLCap, time.Duration(ttl)*time.Second)
	entry.EOLTXT = now.Add(eff)
	if ttl > 0 {
		entry.LastSeen = now
	}
}

// getOrCreate returns the ServiceEntry for (host, name), creating one if
// ttl > 0 and none exists yet. Returns nil, false if no entry exists and
// ttl is zero (a zero-TTL record for an unknown instance is a no-op, per
// the PTR/SRV/TXT creation rule).
func (c *Context) getOrCreate(name string, host net.IP, ttl uint32) (*ServiceEntry, bool) {
	key := serviceKey(host, name)

	if entry, ok := c.services[key]; ok {
		return entry, false
	}

	if ttl == 0 {
		return nil, false
	}

	c.seq++
	entry := &ServiceEntry{
		Host:         host,
		InstanceName: name,
		seq:          c.seq,
	}
	c.services[key] = entry
	c.serviceKeys = append(c.serviceKeys, key)
	return entry, true
}

// BuildUpdate walks both association lists, resolves addresses, ages and
// prunes expired entries, and returns a delta snapshot.
//
// When build is false, no snapshots are constructed — callers pass this
// when no consumer can observe the delta (e.g. no callback was provided to
// Query) — but entries are still aged and pruned exactly as when build is
// true.
//
// Emission order is reverse arrival order of the service instances, and
// within a single entry that is both Updated and Expired, the Updated
// snapshot always precedes the Expired one.
func (c *Context) BuildUpdate(build bool, now time.Time) []Service {
	for hostname, a := range c.addrs {
		if a.Expiry.Before(now) {
			delete(c.addrs, hostname)
		}
	}

	var delta []Service
	var remaining []string

	for i := len(c.serviceKeys) - 1; i >= 0; i-- {
		key := c.serviceKeys[i]
		entry, ok := c.services[key]
		if !ok {
			continue
		}

		if addr, ok := c.addrs[entry.Hostname]; ok && entry.Hostname != "" {
			if !entry.Addr.Equal(addr.Addr) {
				entry.Status = StatusUpdated
			}
			entry.Addr = addr.Addr
		}

		complete := entry.Complete()
		expired := entry.Expired(now)

		if build && complete && entry.Status != StatusCurrent {
			delta = append(delta, snapshot(entry, now, false))
			entry.Status = StatusCurrent
		}

		if build && expired && complete {
			delta = append(delta, snapshot(entry, now, true))
		}

		if expired {
			delete(c.services, key)
			continue
		}

		remaining = append(remaining, key)
	}

	for i, j := 0, len(remaining)-1; i < j; i, j = i+1, j-1 {
		remaining[i], remaining[j] = remaining[j], remaining[i]
	}
	c.serviceKeys = remaining

	return delta
}

// GetList returns a snapshot of every currently complete service instance
// without mutating status or removing anything.
//
// Unlike BuildUpdate, GetList does not join against the address list: an
// entry whose address has not yet been copied onto it by a prior
// BuildUpdate pass is not complete, and GetList omits it.
func (c *Context) GetList(now time.Time) []Service {
	var list []Service
	for _, key := range c.serviceKeys {
		entry, ok := c.services[key]
		if !ok || !entry.Complete() {
			continue
		}
		list = append(list, snapshot(entry, now, false))
	}
	return list
}

func snapshot(entry *ServiceEntry, now time.Time, expired bool) Service {
	return Service{
		Host:         entry.Host,
		InstanceName: entry.InstanceName,
		Hostname:     entry.Hostname,
		Addr:         entry.Addr,
		Port:         entry.Port,
		LastSeen:     now.Sub(entry.LastSeen),
		Expired:      expired,
		Attrs:        ParseTXT(entry.TXT),
	}
}
