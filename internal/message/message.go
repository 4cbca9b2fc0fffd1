// Package message defines DNS message wire format structures per RFC 1035.
//
// PRIMARY TECHNICAL AUTHORITY: RFC 1035 (DNS wire format), RFC 6762 (mDNS extensions)
package message

// DNSHeader represents the DNS message header per RFC 1035 §4.1.1.
//
// The header is always 12 bytes and contains metadata about the message.
//
// Wire format (big-endian):
//
//	                                1  1  1  1  1  1
//	  0  1  2  3  4  5  6  7  8  9  0  1  2  3  4  5
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                      ID                       |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|QR|   Opcode  |AA|TC|RD|RA|   Z    |   RCODE   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    QDCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    ANCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    NSCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                    ARCOUNT                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
type DNSHeader struct {
	// ID is the transaction ID (16 bits).
	//
	// RFC 6762 §18.1: Multicast DNS messages MUST use ID = 0 for one-shot
	// multicast queries; every query this engine builds sets it to zero.
	ID uint16

	// Flags contains bit-packed header flags (16 bits).
	//
	// Bit layout per RFC 1035 §4.1.1:
	//   QR (bit 15): 0=query, 1=response
	//   OPCODE (bits 11-14): 0=standard query
	//   AA (bit 10): Authoritative Answer
	//   TC (bit 9): Truncated
	//   RD (bit 8): Recursion Desired
	//   RA (bit 7): Recursion Available
	//   Z (bits 4-6): Reserved (must be zero)
	//   RCODE (bits 0-3): Response Code
	//
	// RFC 6762 §18 requirements for queries:
	//   QR=0, OPCODE=0, AA=0, TC=0, RD=0, Z=0, RCODE=0
	//
	// RFC 6762 §18 requirements for responses:
	//   QR=1, RCODE=0 (non-zero RCODE responses are ignored)
	Flags uint16

	// QDCount is the number of entries in the Question section (16 bits).
	QDCount uint16

	// ANCount is the number of entries in the Answer section (16 bits).
	ANCount uint16

	// NSCount is the number of entries in the Authority section (16 bits).
	//
	// The Authority section is parsed for its count but not decoded.
	NSCount uint16

	// ARCount is the number of entries in the Additional section (16 bits).
	//
	// Additional records are decoded and fed to the correlation engine
	// alongside the Answer section (see DNSMessage.Additionals).
	ARCount uint16
}

// IsQuery returns true if this is a query message (QR bit = 0) per RFC 1035 §4.1.1.
func (h *DNSHeader) IsQuery() bool {
	return (h.Flags & 0x8000) == 0
}

// IsResponse returns true if this is a response message (QR bit = 1) per RFC 1035 §4.1.1.
func (h *DNSHeader) IsResponse() bool {
	return (h.Flags & 0x8000) != 0
}

// GetRCODE extracts the response code from the Flags field per RFC 1035 §4.1.1.
//
// RFC 6762 §18.11: responses with RCODE != 0 MUST be ignored.
func (h *DNSHeader) GetRCODE() uint8 {
	return uint8(h.Flags & 0x000F) //nolint:gosec // bounds checked: mask limits to 0-15
}

// GetOPCODE extracts the operation code from the Flags field per RFC 1035 §4.1.1.
//
// RFC 6762 §18.3: OPCODE MUST be zero on transmission.
func (h *DNSHeader) GetOPCODE() uint8 {
	return uint8((h.Flags >> 11) & 0x0F) //nolint:gosec // bounds checked: mask limits to 0-15
}

// Question represents a DNS question section entry per RFC 1035 §4.1.2.
//
// Wire format:
//
//	                                1  1  1  1  1  1
//	  0  1  2  3  4  5  6  7  8  9  0  1  2  3  4  5
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                                               |
//	/                     QNAME                     /
//	/                                               /
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                     QTYPE                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                     QCLASS                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
type Question struct {
	// QNAME is the domain name being queried (variable length, label-encoded).
	//
	// Example: "printer.local" → 7printer5local0
	QNAME string

	// QTYPE is the query type (16 bits): A (1), PTR (12), SRV (33), TXT (16), ANY (255).
	QTYPE uint16

	// QCLASS is the query class (16 bits).
	//
	// RFC 1035: IN = 1 (Internet class)
	// RFC 6762 §5.4: QU bit (bit 15) is always 0; every query here is multicast.
	QCLASS uint16
}

// Answer represents a DNS answer/authority/additional section entry per RFC 1035 §4.1.3.
//
// Wire format:
//
//	                                1  1  1  1  1  1
//	  0  1  2  3  4  5  6  7  8  9  0  1  2  3  4  5
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                                               |
//	/                                               /
//	/                      NAME                     /
//	|                                               |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                      TYPE                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                     CLASS                     |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                      TTL                      |
//	|                                               |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|                   RDLENGTH                    |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--|
//	/                     RDATA                     /
//	/                                               /
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
type Answer struct {
	// NAME is the domain name this record refers to (variable length, can be compressed).
	//
	// RFC 1035 §4.1.4: names can use compression pointers (high 2 bits = 11).
	NAME string

	// TYPE is the resource record type (16 bits).
	TYPE uint16

	// CLASS is the resource record class (16 bits).
	//
	// RFC 1035: IN = 1 (Internet class)
	// RFC 6762 §10.2: the cache-flush bit (bit 15) may be set in responses;
	// it is ignored here since caching has no persistent replace-on-flush model.
	CLASS uint16

	// TTL is the time-to-live in seconds (32 bits), per RFC 1035. Used to
	// compute record expiry in the correlation engine.
	TTL uint32

	// RDLENGTH is the length of RDATA in bytes (16 bits). Validated against
	// the actual RDATA length while parsing.
	RDLENGTH uint16

	// RDATAOffset is the absolute byte offset of RDATA within the original
	// message buffer. A name embedded in RDATA (PTR, SRV target) may carry a
	// compression pointer referring anywhere in that buffer, so decompressing
	// it correctly requires the full message and this offset, not the RDATA
	// slice in isolation. See ParseRDATAAt.
	RDATAOffset int

	// RDATA is the type-specific resource data (variable length, RDLENGTH bytes).
	//
	// Format depends on TYPE:
	//   A (1):    4 bytes (IPv4 address)
	//   PTR (12): domain name (label-encoded, can be compressed)
	//   SRV (33): 2 bytes priority + 2 bytes weight + 2 bytes port + domain name
	//   TXT (16): text strings (length-prefixed strings)
	RDATA []byte
}

// DNSMessage represents a complete DNS message per RFC 1035 §4.1.
//
// The message consists of a header and up to four sections: Question, Answer,
// Authority, and Additional.
type DNSMessage struct {
	// Header is the DNS message header (12 bytes, always present).
	Header DNSHeader

	// Questions is the question section (variable length, QDCount entries).
	//
	// Every query built by this engine carries exactly one question.
	Questions []Question

	// Answers is the answer section (variable length, ANCount entries).
	Answers []Answer

	// Authorities is the authority section (variable length, NSCount entries).
	//
	// Parsed for count only; not decoded into the correlation engine.
	Authorities []Answer

	// Additionals is the additional section (variable length, ARCount entries).
	//
	// Fed to the correlation engine alongside Answers: many mDNS responders
	// place SRV/TXT/A records supporting a PTR answer here rather than in
	// the answer section proper.
	Additionals []Answer
}
