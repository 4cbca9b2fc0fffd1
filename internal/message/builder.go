// Package message implements DNS message construction per RFC 6762.
package message

import (
	"encoding/binary"

	"github.com/netbeacon/beacon/internal/errors"
	"github.com/netbeacon/beacon/internal/protocol"
)

// BuildQuery constructs an mDNS query message per RFC 6762 §18.
//
// The query message consists of:
//   - Header: 12 bytes with flags set per RFC 6762 §18
//   - Question section: QNAME (variable), QTYPE (2 bytes), QCLASS (2 bytes)
//
// RFC 6762 §18 Query Requirements:
//
//	§18.1: transaction ID MUST be zero
//	§18.2: QR bit MUST be zero (query)
//	§18.3: OPCODE MUST be zero (standard query)
//	§18.4: AA bit MUST be zero
//	§18.5: TC bit clear (no Known-Answer suppression records are sent)
//	§18.6: RD bit MUST be zero
//
// Parameters:
//   - name: The DNS name to query (e.g., "printer.local")
//   - recordType: The DNS record type (A=1, PTR=12, TXT=16, SRV=33, ANY=255)
//
// Returns:
//   - query: The wire format DNS query message
//   - error: ValidationError if name or recordType is invalid
func BuildQuery(name string, recordType uint16) ([]byte, error) {
	if !protocol.RecordType(recordType).IsSupported() {
		return nil, &errors.ValidationError{
			Field:   "recordType",
			Value:   recordType,
			Message: "unsupported record type (supports A, PTR, SRV, TXT, ANY)",
		}
	}

	encodedName, err := EncodeName(name)
	if err != nil {
		return nil, err // EncodeName already returns ValidationError
	}

	header := buildQueryHeader()
	question := buildQuestionSection(encodedName, recordType)

	query := append(header, question...)

	return query, nil
}

// buildQueryHeader constructs a DNS header for an mDNS query per RFC 6762 §18.
//
// Header format (12 bytes):
//   - ID (2 bytes): Transaction ID
//   - Flags (2 bytes): QR, OPCODE, AA, TC, RD, RA, Z, RCODE
//   - QDCOUNT (2 bytes): Number of questions (always 1)
//   - ANCOUNT (2 bytes): Number of answers (always 0 for queries)
//   - NSCOUNT (2 bytes): Number of authority records (always 0 for queries)
//   - ARCOUNT (2 bytes): Number of additional records (always 0 for queries)
func buildQueryHeader() []byte {
	header := make([]byte, 12)

	// ID: RFC 6762 §18.1 requires 0 for one-shot multicast queries.
	binary.BigEndian.PutUint16(header[0:2], 0)

	// Flags: QR=0 (§18.2), OPCODE=0 (§18.3), AA=0 (§18.4), TC=0 (§18.5), RD=0 (§18.6)
	flags := uint16(0x0000)
	binary.BigEndian.PutUint16(header[2:4], flags)

	binary.BigEndian.PutUint16(header[4:6], 1) // QDCOUNT
	binary.BigEndian.PutUint16(header[6:8], 0) // ANCOUNT
	binary.BigEndian.PutUint16(header[8:10], 0) // NSCOUNT
	binary.BigEndian.PutUint16(header[10:12], 0) // ARCOUNT

	return header
}

// buildQuestionSection constructs a DNS question section per RFC 1035 §4.1.2.
//
// Question format:
//   - QNAME (variable): Encoded domain name (length-prefixed labels)
//   - QTYPE (2 bytes): Query type (A, PTR, SRV, TXT, ANY)
//   - QCLASS (2 bytes): Query class (IN=1, QU bit=0 for multicast)
func buildQuestionSection(encodedName []byte, recordType uint16) []byte {
	question := make([]byte, 0, len(encodedName)+4)

	question = append(question, encodedName...)

	qtype := make([]byte, 2)
	binary.BigEndian.PutUint16(qtype, recordType)
	question = append(question, qtype...)

	// QCLASS: IN (1) with QU bit=0 per RFC 6762 §5.4 (every query is multicast)
	qclass := make([]byte, 2)
	binary.BigEndian.PutUint16(qclass, uint16(protocol.ClassIN))
	question = append(question, qclass...)

	return question
}
