// Package protocol implements mDNS protocol validation and constants.
package protocol

import (
	"fmt"
	"strings"

	"github.com/netbeacon/beacon/internal/errors"
)

// ValidateName validates a DNS name per RFC 1035 §3.1.
//
// Rules:
//   - Presentation-format length: ≤253 bytes
//   - Wire format length: ≤255 bytes
//   - Label length: ≤63 bytes
//   - Valid characters: [a-zA-Z0-9-_] (underscore allowed for mDNS service names)
//   - Labels MUST NOT start or end with hyphen
//   - Empty labels are invalid (no consecutive dots)
func ValidateName(name string) error {
	if name == "" {
		return &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: "name cannot be empty",
		}
	}

	canonical := strings.TrimSuffix(name, ".")

	if len(canonical) > MaxHostnameLength {
		return &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("name exceeds maximum hostname length %d bytes per RFC 1035 §3.1", MaxHostnameLength),
		}
	}

	labels := strings.Split(canonical, ".")

	// Wire format: each label has a 1-byte length prefix, plus a 1-byte terminator.
	wireLength := 1
	for _, label := range labels {
		wireLength += 1 + len(label)
	}

	if wireLength > MaxWireNameLength {
		return &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("name exceeds maximum wire length %d bytes (wire format: %d bytes) per RFC 1035 §3.1", MaxWireNameLength, wireLength),
		}
	}

	for i, label := range labels {
		if err := validateLabel(label, i); err != nil {
			return &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: err.Error(),
			}
		}
	}

	return nil
}

// ValidateServiceType validates that name is a DNS-SD service type: a valid
// DNS name whose first label begins with an underscore (RFC 6763 §4.1.2,
// e.g. "_http._tcp.local").
func ValidateServiceType(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	canonical := strings.TrimSuffix(name, ".")
	firstLabel, _, _ := strings.Cut(canonical, ".")
	if !strings.HasPrefix(firstLabel, "_") {
		return &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: "service type must begin with an underscore label per RFC 6763 §4.1.2",
		}
	}

	return nil
}

// validateLabel validates a single DNS label per RFC 1035 §3.1.
func validateLabel(label string, position int) error {
	if label == "" {
		return fmt.Errorf("empty label at position %d (consecutive dots)", position)
	}

	if len(label) > MaxLabelLength {
		return fmt.Errorf("label %q exceeds maximum length %d bytes per RFC 1035 §3.1", label, MaxLabelLength)
	}

	if strings.HasPrefix(label, "-") {
		return fmt.Errorf("label %q starts with hyphen (invalid per RFC 1035 §3.1)", label)
	}

	if strings.HasSuffix(label, "-") {
		return fmt.Errorf("label %q ends with hyphen (invalid per RFC 1035 §3.1)", label)
	}

	for i, ch := range label {
		if !isValidDNSChar(ch) {
			return fmt.Errorf("invalid character %q in label %q (position %d)", ch, label, i)
		}
	}

	return nil
}

// isValidDNSChar reports whether ch is valid in a DNS label: [a-zA-Z0-9-_].
// Underscore is not part of RFC 1035 but is required for mDNS service names
// (e.g. "_http._tcp.local").
func isValidDNSChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' ||
		ch == '_'
}

// ValidateRecordType validates that recordType is one the discovery engine supports.
func ValidateRecordType(recordType uint16) error {
	if !RecordType(recordType).IsSupported() {
		return &errors.ValidationError{
			Field:   "recordType",
			Value:   recordType,
			Message: fmt.Sprintf("unsupported record type %d (supports A=1, PTR=12, TXT=16, SRV=33, ANY=255)", recordType),
		}
	}
	return nil
}

// ValidateResponse validates a parsed DNS header against response
// requirements per RFC 6762 §18. isResponse, opcode, and rcode are the
// decoded values of a message's QR bit, OPCODE, and RCODE fields (see
// DNSHeader.IsResponse/GetOPCODE/GetRCODE).
//
//	§18.2:  QR bit MUST be 1 in responses
//	§18.3:  OPCODE MUST be 0 (standard query)
//	§18.11: messages with a non-zero RCODE MUST be silently ignored
func ValidateResponse(isResponse bool, opcode, rcode uint8) error {
	if !isResponse {
		return &errors.ValidationError{
			Field:   "flags",
			Value:   isResponse,
			Message: "QR bit is 0, expected 1 per RFC 6762 §18.2",
		}
	}

	if opcode != uint8(OpcodeQuery) {
		return &errors.ValidationError{
			Field:   "flags",
			Value:   opcode,
			Message: fmt.Sprintf("OPCODE is %d, expected %d per RFC 6762 §18.3", opcode, OpcodeQuery),
		}
	}

	if rcode != uint8(RCodeNoError) {
		return &errors.ValidationError{
			Field:   "flags",
			Value:   rcode,
			Message: fmt.Sprintf("RCODE is %d, expected %d per RFC 6762 §18.11", rcode, RCodeNoError),
		}
	}

	return nil
}
