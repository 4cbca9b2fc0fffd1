// Package message implements DNS name encoding and compression per RFC 1035 §4.1.4.
package message

import (
	"fmt"
	"strings"

	"github.com/netbeacon/beacon/internal/errors"
	"github.com/netbeacon/beacon/internal/protocol"
)

// ParseName parses a DNS name from a message buffer, handling compression pointers
// per RFC 1035 §4.1.4.
//
// DNS names are encoded as a sequence of labels. Each label is prefixed by a length byte.
// A zero-length label (0x00) terminates the name.
//
// RFC 1035 §4.1.4 defines message compression: labels can be replaced by a pointer
// to a prior occurrence of the same name. A pointer is indicated by the two high-order
// bits being set (0xC0), followed by a 14-bit offset. The offset may point anywhere
// in the message, forward or backward; this function bounds the number of jumps
// followed rather than rejecting forward pointers, so it cannot be looped forever
// by a hostile or malformed message.
//
// This function detects compression loops by limiting the number of pointer jumps
// to protocol.MaxCompressionPointers.
//
// Parameters:
//   - msg: The complete DNS message buffer (needed for following compression pointers)
//   - offset: The starting offset of the name in the buffer
//
// Returns:
//   - name: The decompressed DNS name (e.g., "printer.local")
//   - newOffset: The offset immediately after the name (for parsing subsequent fields)
//   - error: WireFormatError if the name is malformed
func ParseName(msg []byte, offset int) (name string, newOffset int, err error) {
	if offset < 0 || offset >= len(msg) {
		return "", offset, &errors.WireFormatError{
			Operation: "parse name",
			Offset:    offset,
			Message:   "offset out of bounds",
		}
	}

	var labels []string
	jumps := 0
	pos := offset
	jumped := false

	for {
		if pos >= len(msg) {
			return "", offset, &errors.WireFormatError{
				Operation: "parse name",
				Offset:    pos,
				Message:   "unexpected end of message while parsing name",
			}
		}

		length := msg[pos]

		// Check for compression pointer per RFC 1035 §4.1.4
		if (length & protocol.CompressionMask) == protocol.CompressionMask {
			if pos+1 >= len(msg) {
				return "", offset, &errors.WireFormatError{
					Operation: "parse name",
					Offset:    pos,
					Message:   "truncated compression pointer",
				}
			}

			// Extract 14-bit offset: combine two bytes and mask out high 2 bits
			pointerOffset := int(msg[pos]&0x3F)<<8 | int(msg[pos+1])

			if pointerOffset < 0 || pointerOffset >= len(msg) {
				return "", offset, &errors.WireFormatError{
					Operation: "parse name",
					Offset:    pos,
					Message:   fmt.Sprintf("compression pointer targets offset %d outside message bounds", pointerOffset),
				}
			}

			// Update newOffset only on first jump (subsequent jumps don't affect wire position)
			if !jumped {
				newOffset = pos + 2
				jumped = true
			}

			pos = pointerOffset

			jumps++
			if jumps > protocol.MaxCompressionPointers {
				return "", offset, &errors.WireFormatError{
					Operation: "parse name",
					Offset:    pos,
					Message:   fmt.Sprintf("too many compression jumps (possible loop, exceeded %d jumps)", protocol.MaxCompressionPointers),
				}
			}

			continue
		}

		// Check for terminator (zero-length label)
		if length == 0 {
			if !jumped {
				newOffset = pos + 1
			}
			break
		}

		if length > protocol.MaxLabelLength {
			return "", offset, &errors.WireFormatError{
				Operation: "parse name",
				Offset:    pos,
				Message:   fmt.Sprintf("label length %d exceeds maximum %d bytes per RFC 1035 §3.1", length, protocol.MaxLabelLength),
			}
		}

		if pos+1+int(length) > len(msg) {
			return "", offset, &errors.WireFormatError{
				Operation: "parse name",
				Offset:    pos,
				Message:   fmt.Sprintf("truncated label: expected %d bytes, only %d available", length, len(msg)-pos-1),
			}
		}

		label := string(msg[pos+1 : pos+1+int(length)])
		labels = append(labels, label)

		pos += 1 + int(length)
	}

	name = strings.Join(labels, ".")

	// Wire format length includes length bytes, so reconstruct it instead of
	// reusing the presentation-format name length.
	wireLength := 1
	for _, label := range labels {
		wireLength += 1 + len(label)
	}

	if wireLength > protocol.MaxWireNameLength {
		return "", offset, &errors.WireFormatError{
			Operation: "parse name",
			Offset:    offset,
			Message:   fmt.Sprintf("decompressed name wire length %d exceeds maximum %d bytes per RFC 1035 §3.1", wireLength, protocol.MaxWireNameLength),
		}
	}

	return name, newOffset, nil
}

// EncodeName encodes a DNS name into wire format per RFC 1035 §3.1.
//
// The name is split into labels (separated by dots), and each label is prefixed
// by its length byte. A zero-length label (0x00) terminates the name.
//
// Compression is not emitted on encode: every query built by this engine
// carries a single question, so there is no prior name occurrence to point
// back to.
//
// Parameters:
//   - name: The DNS name to encode (e.g., "printer.local")
//
// Returns:
//   - encoded: The wire format representation
//   - error: ValidationError if the name is invalid
func EncodeName(name string) ([]byte, error) {
	// Handle empty name (root ".")
	if name == "" || name == "." {
		return []byte{0}, nil
	}

	labels := strings.Split(name, ".")

	// Remove trailing empty label if name ends with "."
	if len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}

	encoded := make([]byte, 0, 256) // typical DNS name fits well under 255 bytes
	for _, label := range labels {
		if len(label) == 0 {
			return nil, &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: "empty label (consecutive dots)",
			}
		}

		if len(label) > protocol.MaxLabelLength {
			return nil, &errors.ValidationError{
				Field:   "name",
				Value:   name,
				Message: fmt.Sprintf("label %q exceeds maximum length %d bytes per RFC 1035 §3.1", label, protocol.MaxLabelLength),
			}
		}

		for i, ch := range label {
			valid := (ch >= 'a' && ch <= 'z') ||
				(ch >= 'A' && ch <= 'Z') ||
				(ch >= '0' && ch <= '9') ||
				ch == '-' ||
				ch == '_' // underscore allowed for service names (e.g., "_http._tcp.local")

			if !valid {
				return nil, &errors.ValidationError{
					Field:   "name",
					Value:   name,
					Message: fmt.Sprintf("invalid character %q in label %q (position %d)", ch, label, i),
				}
			}

			if ch == '-' && (i == 0 || i == len(label)-1) {
				return nil, &errors.ValidationError{
					Field:   "name",
					Value:   name,
					Message: fmt.Sprintf("hyphen cannot be first or last character in label %q", label),
				}
			}
		}

		encoded = append(encoded, byte(len(label)))
		encoded = append(encoded, []byte(label)...)
	}

	encoded = append(encoded, 0)

	if len(encoded) > protocol.MaxWireNameLength {
		return nil, &errors.ValidationError{
			Field:   "name",
			Value:   name,
			Message: fmt.Sprintf("encoded name length %d exceeds maximum %d bytes per RFC 1035 §3.1", len(encoded), protocol.MaxWireNameLength),
		}
	}

	return encoded, nil
}
