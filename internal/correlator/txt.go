package correlator

import "strings"

// ParseTXT decodes a wire-format TXT blob into attributes: a sequence of
// <len><len bytes> chunks, each either "key" or "key=value". Only the first
// '=' separates key from value; a value may itself contain further '='.
func ParseTXT(blob []byte) []Attr {
	var attrs []Attr

	for i := 0; i < len(blob); {
		n := int(blob[i])
		i++
		if i+n > len(blob) {
			break
		}
		chunk := string(blob[i : i+n])
		i += n

		if chunk == "" {
			continue
		}

		if idx := strings.IndexByte(chunk, '='); idx >= 0 {
			attrs = append(attrs, Attr{Name: chunk[:idx], Value: chunk[idx+1:]})
		} else {
			attrs = append(attrs, Attr{Name: chunk})
		}
	}

	return attrs
}
