package utils

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// BytesToString decodes a zero terminated string using enc.
// Undecodable input falls back to the raw bytes.
func BytesToString(bs []byte, enc encoding.Encoding) string {
	n := BytesStringLength(bs)
	if enc == nil {
		return string(bs[:n])
	}
	s, _, err := transform.Bytes(enc.NewDecoder(), bs[:n])
	if err != nil {
		return string(bs[:n])
	}
	return string(s)
}

func BytesStringLength(bs []byte) int {
	if l := bytes.IndexByte(bs, 0); l == -1 {
		return len(bs)
	} else {
		return l
	}
}

// ReadUTF16String reads a zero terminated UTF-16 string starting at off.
func ReadUTF16String(b []byte, off int, o binary.ByteOrder) string {
	units := make([]uint16, 0, 32)
	for i := off; i+1 < len(b); i += 2 {
		u := o.Uint16(b[i:])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

// StringAt reads a zero terminated string at off, either UTF-16 or
// single/multi-byte decoded with enc.
func StringAt(b []byte, off int64, unicode bool, o binary.ByteOrder, enc encoding.Encoding) string {
	if off < 0 || off >= int64(len(b)) {
		return ""
	}
	if unicode {
		return ReadUTF16String(b, int(off), o)
	}
	return BytesToString(b[off:], enc)
}
