package config

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
)

// Names of generation 3 archives and texture packs.
var ShiftJIS encoding.Encoding = japanese.ShiftJIS

// Names of generation 4 archives with the unicode flag.
var UTF16LE encoding.Encoding = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
var UTF16BE encoding.Encoding = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func UTF16(bigEndian bool) encoding.Encoding {
	if bigEndian {
		return UTF16BE
	}
	return UTF16LE
}
