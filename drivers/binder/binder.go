// Package binder holds the pieces shared by generation 3 and 4 archives
// and their split header/data variants.
package binder

import (
	"encoding/binary"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/config"
	"github.com/mogaika/mass_convert/drivers/dcx"
	"github.com/mogaika/mass_convert/utils"
)

type Format uint8

const (
	FORMAT_BIG_ENDIAN   Format = 0x01
	FORMAT_IDS          Format = 0x02
	FORMAT_NAMES1       Format = 0x04
	FORMAT_NAMES2       Format = 0x08
	FORMAT_LONG_OFFSETS Format = 0x10
	FORMAT_COMPRESSION  Format = 0x20
)

const FILE_FLAG_COMPRESSED = 0x01

func (f Format) BigEndian() bool   { return f&FORMAT_BIG_ENDIAN != 0 }
func (f Format) IDs() bool         { return f&FORMAT_IDS != 0 }
func (f Format) Names() bool       { return f&(FORMAT_NAMES1|FORMAT_NAMES2) != 0 }
func (f Format) LongOffsets() bool { return f&FORMAT_LONG_OFFSETS != 0 }
func (f Format) Compression() bool { return f&FORMAT_COMPRESSION != 0 }

// ReadFormat decodes the raw format byte, which is stored bit reversed
// unless the archive says otherwise.
func ReadFormat(raw byte, bitBigEndian bool) Format {
	reverse := bitBigEndian || (raw&1 != 0 && raw&0x80 == 0)
	if reverse {
		return Format(raw)
	}
	return Format(bits.Reverse8(raw))
}

// WriteFormat is the inverse of ReadFormat for little bit order.
func WriteFormat(f Format) byte {
	return bits.Reverse8(byte(f))
}

func readFileFlags(raw byte, bitBigEndian bool, f Format) uint8 {
	if bitBigEndian || f.BigEndian() {
		return raw
	}
	return bits.Reverse8(raw)
}

func WriteFileFlags(flags uint8) byte {
	return bits.Reverse8(flags)
}

// File is one archive entry with its payload already cut out.
type File struct {
	Name  string
	ID    int32
	Flags uint8
	Data  []byte
}

type Binder struct {
	Magic        string
	Version      string
	Format       Format
	BigEndian    bool
	BitBigEndian bool
	Unicode      bool
	Files        []File
}

type fileHeader struct {
	flags            uint8
	compressedSize   int64
	uncompressedSize int64
	dataOffset       int64
	id               int32
	nameOffset       int64
}

// ByteOrder returns the order used for integers of the archive.
func ByteOrder(bigEndian bool) binary.ByteOrder {
	if bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func FileHeaderSize3(f Format) int {
	size := 4 + 4 + 4
	if f.LongOffsets() {
		size += 4
	}
	if f.IDs() {
		size += 4
	}
	if f.Names() {
		size += 4
	}
	if f.Compression() {
		size += 4
	}
	return size
}

func readFileHeader3(br *utils.BinReader, bitBigEndian bool, f Format) fileHeader {
	var fh fileHeader
	fh.flags = readFileFlags(br.ReadByte(), bitBigEndian, f)
	br.Skip(3)
	fh.compressedSize = int64(br.ReadI32())
	if f.LongOffsets() {
		fh.dataOffset = br.ReadI64()
	} else {
		fh.dataOffset = int64(br.ReadU32())
	}
	fh.id = -1
	if f.IDs() {
		fh.id = br.ReadI32()
	}
	fh.nameOffset = -1
	if f.Names() {
		fh.nameOffset = int64(br.ReadU32())
	}
	fh.uncompressedSize = -1
	if f.Compression() {
		fh.uncompressedSize = int64(br.ReadI32())
	}
	return fh
}

func readFileHeader4(br *utils.BinReader, bitBigEndian bool, f Format) fileHeader {
	var fh fileHeader
	fh.flags = readFileFlags(br.ReadByte(), bitBigEndian, f)
	br.Skip(3)
	br.Skip(4) // -1
	fh.compressedSize = br.ReadI64()
	fh.uncompressedSize = -1
	if f.Compression() {
		fh.uncompressedSize = br.ReadI64()
	}
	if f.LongOffsets() {
		fh.dataOffset = br.ReadI64()
	} else {
		fh.dataOffset = int64(br.ReadU32())
	}
	fh.id = -1
	if f.IDs() {
		fh.id = br.ReadI32()
	}
	fh.nameOffset = -1
	if f.Names() {
		fh.nameOffset = int64(br.ReadU32())
	}
	return fh
}

// ReadFiles3 parses count generation 3 headers at br's position. Names are
// read from names, payloads from data.
func ReadFiles3(br *utils.BinReader, count int, bitBigEndian bool, f Format, names, data []byte) ([]File, error) {
	headers := make([]fileHeader, count)
	for i := range headers {
		headers[i] = readFileHeader3(br, bitBigEndian, f)
	}
	if err := br.Err(); err != nil {
		return nil, errors.Wrapf(err, "File headers")
	}
	return cutFiles(headers, false, br.Order(), names, data)
}

// ReadFiles4 parses count generation 4 headers, each headerSize bytes,
// starting at br's position.
func ReadFiles4(br *utils.BinReader, count int, headerSize int, bitBigEndian bool, unicode bool, f Format, names, data []byte) ([]File, error) {
	start := br.Pos()
	headers := make([]fileHeader, count)
	for i := range headers {
		br.Seek(start + i*headerSize)
		headers[i] = readFileHeader4(br, bitBigEndian, f)
	}
	if err := br.Err(); err != nil {
		return nil, errors.Wrapf(err, "File headers")
	}
	return cutFiles(headers, unicode, br.Order(), names, data)
}

func cutFiles(headers []fileHeader, unicode bool, order binary.ByteOrder, names, data []byte) ([]File, error) {
	files := make([]File, len(headers))
	for i, fh := range headers {
		size := int64(len(data))
		if fh.dataOffset < 0 || fh.compressedSize < 0 || fh.dataOffset > size || fh.compressedSize > size-fh.dataOffset {
			return nil, errors.Errorf("File %d data 0x%x+0x%x out of bounds (0x%x)",
				i, fh.dataOffset, fh.compressedSize, len(data))
		}
		payload := data[fh.dataOffset : fh.dataOffset+fh.compressedSize]
		if fh.flags&FILE_FLAG_COMPRESSED != 0 {
			raw, err := dcx.Decompress(payload)
			if err != nil {
				return nil, errors.Wrapf(err, "File %d", i)
			}
			payload = raw
		}

		files[i] = File{ID: fh.id, Flags: fh.flags, Data: payload}
		if fh.nameOffset >= 0 {
			if fh.nameOffset >= int64(len(names)) {
				return nil, errors.Errorf("File %d name offset 0x%x out of bounds", i, fh.nameOffset)
			}
			files[i].Name = utils.StringAt(names, fh.nameOffset, unicode, order, config.ShiftJIS)
		}
	}
	return files, nil
}
