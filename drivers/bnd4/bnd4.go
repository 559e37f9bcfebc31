package bnd4

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/drivers/binder"
	"github.com/mogaika/mass_convert/utils"
)

const (
	MAGIC           = "BND4"
	RAW_HEADER_SIZE = 0x40
)

// Header is shared with the split BHF4 variant.
type Header struct {
	Magic          string
	BigEndian      bool
	BitBigEndian   bool
	FileCount      int32
	Version        string
	FileHeaderSize int64
	FileHeadersEnd int64
	Unicode        bool
	Format         binder.Format
	Extended       uint8
	HashTable      int64
}

func (h *Header) Order() binary.ByteOrder {
	return binder.ByteOrder(h.BigEndian)
}

func (h *Header) FromBuf(b []byte) {
	h.Magic = string(b[0:4])
	h.BigEndian = b[0x09] != 0
	h.BitBigEndian = b[0x0A] == 0
	o := h.Order()
	h.FileCount = int32(o.Uint32(b[0x0C:]))
	h.Version = utils.BytesToString(b[0x18:0x20], nil)
	h.FileHeaderSize = int64(o.Uint64(b[0x20:]))
	h.FileHeadersEnd = int64(o.Uint64(b[0x28:]))
	h.Unicode = b[0x30] != 0
	h.Format = binder.ReadFormat(b[0x31], h.BitBigEndian)
	h.Extended = b[0x32]
	if h.Extended == 4 {
		h.HashTable = int64(o.Uint64(b[0x38:]))
	}
}

func (h *Header) ToBuf(b []byte) {
	o := h.Order()
	copy(b[0:], h.Magic)
	if h.BigEndian {
		b[0x09] = 1
	}
	if !h.BitBigEndian {
		b[0x0A] = 1
	}
	o.PutUint32(b[0x0C:], uint32(h.FileCount))
	o.PutUint64(b[0x10:], RAW_HEADER_SIZE)
	copy(b[0x18:0x20], h.Version)
	o.PutUint64(b[0x20:], uint64(h.FileHeaderSize))
	o.PutUint64(b[0x28:], uint64(h.FileHeadersEnd))
	if h.Unicode {
		b[0x30] = 1
	}
	b[0x31] = binder.WriteFormat(h.Format)
	b[0x32] = h.Extended
}

// Validate checks the header against the blob it was read from.
func (h *Header) Validate(size int) error {
	if h.FileCount < 0 {
		return errors.Errorf("Bad file count %d", h.FileCount)
	}
	if h.FileCount > 0 && (h.FileHeaderSize <= 0 || h.FileHeaderSize > 0x100) {
		return errors.Errorf("Bad file header size 0x%x", h.FileHeaderSize)
	}
	if RAW_HEADER_SIZE+int64(h.FileCount)*h.FileHeaderSize > int64(size) {
		return errors.Errorf("File headers out of bounds")
	}
	return nil
}

func Is(b []byte) bool {
	return len(b) >= RAW_HEADER_SIZE && string(b[:4]) == MAGIC
}

func Read(b []byte) (*binder.Binder, error) {
	if !Is(b) {
		return nil, errors.Errorf("[bnd4] Wrong magic")
	}
	var h Header
	h.FromBuf(b)
	if err := h.Validate(len(b)); err != nil {
		return nil, errors.Wrapf(err, "[bnd4]")
	}

	br := utils.NewBinReader("bnd4", b, h.Order())
	br.Seek(RAW_HEADER_SIZE)
	files, err := binder.ReadFiles4(br, int(h.FileCount), int(h.FileHeaderSize), h.BitBigEndian, h.Unicode, h.Format, b, b)
	if err != nil {
		return nil, errors.Wrapf(err, "[bnd4]")
	}

	return &binder.Binder{
		Magic:        MAGIC,
		Version:      h.Version,
		Format:       h.Format,
		BigEndian:    h.BigEndian,
		BitBigEndian: h.BitBigEndian,
		Unicode:      h.Unicode,
		Files:        files,
	}, nil
}

// Write builds a little endian unicode archive with ids and names.
func Write(version string, files []binder.File) []byte {
	const format = binder.FORMAT_IDS | binder.FORMAT_NAMES1 | binder.FORMAT_NAMES2 | binder.FORMAT_LONG_OFFSETS
	const fileHeaderSize = 0x20
	o := binary.LittleEndian

	headersEnd := RAW_HEADER_SIZE + len(files)*fileHeaderSize

	var names bytes.Buffer
	nameOffsets := make([]int, len(files))
	for i, f := range files {
		nameOffsets[i] = headersEnd + names.Len()
		for _, u := range utf16.Encode([]rune(f.Name)) {
			names.Write([]byte{byte(u), byte(u >> 8)})
		}
		names.Write([]byte{0, 0})
	}
	dataStart := headersEnd + names.Len()
	for dataStart%0x10 != 0 {
		dataStart++
	}

	h := Header{
		Magic:          MAGIC,
		FileCount:      int32(len(files)),
		Version:        version,
		FileHeaderSize: fileHeaderSize,
		FileHeadersEnd: int64(headersEnd),
		Unicode:        true,
		Format:         format,
	}
	out := make([]byte, dataStart)
	h.ToBuf(out)

	var payloads bytes.Buffer
	for i, f := range files {
		fh := out[RAW_HEADER_SIZE+i*fileHeaderSize:]
		fh[0] = binder.WriteFileFlags(0)
		o.PutUint32(fh[0x04:], 0xFFFFFFFF)
		o.PutUint64(fh[0x08:], uint64(len(f.Data)))
		o.PutUint64(fh[0x10:], uint64(dataStart+payloads.Len()))
		o.PutUint32(fh[0x18:], uint32(f.ID))
		o.PutUint32(fh[0x1C:], uint32(nameOffsets[i]))
		payloads.Write(f.Data)
		for payloads.Len()%0x10 != 0 {
			payloads.WriteByte(0)
		}
	}
	copy(out[headersEnd:], names.Bytes())
	return append(out, payloads.Bytes()...)
}
