// Package dcx handles the compressed wrapper around container and model
// files. Only the DFLT (zlib) flavour is inflated.
package dcx

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io/ioutil"

	"github.com/pkg/errors"
)

const (
	MAGIC           = "DCX\x00"
	RAW_HEADER_SIZE = 0x4C

	FORMAT_DFLT = "DFLT"
	FORMAT_EDGE = "EDGE"
	FORMAT_KRAK = "KRAK"
)

type Header struct {
	Version          uint32
	UncompressedSize uint32
	CompressedSize   uint32
	Format           string
	Level            uint8
	DataOffset       uint32
}

func (h *Header) FromBuf(b []byte) error {
	if string(b[0:4]) != MAGIC {
		return errors.Errorf("[dcx] Wrong magic %q", b[0:4])
	}
	if string(b[0x18:0x1C]) != "DCS\x00" {
		return errors.Errorf("[dcx] Missed DCS section")
	}
	if string(b[0x24:0x28]) != "DCP\x00" {
		return errors.Errorf("[dcx] Missed DCP section")
	}
	if string(b[0x44:0x48]) != "DCA\x00" {
		return errors.Errorf("[dcx] Missed DCA section")
	}
	h.Version = binary.BigEndian.Uint32(b[0x04:])
	h.UncompressedSize = binary.BigEndian.Uint32(b[0x1C:])
	h.CompressedSize = binary.BigEndian.Uint32(b[0x20:])
	h.Format = string(b[0x28:0x2C])
	h.Level = b[0x30]
	h.DataOffset = 0x44 + binary.BigEndian.Uint32(b[0x48:])
	return nil
}

func (h *Header) ToBuf(b []byte) {
	copy(b[0:], MAGIC)
	binary.BigEndian.PutUint32(b[0x04:], h.Version)
	binary.BigEndian.PutUint32(b[0x08:], 0x18)
	binary.BigEndian.PutUint32(b[0x0C:], 0x24)
	binary.BigEndian.PutUint32(b[0x10:], 0x24)
	binary.BigEndian.PutUint32(b[0x14:], 0x2C)
	copy(b[0x18:], "DCS\x00")
	binary.BigEndian.PutUint32(b[0x1C:], h.UncompressedSize)
	binary.BigEndian.PutUint32(b[0x20:], h.CompressedSize)
	copy(b[0x24:], "DCP\x00")
	copy(b[0x28:], h.Format)
	binary.BigEndian.PutUint32(b[0x2C:], 0x20)
	b[0x30] = h.Level
	copy(b[0x44:], "DCA\x00")
	binary.BigEndian.PutUint32(b[0x48:], 8)
}

// Is only peeks at the magic.
func Is(b []byte) bool {
	return len(b) >= RAW_HEADER_SIZE && string(b[:4]) == MAGIC
}

func Decompress(b []byte) ([]byte, error) {
	if len(b) < RAW_HEADER_SIZE {
		return nil, errors.Errorf("[dcx] Too small: %d bytes", len(b))
	}
	var h Header
	if err := h.FromBuf(b); err != nil {
		return nil, err
	}
	if h.Format != FORMAT_DFLT {
		return nil, errors.Errorf("[dcx] Unsupported compression %q", h.Format)
	}
	end := int64(h.DataOffset) + int64(h.CompressedSize)
	if end > int64(len(b)) {
		return nil, errors.Errorf("[dcx] Compressed data 0x%x..0x%x out of file (0x%x)", h.DataOffset, end, len(b))
	}

	zr, err := zlib.NewReader(bytes.NewReader(b[h.DataOffset:end]))
	if err != nil {
		return nil, errors.Wrapf(err, "[dcx] zlib.NewReader")
	}
	defer zr.Close()

	raw, err := ioutil.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrapf(err, "[dcx] Inflate")
	}
	if uint32(len(raw)) != h.UncompressedSize {
		return nil, errors.Errorf("[dcx] Uncompressed size mismatch: %d != %d", len(raw), h.UncompressedSize)
	}
	return raw, nil
}

// Compress wraps data into a DFLT container.
func Compress(data []byte) ([]byte, error) {
	var zb bytes.Buffer
	zw, err := zlib.NewWriterLevel(&zb, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	h := Header{
		Version:          0x10000,
		UncompressedSize: uint32(len(data)),
		CompressedSize:   uint32(zb.Len()),
		Format:           FORMAT_DFLT,
		Level:            9,
	}
	result := make([]byte, RAW_HEADER_SIZE, RAW_HEADER_SIZE+zb.Len())
	h.ToBuf(result)
	return append(result, zb.Bytes()...), nil
}
