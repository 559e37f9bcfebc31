package bnd3

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/drivers/binder"
	"github.com/mogaika/mass_convert/utils"
)

const (
	MAGIC           = "BND3"
	RAW_HEADER_SIZE = 0x20
)

type Header struct {
	Version        string
	Format         binder.Format
	BigEndian      bool
	BitBigEndian   bool
	FileCount      int32
	FileHeadersEnd int32
}

func (h *Header) FromBuf(b []byte) {
	h.Version = utils.BytesToString(b[4:12], nil)
	h.BigEndian = b[0x0D] != 0
	h.BitBigEndian = b[0x0E] != 0
	h.Format = binder.ReadFormat(b[0x0C], h.BitBigEndian)
	order := binder.ByteOrder(h.BigEndian || h.Format.BigEndian())
	h.FileCount = int32(order.Uint32(b[0x10:]))
	h.FileHeadersEnd = int32(order.Uint32(b[0x14:]))
}

func (h *Header) Order() binary.ByteOrder {
	return binder.ByteOrder(h.BigEndian || h.Format.BigEndian())
}

func Is(b []byte) bool {
	return len(b) >= RAW_HEADER_SIZE && string(b[:4]) == MAGIC
}

func Read(b []byte) (*binder.Binder, error) {
	if !Is(b) {
		return nil, errors.Errorf("[bnd3] Wrong magic")
	}
	var h Header
	h.FromBuf(b)
	if h.FileCount < 0 || int64(h.FileCount)*int64(binder.FileHeaderSize3(h.Format)) > int64(len(b)) {
		return nil, errors.Errorf("[bnd3] Bad file count %d", h.FileCount)
	}

	br := utils.NewBinReader("bnd3", b, h.Order())
	br.Seek(RAW_HEADER_SIZE)
	files, err := binder.ReadFiles3(br, int(h.FileCount), h.BitBigEndian, h.Format, b, b)
	if err != nil {
		return nil, errors.Wrapf(err, "[bnd3]")
	}

	return &binder.Binder{
		Magic:        MAGIC,
		Version:      h.Version,
		Format:       h.Format,
		BigEndian:    h.BigEndian,
		BitBigEndian: h.BitBigEndian,
		Files:        files,
	}, nil
}

// Write builds a little endian archive with ids and names.
func Write(version string, files []binder.File) []byte {
	format := binder.FORMAT_IDS | binder.FORMAT_NAMES1 | binder.FORMAT_NAMES2 | binder.FORMAT_COMPRESSION
	order := binary.LittleEndian

	headersEnd := RAW_HEADER_SIZE + len(files)*binder.FileHeaderSize3(format)
	namesSize := 0
	for _, f := range files {
		namesSize += len(f.Name) + 1
	}
	dataStart := headersEnd + namesSize
	for dataStart%0x10 != 0 {
		dataStart++
	}
	l := binder.BuildFiles3(format, order, files, headersEnd, dataStart)

	var buf bytes.Buffer
	var h [RAW_HEADER_SIZE]byte
	copy(h[0:], MAGIC)
	copy(h[4:12], version)
	h[0x0C] = binder.WriteFormat(format)
	order.PutUint32(h[0x10:], uint32(len(files)))
	order.PutUint32(h[0x14:], uint32(dataStart))
	buf.Write(h[:])
	buf.Write(l.Headers)
	buf.Write(l.Names)
	for buf.Len() < dataStart {
		buf.WriteByte(0)
	}
	buf.Write(l.Payloads)
	return buf.Bytes()
}
