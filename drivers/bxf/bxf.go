// Package bxf reads split archives: a header file (BHF3/BHF4, usually
// *.bhd) listing the entries and a data file (BDF3/BDF4, *.bdt) holding
// the payloads at absolute offsets.
package bxf

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/drivers/binder"
	"github.com/mogaika/mass_convert/drivers/bnd3"
	"github.com/mogaika/mass_convert/drivers/bnd4"
	"github.com/mogaika/mass_convert/utils"
)

const (
	HEADER_MAGIC3 = "BHF3"
	DATA_MAGIC3   = "BDF3"
	HEADER_MAGIC4 = "BHF4"
	DATA_MAGIC4   = "BDF4"
)

func IsHeader3(b []byte) bool {
	return len(b) >= bnd3.RAW_HEADER_SIZE && string(b[:4]) == HEADER_MAGIC3
}

func IsHeader4(b []byte) bool {
	return len(b) >= bnd4.RAW_HEADER_SIZE && string(b[:4]) == HEADER_MAGIC4
}

func Read3(header, data []byte) (*binder.Binder, error) {
	if !IsHeader3(header) {
		return nil, errors.Errorf("[bxf3] Wrong header magic")
	}
	if len(data) < 4 || string(data[:4]) != DATA_MAGIC3 {
		return nil, errors.Errorf("[bxf3] Wrong data magic")
	}

	// same leading layout as generation 3 archives
	var h bnd3.Header
	h.FromBuf(header)
	if h.FileCount < 0 || int64(h.FileCount)*int64(binder.FileHeaderSize3(h.Format)) > int64(len(header)) {
		return nil, errors.Errorf("[bxf3] Bad file count %d", h.FileCount)
	}

	br := utils.NewBinReader("bhf3", header, h.Order())
	br.Seek(bnd3.RAW_HEADER_SIZE)
	files, err := binder.ReadFiles3(br, int(h.FileCount), h.BitBigEndian, h.Format, header, data)
	if err != nil {
		return nil, errors.Wrapf(err, "[bxf3]")
	}
	return &binder.Binder{
		Magic:        HEADER_MAGIC3,
		Version:      h.Version,
		Format:       h.Format,
		BigEndian:    h.BigEndian,
		BitBigEndian: h.BitBigEndian,
		Files:        files,
	}, nil
}

func Read4(header, data []byte) (*binder.Binder, error) {
	if !IsHeader4(header) {
		return nil, errors.Errorf("[bxf4] Wrong header magic")
	}
	if len(data) < 4 || string(data[:4]) != DATA_MAGIC4 {
		return nil, errors.Errorf("[bxf4] Wrong data magic")
	}

	var h bnd4.Header
	h.FromBuf(header)
	if err := h.Validate(len(header)); err != nil {
		return nil, errors.Wrapf(err, "[bxf4]")
	}

	br := utils.NewBinReader("bhf4", header, h.Order())
	br.Seek(bnd4.RAW_HEADER_SIZE)
	files, err := binder.ReadFiles4(br, int(h.FileCount), int(h.FileHeaderSize), h.BitBigEndian, h.Unicode, h.Format, header, data)
	if err != nil {
		return nil, errors.Wrapf(err, "[bxf4]")
	}
	return &binder.Binder{
		Magic:        HEADER_MAGIC4,
		Version:      h.Version,
		Format:       h.Format,
		BigEndian:    h.BigEndian,
		BitBigEndian: h.BitBigEndian,
		Unicode:      h.Unicode,
		Files:        files,
	}, nil
}

// Write3 builds a little endian header/data pair.
func Write3(version string, files []binder.File) (header, data []byte) {
	format := binder.FORMAT_IDS | binder.FORMAT_NAMES1 | binder.FORMAT_NAMES2
	o := binary.LittleEndian

	const dataStart = 0x10
	headersEnd := bnd3.RAW_HEADER_SIZE + len(files)*binder.FileHeaderSize3(format)
	l := binder.BuildFiles3(format, o, files, headersEnd, dataStart)

	var hb bytes.Buffer
	var h [bnd3.RAW_HEADER_SIZE]byte
	copy(h[0:], HEADER_MAGIC3)
	copy(h[4:12], version)
	h[0x0C] = binder.WriteFormat(format)
	o.PutUint32(h[0x10:], uint32(len(files)))
	hb.Write(h[:])
	hb.Write(l.Headers)
	hb.Write(l.Names)

	var db bytes.Buffer
	var d [dataStart]byte
	copy(d[0:], DATA_MAGIC3)
	copy(d[4:12], version)
	db.Write(d[:])
	db.Write(l.Payloads)

	return hb.Bytes(), db.Bytes()
}
