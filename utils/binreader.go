package utils

import (
	"encoding/binary"
	"fmt"
)

// BinReader is a cursor over a byte buffer. Reads past the end return
// zero values and latch an error, so header parsers can read a whole
// record and check Err() once.
type BinReader struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
	kind  string
	err   error
}

func NewBinReader(kind string, b []byte, order binary.ByteOrder) *BinReader {
	return &BinReader{buf: b, order: order, kind: kind}
}

func (br *BinReader) String() string {
	return fmt.Sprintf("buf<%v>[pos:0x%x,size:0x%x]", br.kind, br.pos, len(br.buf))
}

func (br *BinReader) Err() error {
	return br.err
}

func (br *BinReader) Order() binary.ByteOrder {
	return br.order
}

func (br *BinReader) Pos() int {
	return br.pos
}

func (br *BinReader) Seek(pos int) {
	if pos < 0 || pos > len(br.buf) {
		br.fail(pos, 0)
		return
	}
	br.pos = pos
}

func (br *BinReader) fail(pos, amount int) {
	if br.err == nil {
		br.err = fmt.Errorf("%v: out of bounds read 0x%x+0x%x", br, pos, amount)
	}
}

// Slice returns buf[off:off+size] without moving the cursor.
func (br *BinReader) Slice(off, size int64) []byte {
	if off < 0 || size < 0 || off+size > int64(len(br.buf)) {
		br.fail(int(off), int(size))
		return nil
	}
	return br.buf[off : off+size]
}

func (br *BinReader) Read(amount int) []byte {
	if amount < 0 || br.pos+amount > len(br.buf) {
		br.fail(br.pos, amount)
		br.pos = len(br.buf)
		if amount < 0 || amount > 8 {
			return nil
		}
		return make([]byte, amount)
	}
	oldPos := br.pos
	br.pos += amount
	return br.buf[oldPos:br.pos]
}

func (br *BinReader) Skip(amount int) {
	br.Read(amount)
}

func (br *BinReader) ReadByte() byte {
	return br.Read(1)[0]
}

func (br *BinReader) ReadU32() uint32 {
	return br.order.Uint32(br.Read(4))
}

func (br *BinReader) ReadI32() int32 {
	return int32(br.ReadU32())
}

func (br *BinReader) ReadU64() uint64 {
	return br.order.Uint64(br.Read(8))
}

func (br *BinReader) ReadI64() int64 {
	return int64(br.ReadU64())
}
