package binder

import (
	"bytes"
	"encoding/binary"
)

// Layout3 writes generation 3 file headers, the name table and payloads.
// Header offsets are relative to the start of the headers block plus
// headersStart; payload offsets are relative to dataBase.
type Layout3 struct {
	Format   Format
	Order    binary.ByteOrder
	Files    []File
	Headers  []byte
	Names    []byte
	Payloads []byte
}

// BuildFiles3 lays out uncompressed files. Names start at namesStart and
// payloads at dataStart in the final blob.
func BuildFiles3(f Format, order binary.ByteOrder, files []File, namesStart, dataStart int) *Layout3 {
	l := &Layout3{Format: f, Order: order, Files: files}

	var names bytes.Buffer
	nameOffsets := make([]int, len(files))
	for i, file := range files {
		nameOffsets[i] = namesStart + names.Len()
		names.WriteString(file.Name)
		names.WriteByte(0)
	}
	l.Names = names.Bytes()

	var headers, payloads bytes.Buffer
	put32 := func(v uint32) {
		var b [4]byte
		order.PutUint32(b[:], v)
		headers.Write(b[:])
	}
	for i, file := range files {
		headers.Write([]byte{WriteFileFlags(0), 0, 0, 0})
		put32(uint32(len(file.Data)))
		put32(uint32(dataStart + payloads.Len()))
		if f.IDs() {
			put32(uint32(file.ID))
		}
		if f.Names() {
			put32(uint32(nameOffsets[i]))
		}
		if f.Compression() {
			put32(uint32(len(file.Data)))
		}
		payloads.Write(file.Data)
		for payloads.Len()%0x10 != 0 {
			payloads.WriteByte(0)
		}
	}
	l.Headers = headers.Bytes()
	l.Payloads = payloads.Bytes()
	return l
}
