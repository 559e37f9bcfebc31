// Package tpf reads texture packs. Only PC packs are supported, their
// payloads are complete dds files already.
package tpf

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/config"
	"github.com/mogaika/mass_convert/drivers/dcx"
	"github.com/mogaika/mass_convert/utils"
)

const (
	MAGIC           = "TPF\x00"
	RAW_HEADER_SIZE = 0x10
)

type Platform uint8

const (
	PLATFORM_PC Platform = iota
	PLATFORM_XBOX360
	PLATFORM_PS3
	PLATFORM_PS4
	PLATFORM_XBOXONE
)

var platformNames = map[Platform]string{
	PLATFORM_PC:      "PC",
	PLATFORM_XBOX360: "Xbox360",
	PLATFORM_PS3:     "PS3",
	PLATFORM_PS4:     "PS4",
	PLATFORM_XBOXONE: "XboxOne",
}

func (p Platform) String() string {
	if n, ok := platformNames[p]; ok {
		return n
	}
	return "Unknown"
}

type Texture struct {
	Name    string
	Format  uint8
	Type    uint8
	Mipmaps uint8
	Flags1  uint8
	Data    []byte
}

type TPF struct {
	Platform Platform
	Encoding uint8
	Textures []Texture
}

func Is(b []byte) bool {
	return len(b) >= RAW_HEADER_SIZE && string(b[:4]) == MAGIC
}

func Read(b []byte) (*TPF, error) {
	if !Is(b) {
		return nil, errors.Errorf("[tpf] Wrong magic")
	}
	t := &TPF{Platform: Platform(b[0x0C]), Encoding: b[0x0E]}

	var order binary.ByteOrder = binary.LittleEndian
	if t.Platform == PLATFORM_XBOX360 || t.Platform == PLATFORM_PS3 {
		order = binary.BigEndian
	}
	if t.Platform != PLATFORM_PC {
		return nil, errors.Errorf("[tpf] Platform %v is not supported", t.Platform)
	}

	br := utils.NewBinReader("tpf", b, order)
	br.Seek(8)
	count := int(br.ReadI32())
	if count < 0 || RAW_HEADER_SIZE+count*0x14 > len(b) {
		return nil, errors.Errorf("[tpf] Bad texture count %d", count)
	}
	br.Seek(RAW_HEADER_SIZE)

	t.Textures = make([]Texture, count)
	for i := range t.Textures {
		tex := &t.Textures[i]
		offset := int64(br.ReadU32())
		size := int64(br.ReadI32())
		tex.Format = br.ReadByte()
		tex.Type = br.ReadByte()
		tex.Mipmaps = br.ReadByte()
		tex.Flags1 = br.ReadByte()
		nameOffset := int64(br.ReadU32())
		if hasFloats := br.ReadI32(); hasFloats == 1 {
			br.ReadI32()
			br.Skip(int(br.ReadI32()))
		}
		if err := br.Err(); err != nil {
			return nil, errors.Wrapf(err, "[tpf] Texture %d header", i)
		}

		tex.Name = utils.StringAt(b, nameOffset, t.Encoding == 1, order, config.ShiftJIS)
		tex.Data = br.Slice(offset, size)
		if tex.Data == nil {
			return nil, errors.Wrapf(br.Err(), "[tpf] Texture %q data", tex.Name)
		}
		if tex.Flags1 == 2 || tex.Flags1 == 3 {
			raw, err := dcx.Decompress(tex.Data)
			if err != nil {
				return nil, errors.Wrapf(err, "[tpf] Texture %q", tex.Name)
			}
			tex.Data = raw
		}
	}
	return t, nil
}

// Write builds a PC pack with UTF-16 names.
func Write(textures []Texture) []byte {
	o := binary.LittleEndian
	headersEnd := RAW_HEADER_SIZE + len(textures)*0x14

	var names bytes.Buffer
	nameOffsets := make([]int, len(textures))
	for i, tex := range textures {
		nameOffsets[i] = headersEnd + names.Len()
		for _, u := range utf16.Encode([]rune(tex.Name)) {
			names.Write([]byte{byte(u), byte(u >> 8)})
		}
		names.Write([]byte{0, 0})
	}
	dataStart := headersEnd + names.Len()
	for dataStart%0x10 != 0 {
		dataStart++
	}

	out := make([]byte, dataStart)
	copy(out, MAGIC)
	o.PutUint32(out[0x08:], uint32(len(textures)))
	out[0x0C] = byte(PLATFORM_PC)
	out[0x0D] = 3
	out[0x0E] = 1

	dataSize := 0
	for i, tex := range textures {
		h := out[RAW_HEADER_SIZE+i*0x14:]
		o.PutUint32(h[0x00:], uint32(len(out)))
		o.PutUint32(h[0x04:], uint32(len(tex.Data)))
		h[0x08] = tex.Format
		h[0x09] = tex.Type
		h[0x0A] = tex.Mipmaps
		o.PutUint32(h[0x0C:], uint32(nameOffsets[i]))
		out = append(out, tex.Data...)
		dataSize += len(tex.Data)
	}
	copy(out[headersEnd:], names.Bytes())
	o.PutUint32(out[0x04:], uint32(dataSize))
	return out
}
