// Package zero3 reads multi part archives split over name.000, name.001, ...
// The first part carries the directory for all of them.
package zero3

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/config"
	"github.com/mogaika/mass_convert/drivers/binder"
	"github.com/mogaika/mass_convert/utils"
)

const (
	FIRST_PART_SUFFIX = ".000"
	RAW_HEADER_SIZE   = 0x14
	RAW_ENTRY_SIZE    = 0x50
	NAME_SIZE         = 0x40
	MAX_PARTS         = 1000
)

type Entry struct {
	Name       string
	Container  int32
	Offset     int64
	PaddedSize int64
	Size       int64
}

func (e *Entry) FromBuf(b []byte) {
	e.Name = utils.BytesToString(b[:NAME_SIZE], config.ShiftJIS)
	e.Container = int32(binary.BigEndian.Uint32(b[0x40:]))
	e.Offset = int64(binary.BigEndian.Uint32(b[0x44:])) * 0x10
	e.PaddedSize = int64(binary.BigEndian.Uint32(b[0x48:])) * 0x10
	e.Size = int64(binary.BigEndian.Uint32(b[0x4C:]))
}

// Is checks the name only, parts have no magic.
func Is(name string) bool {
	return strings.HasSuffix(name, FIRST_PART_SUFFIX)
}

// Read parses the directory of parts[0] and cuts entries out of parts.
func Read(parts [][]byte) ([]binder.File, error) {
	if len(parts) == 0 || len(parts[0]) < RAW_HEADER_SIZE {
		return nil, errors.Errorf("[zero3] Missing first part")
	}
	br := utils.NewBinReader("zero3", parts[0], binary.BigEndian)
	for i := 0; i < 3; i++ {
		if v := br.ReadU32(); v != 0x10 {
			return nil, errors.Errorf("[zero3] Unexpected header value 0x%x at 0x%x", v, i*4)
		}
	}
	br.ReadU32() // max part size
	count := int(br.ReadU32())
	if count < 0 || RAW_HEADER_SIZE+count*RAW_ENTRY_SIZE > len(parts[0]) {
		return nil, errors.Errorf("[zero3] Bad file count %d", count)
	}

	files := make([]binder.File, count)
	for i := range files {
		var e Entry
		e.FromBuf(br.Read(RAW_ENTRY_SIZE))
		if e.Container < 0 || int(e.Container) >= len(parts) {
			return nil, errors.Errorf("[zero3] File %q in missing part %d", e.Name, e.Container)
		}
		part := parts[e.Container]
		if e.Offset+e.Size > int64(len(part)) {
			return nil, errors.Errorf("[zero3] File %q out of part %d bounds", e.Name, e.Container)
		}
		files[i] = binder.File{Name: e.Name, ID: int32(i), Data: part[e.Offset : e.Offset+e.Size]}
	}
	return files, nil
}

// PartPaths lists existing parts for the path of the first one.
func PartPaths(path string) []string {
	base := strings.TrimSuffix(path, FIRST_PART_SUFFIX)
	result := []string{path}
	for i := 1; i < MAX_PARTS; i++ {
		p := fmt.Sprintf("%s.%03d", base, i)
		if !utils.FileExists(p) {
			break
		}
		result = append(result, p)
	}
	return result
}

func ReadPath(path string) ([]binder.File, error) {
	paths := PartPaths(path)
	parts := make([][]byte, len(paths))
	for i, p := range paths {
		b, err := ioutil.ReadFile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "[zero3] Part %d", i)
		}
		parts[i] = b
	}
	return Read(parts)
}

// Write lays files out over parts of at most partSize bytes.
func Write(files []binder.File, partSize int) [][]byte {
	headerSize := RAW_HEADER_SIZE + len(files)*RAW_ENTRY_SIZE
	for headerSize%0x10 != 0 {
		headerSize++
	}

	parts := []*bytes.Buffer{bytes.NewBuffer(make([]byte, headerSize))}
	entries := make([]Entry, len(files))
	for i, f := range files {
		cur := parts[len(parts)-1]
		if cur.Len() > 0 && cur.Len()+len(f.Data) > partSize && i > 0 {
			cur = new(bytes.Buffer)
			parts = append(parts, cur)
		}
		entries[i] = Entry{Name: f.Name, Container: int32(len(parts) - 1), Offset: int64(cur.Len()), Size: int64(len(f.Data))}
		cur.Write(f.Data)
		for cur.Len()%0x10 != 0 {
			cur.WriteByte(0)
		}
		entries[i].PaddedSize = int64(cur.Len()) - entries[i].Offset
	}

	head := parts[0].Bytes()
	o := binary.BigEndian
	o.PutUint32(head[0x00:], 0x10)
	o.PutUint32(head[0x04:], 0x10)
	o.PutUint32(head[0x08:], 0x10)
	o.PutUint32(head[0x0C:], uint32(partSize))
	o.PutUint32(head[0x10:], uint32(len(files)))
	for i, e := range entries {
		b := head[RAW_HEADER_SIZE+i*RAW_ENTRY_SIZE:]
		copy(b[:NAME_SIZE], e.Name)
		o.PutUint32(b[0x40:], uint32(e.Container))
		o.PutUint32(b[0x44:], uint32(e.Offset/0x10))
		o.PutUint32(b[0x48:], uint32(e.PaddedSize/0x10))
		o.PutUint32(b[0x4C:], uint32(e.Size))
	}

	result := make([][]byte, len(parts))
	for i, p := range parts {
		result[i] = p.Bytes()
	}
	return result
}

// Exists reports whether path names an existing first part.
func Exists(path string) bool {
	st, err := os.Stat(path)
	return Is(path) && err == nil && st.Mode().IsRegular()
}
