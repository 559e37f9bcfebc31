// Package export serializes scene graphs into 3D interchange files.
package export

import (
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/config"
	"github.com/mogaika/mass_convert/scene"
)

const (
	FORMAT_FBX     = "fbx"
	FORMAT_FBXA    = "fbxa"
	FORMAT_COLLADA = "collada"
	FORMAT_OBJ     = "obj"
	FORMAT_GLTF2   = "gltf2"
	FORMAT_GLB2    = "glb2"
)

// Options are the post processing parameters of one export.
type Options struct {
	Flags config.PostProcess
	Scale float32
}

// Exporter writes a scene to path in the given format. A false result
// without error is a plain failure reported by the encoder.
type Exporter interface {
	SupportedFormats() []string
	Export(s *scene.Scene, path string, format string, opts Options) (bool, error)
}

// Writer encodes a scene into w.
type Writer func(w io.Writer, s *scene.Scene) error

var (
	writersMu sync.RWMutex
	writers   = make(map[string]Writer)
)

func SetWriter(format string, wr Writer) {
	writersMu.Lock()
	defer writersMu.Unlock()
	if wr == nil {
		delete(writers, format)
	} else {
		writers[format] = wr
	}
}

func getWriter(format string) (Writer, bool) {
	writersMu.RLock()
	defer writersMu.RUnlock()
	wr, ok := writers[format]
	return wr, ok
}

func init() {
	SetWriter(FORMAT_FBX, WriteFBX)
	SetWriter(FORMAT_FBXA, WriteFBXText)
	SetWriter(FORMAT_COLLADA, WriteCollada)
	SetWriter(FORMAT_OBJ, WriteObj)
	SetWriter(FORMAT_GLTF2, WriteGLTF)
	SetWriter(FORMAT_GLB2, WriteGLB)
}

// Native is the bundled exporter backed by the registered writers.
type Native struct{}

func (Native) SupportedFormats() []string {
	writersMu.RLock()
	defer writersMu.RUnlock()
	result := make([]string, 0, len(writers))
	for format := range writers {
		result = append(result, format)
	}
	sort.Strings(result)
	return result
}

func (Native) Export(s *scene.Scene, path string, format string, opts Options) (bool, error) {
	wr, ok := getWriter(format)
	if !ok {
		return false, errors.Errorf("unsupported format %q", format)
	}

	processed := s.Clone()
	ApplyPostProcess(processed, opts)

	f, err := os.Create(path)
	if err != nil {
		return false, errors.Wrapf(err, "Can't create %q", path)
	}
	if err := wr(f, processed); err != nil {
		f.Close()
		os.Remove(path)
		return false, errors.Wrapf(err, "Can't encode %q as %s", path, format)
	}
	if err := f.Close(); err != nil {
		return false, errors.Wrapf(err, "Can't close %q", path)
	}
	return true, nil
}

// ResolveFormat substitutes an unsupported format: dae maps to collada,
// anything else to fbx.
func ResolveFormat(e Exporter, requested string) string {
	requested = strings.ToLower(strings.TrimSpace(requested))
	for _, f := range e.SupportedFormats() {
		if f == requested {
			return requested
		}
	}
	if requested == "dae" {
		return FORMAT_COLLADA
	}
	return config.DefaultExportFormat
}

// Extension is the file extension written for a format id.
func Extension(format string) string {
	switch format {
	case FORMAT_FBX, FORMAT_FBXA:
		return "fbx"
	case FORMAT_COLLADA:
		return "dae"
	case FORMAT_GLTF2:
		return "gltf"
	case FORMAT_GLB2:
		return "glb"
	}
	return format
}
