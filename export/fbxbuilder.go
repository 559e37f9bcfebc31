package export

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/mogaika/fbx"
	"github.com/mogaika/fbx/builders/bfbx73"
	"github.com/pkg/errors"
)

const (
	FBX_VERSION = 7400
	FBX_CREATOR = "mass_convert"
	FBX_EPOCH   = "1970-01-01 10:00:00:000"
)

var FBX_FILE_ID = []byte{
	0x28, 0xb3, 0x2a, 0xeb, 0xb6, 0x24, 0xcc, 0xc2,
	0xbf, 0xc8, 0xb0, 0x2a, 0xa9, 0x2b, 0xfc, 0xf1}

// fbxBuilder accumulates objects and connections of one document. Object
// id 0 is the implicit scene root. The node tree is assembled on write.
type fbxBuilder struct {
	filename string
	lastId   int64

	objects     *fbx.Node
	connections *fbx.Node
}

func newFBXBuilder(filename string) *fbxBuilder {
	return &fbxBuilder{
		filename:    filename,
		lastId:      1000000,
		objects:     bfbx73.Objects(),
		connections: bfbx73.Connections(),
	}
}

func (b *fbxBuilder) GenerateId() int64 {
	b.lastId++
	return b.lastId
}

func (b *fbxBuilder) AddObjects(nodes ...*fbx.Node)     { b.objects.AddNodes(nodes...) }
func (b *fbxBuilder) AddConnections(nodes ...*fbx.Node) { b.connections.AddNodes(nodes...) }

func (b *fbxBuilder) header() *fbx.Node {
	return bfbx73.FBXHeaderExtension().AddNodes(
		bfbx73.FBXHeaderVersion(1003),
		bfbx73.FBXVersion(FBX_VERSION),
		bfbx73.EncryptionType(0),
		bfbx73.CreationTimeStamp().AddNodes(
			bfbx73.Version(1000),
			bfbx73.Year(1970), bfbx73.Month(1), bfbx73.Day(1),
			bfbx73.Hour(10), bfbx73.Minute(0), bfbx73.Second(0), bfbx73.Millisecond(0),
		),
		bfbx73.Creator(FBX_CREATOR),
		bfbx73.SceneInfo("GlobalInfo\x00\x01SceneInfo", "UserData").AddNodes(
			bfbx73.Type("UserData"),
			bfbx73.Version(100),
			bfbx73.Properties70().AddNodes(
				bfbx73.P("DocumentUrl", "KString", "Url", "", b.filename),
				bfbx73.P("Original|FileName", "KString", "", "", filepath.Base(b.filename)),
			),
		),
	)
}

// globalSettings declares a Y up, right handed frame in meters.
func globalSettings() *fbx.Node {
	return bfbx73.GlobalSettings().AddNodes(
		bfbx73.Version(1000),
		bfbx73.Properties70().AddNodes(
			bfbx73.P("UpAxis", "int", "Integer", "", int32(1)),
			bfbx73.P("UpAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("FrontAxis", "int", "Integer", "", int32(2)),
			bfbx73.P("FrontAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("CoordAxis", "int", "Integer", "", int32(0)),
			bfbx73.P("CoordAxisSign", "int", "Integer", "", int32(1)),
			bfbx73.P("UnitScaleFactor", "double", "Number", "", float64(1)),
		),
	)
}

// definitions counts objects per type, in first appearance order.
func (b *fbxBuilder) definitions() *fbx.Node {
	counts := make(map[string]int32)
	order := make([]string, 0)
	for _, object := range b.objects.Nodes {
		if _, ex := counts[object.Name]; !ex {
			order = append(order, object.Name)
		}
		counts[object.Name]++
	}

	total := int32(1)
	types := []*fbx.Node{bfbx73.ObjectType("GlobalSettings").AddNodes(bfbx73.Count(1))}
	for _, name := range order {
		total += counts[name]
		types = append(types, bfbx73.ObjectType(name).AddNodes(bfbx73.Count(counts[name])))
	}
	return bfbx73.Definitions().AddNodes(bfbx73.Version(100), bfbx73.Count(total)).AddNodes(types...)
}

func (b *fbxBuilder) document() *fbx.FBX {
	f := fbx.NewFBX(FBX_VERSION)
	f.Root.AddNodes(
		b.header(),
		bfbx73.FileId(FBX_FILE_ID),
		bfbx73.CreationTime(FBX_EPOCH),
		bfbx73.Creator(FBX_CREATOR),
		globalSettings(),
		bfbx73.Documents().AddNodes(
			bfbx73.Count(1),
			bfbx73.Document(b.GenerateId(), "Scene", "Scene").AddNodes(
				bfbx73.RootNode(0),
			),
		),
		bfbx73.References(),
		b.definitions(),
		b.objects,
		b.connections,
		bfbx73.Takes().AddNodes(bfbx73.Current("")),
	)
	return f
}

// Write encodes the binary document. The encoder needs a seekable file,
// so it goes through a temporary one.
func (b *fbxBuilder) Write(w io.Writer) error {
	tempFile, err := ioutil.TempFile("", "fbxexport.*.fbx")
	if err != nil {
		return err
	}
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	if err := fbx.Write(tempFile, b.document()); err != nil {
		return err
	}
	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "Unable to seek")
	}
	_, err = io.Copy(w, tempFile)
	return err
}

// WriteText dumps the document tree in the library's text form.
func (b *fbxBuilder) WriteText(w io.Writer) error {
	_, err := io.WriteString(w, b.document().SPrint())
	return err
}
