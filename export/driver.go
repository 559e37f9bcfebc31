package export

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/mass_convert/scene"
	"github.com/mogaika/mass_convert/utils"
)

const ROOT_NODE_NAME = "Root"

// Driver names the scene root after the asset and hands it to the
// exporter. The format must already be resolved.
type Driver struct {
	Exporter    Exporter
	Format      string
	Options     Options
	FixRootNode bool
}

// OutputPath is where name is exported inside folder. name keeps its own
// extensions.
func (d *Driver) OutputPath(folder, name string) string {
	return utils.Combine(folder, utils.EntryBase(name)+"."+Extension(d.Format))
}

// wrapsRoot reports formats that get an extra "Root" parent.
func wrapsRoot(format string) bool {
	return format == FORMAT_FBX || format == FORMAT_FBXA
}

// Prepare renames the root and optionally inserts a "Root" parent above
// it. s is modified in place.
func (d *Driver) Prepare(s *scene.Scene, name string) {
	s.Root.Name = utils.StripExtensions(name)
	if d.FixRootNode && wrapsRoot(d.Format) {
		root := scene.NewNode(ROOT_NODE_NAME, mgl32.Ident4())
		root.AddChild(s.Root)
		s.Root = root
	}
}

func (d *Driver) Export(s *scene.Scene, name string, path string) (bool, error) {
	d.Prepare(s, name)
	return d.Exporter.Export(s, path, d.Format, d.Options)
}
