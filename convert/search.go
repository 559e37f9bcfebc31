package convert

import (
	"log"
	"path/filepath"

	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/utils"
	"github.com/mogaika/mass_convert/vfs"
)

// location is what a traversal step hands to its children: the output
// folder and the digests of the containers it is nested in.
type location struct {
	folder string
	chain  []utils.Digest
}

func (l location) contains(d utils.Digest) bool {
	for _, c := range l.chain {
		if c == d {
			return true
		}
	}
	return false
}

// enter checks the cycle and depth guards and returns the location of a
// container's entries.
func (c *Converter) enter(l location, leafFolder string, name string, d utils.Digest) (location, bool) {
	if l.contains(d) || len(l.chain) >= c.cfg.MaxDepth {
		c.warnf(name, nil, "Container nested too deep or inside itself, treating as file: %s", utils.EntryBase(name))
		return location{}, false
	}
	chain := make([]utils.Digest, len(l.chain), len(l.chain)+1)
	copy(chain, l.chain)
	return location{
		folder: utils.Combine(leafFolder, utils.SafeFolderName(name)),
		chain:  append(chain, d),
	}, true
}

// SearchFile converts a file on disk. Its output goes next to it, moved
// by the root folder override.
func (c *Converter) SearchFile(f *vfs.DirectoryDriverFile) {
	path := f.Path()
	name := f.Name()
	loc := location{folder: c.cfg.OutputFolder(filepath.Dir(path))}

	if c.probe.Iso(path) {
		c.searchIso(path, loc)
		return
	}
	if c.tooLarge(name, f.Size()) {
		return
	}
	data, err := f.ReadAll()
	if err != nil {
		c.errorf(name, err, "Error while searching %s: %v", name, err)
		return
	}
	c.searchBlob(data, path, path, loc.folder, loc, vfs.PathFinder(), true)
}

func (c *Converter) tooLarge(name string, size int64) bool {
	if c.cfg.MaxFileSize > 0 && size > c.cfg.MaxFileSize {
		c.skipf(name, "Skipped %s: %d bytes is over the size limit", utils.EntryBase(name), size)
		return true
	}
	return false
}

// searchBlob classifies one blob. name is the entry name or the os path
// of a top level file, path is set for files on disk only. Containers
// found below the top level are opened only when recursive search is on.
func (c *Converter) searchBlob(data []byte, name string, path string, leafFolder string,
	loc location, finder vfs.Finder, topLevel bool) {
	if c.lib.IsCompressed(data) {
		var err error
		if data, err = c.lib.Decompress(data); err != nil {
			c.errorf(name, err, "Error while searching %s: %v", utils.EntryBase(name), err)
			return
		}
	}

	if topLevel || c.cfg.BinderRecursive {
		if c.searchContainer(data, name, leafFolder, loc) {
			return
		}
		if c.searchSplit(data, name, leafFolder, loc, finder) {
			return
		}
		if path != "" && c.probe.MultiPart(path) && c.searchMultiPart(path, leafFolder, loc) {
			return
		}
	}

	c.leaf(data, utils.EntryBase(name), leafFolder)
}

func (c *Converter) searchContainer(data []byte, name string, leafFolder string, loc location) bool {
	p := c.probe.Container(data)
	if p.Class != CLASS_CONTAINER {
		return false
	}
	next, ok := c.enter(loc, leafFolder, name, utils.DigestOf(data))
	if !ok {
		return false
	}
	container, err := c.lib.ReadContainer(p.Container, data)
	if err != nil {
		c.warnf(name, err, "Detected potential %v but could not read it: %s", p.Container, utils.EntryBase(name))
		return false
	}
	c.searchEntries(container, next)
	return true
}

// searchSplit reads a header blob together with its data companion. A
// companion that cannot be found is not worth a warning.
func (c *Converter) searchSplit(data []byte, name string, leafFolder string, loc location, finder vfs.Finder) bool {
	p := c.probe.Split(name, data)
	if p.Class != CLASS_SPLIT_CONTAINER {
		return false
	}
	body, err := finder(p.Companion)
	if err != nil {
		if c.opts.Debug {
			log.Printf("[convert] Companion %q of %q: %v", p.Companion, name, err)
		}
		return false
	}
	if c.lib.IsCompressed(body) {
		if body, err = c.lib.Decompress(body); err != nil {
			c.warnf(name, err, "Detected potential %v but could not read it: %s", p.Container, utils.EntryBase(name))
			return false
		}
	}
	next, ok := c.enter(loc, leafFolder, name, utils.DigestOf(data))
	if !ok {
		return false
	}
	container, err := c.lib.ReadSplitContainer(p.Container, data, body)
	if err != nil {
		c.warnf(name, err, "Detected potential %v but could not read it: %s", p.Container, utils.EntryBase(name))
		return false
	}
	c.searchEntries(container, next)
	return true
}

func (c *Converter) searchMultiPart(path string, leafFolder string, loc location) bool {
	next, ok := c.enter(loc, leafFolder, path, utils.DigestOf([]byte(path)))
	if !ok {
		return false
	}
	container, err := c.lib.ReadMultiPart(formats.CONTAINER_ZERO3, path)
	if err != nil {
		c.warnf(path, err, "Detected potential %v but could not read it: %s", formats.CONTAINER_ZERO3, filepath.Base(path))
		return false
	}
	c.searchEntries(container, next)
	return true
}

// searchEntries visits entries in container order. Split companions are
// looked up among the siblings.
func (c *Converter) searchEntries(container *formats.Container, loc location) {
	dir := vfs.NewMemoryDirectory(container.Kind.String())
	for _, e := range container.Entries {
		dir.Add(vfs.NewMemoryFile(e.Name, e.Data))
	}
	finder := vfs.DirectoryFinder(dir)

	for _, e := range container.Entries {
		if c.tooLarge(e.Name, int64(len(e.Data))) {
			continue
		}
		leafFolder := utils.Combine(loc.folder, utils.EntryDir(e.Name))
		c.searchBlob(e.Data, e.Name, "", leafFolder, loc, finder, false)
	}
}

// searchIso treats a disc image as a folder named after the image.
func (c *Converter) searchIso(path string, loc location) {
	name := filepath.Base(path)
	iso, err := vfs.OpenIso(path)
	if err != nil {
		c.warnf(name, err, "Detected potential ISO but could not read it: %s", name)
		return
	}
	defer iso.Close()

	root, err := iso.Root()
	if err != nil {
		c.warnf(name, err, "Detected potential ISO but could not read it: %s", name)
		return
	}
	c.searchIsoDirectory(root, utils.Combine(loc.folder, utils.SafeFolderName(name)))
}

func (c *Converter) searchIsoDirectory(d vfs.Directory, folder string) {
	names, err := d.List()
	if err != nil {
		c.errorf(d.Name(), err, "Error while searching %s: %v", d.Name(), err)
		return
	}
	finder := vfs.DirectoryFinder(d)
	for _, name := range names {
		e, err := d.GetElement(name)
		if err != nil {
			c.errorf(name, err, "Error while searching %s: %v", name, err)
			continue
		}
		switch el := e.(type) {
		case vfs.Directory:
			c.searchIsoDirectory(el, utils.Combine(folder, name))
		case vfs.File:
			if c.tooLarge(name, el.Size()) {
				continue
			}
			data, err := el.ReadAll()
			if err != nil {
				c.errorf(name, err, "Error while searching %s: %v", name, err)
				continue
			}
			c.searchBlob(data, name, "", folder, location{folder: folder}, finder, true)
		}
	}
}
