package convert

import (
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/mapper"
	"github.com/mogaika/mass_convert/status"
	"github.com/mogaika/mass_convert/utils"
)

// leaf dispatches a blob that is not a container. Blobs no probe
// recognises are ignored silently.
func (c *Converter) leaf(data []byte, outName string, folder string) {
	p := c.probe.Leaf(data)
	switch p.Class {
	case CLASS_TEXTURE_PACK:
		c.dispatch(func() { c.extractTextures(data, outName, folder) })
	case CLASS_MODEL:
		folder = utils.FolderOnlyPath(folder)
		outPath := c.driver.OutputPath(folder, outName)
		if c.skipOutput(outName, outPath) {
			return
		}
		c.dispatch(func() { c.convertModel(p.Model, data, outName, folder, outPath) })
	}
}

// skipOutput applies the conflict policy. With workers a path can also
// be taken by another leaf of the same run.
func (c *Converter) skipOutput(name string, path string) bool {
	exists := utils.FileExists(path)
	if !c.claim(path) && c.tasks != nil {
		exists = true
	}
	if Decide(c.cfg.ReplaceExisting, exists) == SKIP {
		c.skipf(name, "Skipped: %s", name)
		return true
	}
	return false
}

func (c *Converter) convertModel(kind formats.ModelKind, data []byte, outName string, folder string, outPath string) {
	model, err := c.lib.ReadModel(kind, data)
	if errors.Cause(err) == formats.ErrNoReader {
		c.missingReader(kind, outName, err)
		return
	}
	if err != nil {
		c.errorf(outName, err, "Error while converting %s: %v", outName, err)
		return
	}
	s, err := mapper.Map(model)
	if err != nil {
		if c.opts.Debug {
			log.Printf("[convert] %s record:\n%s", outName, utils.SDump(model))
		}
		c.errorf(outName, err, "Error while converting %s: %v", outName, err)
		return
	}

	if err := os.MkdirAll(folder, 0777); err != nil {
		c.errorf(outName, err, "Error while converting %s: %v", outName, err)
		return
	}
	ok, err := c.driver.Export(s, outName, outPath)
	if err != nil {
		if c.opts.Debug {
			log.Printf("[convert] %s scene:\n%s", outName, utils.SDump(s.Root))
		}
		c.errorf(outName, err, "Error while converting %s: %v", outName, err)
		return
	}
	if ok {
		c.log.Writef(status.MODEL_EXPORTED, "Converted: %s", outName)
		c.report.Add(ReportEntry{Name: outName, Kind: kind.String(), Outcome: OUTCOME_CONVERTED, Output: outPath})
	} else {
		c.log.Writef(status.MODEL_EXPORTED, "Failed: %s", outName)
		c.report.Add(ReportEntry{Name: outName, Kind: kind.String(), Outcome: OUTCOME_FAILED, Output: outPath})
	}

	c.copyImport(data, folder, outName, status.MODEL_COPIED)
}

// missingReader logs a kind without a record reader once per run; later
// models of that kind only reach the report.
func (c *Converter) missingReader(kind formats.ModelKind, outName string, err error) {
	if _, seen := c.noReader.LoadOrStore(kind, struct{}{}); !seen {
		c.log.Writef(status.ERROR, "No %v reader, %v models are not converted (first: %s)", kind, kind, outName)
	}
	c.report.Add(ReportEntry{Name: outName, Kind: kind.String(), Outcome: OUTCOME_ERROR, Error: errString(err)})
}

// TexturePackFolder is the folder a texture pack is extracted into.
func TexturePackFolder(folder string, name string) (string, string) {
	if !strings.Contains(strings.ToLower(name), "tpf") {
		name += ".tpf"
	}
	return utils.Combine(folder, utils.SafeFolderName(name)), name
}

func (c *Converter) extractTextures(data []byte, outName string, folder string) {
	folder, outName = TexturePackFolder(folder, outName)
	folder = utils.FolderOnlyPath(folder)

	pack, err := c.lib.ReadTexturePack(data)
	if err != nil {
		c.errorf(outName, err, "Error while converting %s: %v", outName, err)
		return
	}

	for _, tex := range pack.Textures {
		name := tex.Name + ".dds"
		path := utils.Combine(folder, name)
		if c.skipOutput(name, path) {
			continue
		}
		if err := writeFile(path, tex.Data); err != nil {
			c.errorf(name, err, "Error while converting %s: %v", name, err)
			continue
		}
		c.log.Writef(status.TEXTURE_EXPORTED, "Extracted: %s", name)
		c.report.Add(ReportEntry{Name: name, Kind: "TPF", Outcome: OUTCOME_EXTRACTED, Output: path})
	}

	c.copyImport(data, folder, outName, status.TEXTURE_COPIED)
}

// copyImport writes the decompressed source next to its export.
func (c *Converter) copyImport(data []byte, folder string, outName string, category status.Category) {
	if !c.cfg.CopyImport {
		return
	}
	path := utils.Combine(folder, outName)
	if Decide(c.cfg.ReplaceExisting, utils.FileExists(path)) == SKIP {
		return
	}
	if err := writeFile(path, data); err != nil {
		c.errorf(outName, err, "Error while copying %s: %v", outName, err)
		return
	}
	c.log.Writef(category, "Copied: %s", outName)
	c.report.Add(ReportEntry{Name: outName, Outcome: OUTCOME_COPIED, Output: path})
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		return errors.Wrapf(err, "Can't create folder for %q", path)
	}
	if err := ioutil.WriteFile(path, data, 0666); err != nil {
		return errors.Wrapf(err, "Can't write %q", path)
	}
	return nil
}

func (c *Converter) errorf(name string, err error, format string, args ...interface{}) {
	c.log.Writef(status.ERROR, format, args...)
	c.report.Add(ReportEntry{Name: name, Outcome: OUTCOME_ERROR, Error: errString(err)})
}

func (c *Converter) warnf(name string, err error, format string, args ...interface{}) {
	c.log.Writef(status.WARNING, format, args...)
	if c.opts.Debug && err != nil {
		log.Printf("[convert] %s: %+v", name, err)
	}
	c.report.Add(ReportEntry{Name: name, Outcome: OUTCOME_WARNING, Error: errString(err)})
}

func (c *Converter) skipf(name string, format string, args ...interface{}) {
	c.log.Writef(status.SKIP, format, args...)
	c.report.Add(ReportEntry{Name: name, Outcome: OUTCOME_SKIPPED})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
