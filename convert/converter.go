// Package convert walks folders and archives and converts every model
// and texture pack found.
package convert

import (
	"log"
	"strings"
	"sync"

	"github.com/mogaika/mass_convert/config"
	"github.com/mogaika/mass_convert/export"
	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/status"
	"github.com/mogaika/mass_convert/vfs"
)

type Options struct {
	// dump failing records and scenes to the process log
	Debug bool
	// leaf dispatch concurrency, 1 or less is sequential
	Workers int
}

type Converter struct {
	cfg    *config.Config
	lib    formats.Library
	log    *status.Log
	probe  *Prober
	driver *export.Driver
	report *Report
	opts   Options

	tasks    chan func()
	wg       sync.WaitGroup
	claims   sync.Map
	noReader sync.Map
}

func New(cfg *config.Config, lib formats.Library, exporter export.Exporter, l *status.Log, opts Options) *Converter {
	format := export.ResolveFormat(exporter, cfg.ExportFormat)
	if format != strings.ToLower(cfg.ExportFormat) {
		log.Printf("[convert] Export format %q is not supported, using %q", cfg.ExportFormat, format)
	}
	return &Converter{
		cfg:   cfg,
		lib:   lib,
		log:   l,
		probe: NewProber(cfg, lib),
		driver: &export.Driver{
			Exporter:    exporter,
			Format:      format,
			Options:     export.Options{Flags: cfg.PostProcess, Scale: cfg.Scale},
			FixRootNode: cfg.FixRootNode,
		},
		report: NewReport(format),
		opts:   opts,
	}
}

func (c *Converter) Format() string {
	return c.driver.Format
}

// Run converts every path, waits for queued leaves and returns the run
// report.
func (c *Converter) Run(paths []string) *Report {
	c.startWorkers()
	for _, path := range paths {
		c.SearchPath(path)
	}
	c.stopWorkers()
	c.report.finish()
	return c.report
}

func (c *Converter) startWorkers() {
	if c.opts.Workers <= 1 {
		return
	}
	c.tasks = make(chan func(), c.opts.Workers)
	for i := 0; i < c.opts.Workers; i++ {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			for task := range c.tasks {
				task()
			}
		}()
	}
}

func (c *Converter) stopWorkers() {
	if c.tasks == nil {
		return
	}
	close(c.tasks)
	c.wg.Wait()
	c.tasks = nil
}

// dispatch runs a leaf task in place or queues it for the workers.
func (c *Converter) dispatch(task func()) {
	if c.tasks == nil {
		task()
	} else {
		c.tasks <- task
	}
}

// claim reserves an output path for this run, so concurrent leaves
// never write the same file.
func (c *Converter) claim(path string) bool {
	_, taken := c.claims.LoadOrStore(strings.ToLower(path), struct{}{})
	return !taken
}

// SearchPath converts a file or every file below a folder.
func (c *Converter) SearchPath(path string) {
	e, err := vfs.Open(path)
	if err != nil {
		c.errorf(path, err, "Error while searching %s: %v", path, err)
		return
	}
	switch el := e.(type) {
	case *vfs.DirectoryDriver:
		c.SearchFolder(el)
	case *vfs.DirectoryDriverFile:
		c.SearchFile(el)
	}
}

func (c *Converter) SearchFolder(d vfs.Directory) {
	vfs.Walk(d, func(f vfs.File, err error) {
		if err != nil {
			c.errorf(d.Name(), err, "Error while searching %s: %v", d.Name(), err)
			return
		}
		if ddf, ok := f.(*vfs.DirectoryDriverFile); ok {
			c.SearchFile(ddf)
		}
	})
}
