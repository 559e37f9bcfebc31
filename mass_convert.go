package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mogaika/mass_convert/config"
	"github.com/mogaika/mass_convert/convert"
	"github.com/mogaika/mass_convert/drivers/souls"
	"github.com/mogaika/mass_convert/export"
	"github.com/mogaika/mass_convert/status"
)

func exeDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

func main() {
	dir := exeDir()

	var configPath, flagsPath, format, reportPath, logPath string
	var replace, noreplace, debug bool
	var workers int
	flag.StringVar(&configPath, "config", filepath.Join(dir, config.ConfigFileName), "Path to config file")
	flag.StringVar(&flagsPath, "flags", filepath.Join(dir, config.PostProcessFileName), "Path to post process flags file")
	flag.StringVar(&format, "format", "", "Export format override (fbx, fbxa, collada, obj, gltf2, glb2)")
	flag.BoolVar(&replace, "replace", false, "Replace existing output files")
	flag.BoolVar(&noreplace, "noreplace", false, "Keep existing output files")
	flag.StringVar(&reportPath, "report", "", "Write yaml run report to this path")
	flag.BoolVar(&debug, "debug", false, "Dump failing records to the process log")
	flag.IntVar(&workers, "workers", 1, "Parallel conversions, 1 is sequential")
	flag.StringVar(&logPath, "log", filepath.Join(dir, config.ConversionLogFileName), "Conversion log file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path>...\n", filepath.Base(os.Args[0]))
		fmt.Fprint(flag.CommandLine.Output(), "Archives are unpacked and texture packs extracted. Models convert only\n"+
			"for formats with a registered record reader; the others are reported once per run.\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("[main] %v, using defaults", err)
	}
	if cfg.PostProcess, err = config.LoadPostProcess(flagsPath); err != nil {
		log.Printf("[main] %v", err)
	}
	if format != "" {
		cfg.ExportFormat = format
	}
	if replace {
		cfg.ReplaceExisting = true
	}
	if noreplace {
		cfg.ReplaceExisting = false
	}

	l, err := status.FromConfig(&cfg, logPath)
	if err != nil {
		log.Printf("[main] %v", err)
		cfg.OutputToLog = false
		if l, err = status.FromConfig(&cfg, logPath); err != nil {
			log.Fatal(err)
		}
	}

	c := convert.New(&cfg, souls.NewLibrary(), export.Native{}, l, convert.Options{
		Debug:   debug,
		Workers: workers,
	})
	l.Writef(status.INFO, "Converting to %s", c.Format())
	report := c.Run(flag.Args())
	l.Writef(status.INFO, "Done: %d converted, %d failed, %d errors, %d skipped",
		report.Count(convert.OUTCOME_CONVERTED), report.Count(convert.OUTCOME_FAILED),
		report.Count(convert.OUTCOME_ERROR), report.Count(convert.OUTCOME_SKIPPED))

	if reportPath != "" {
		if err := report.Save(reportPath); err != nil {
			log.Printf("[main] %v", err)
		}
	}
	if err := l.Close(); err != nil {
		log.Printf("[main] %v", err)
	}
}
