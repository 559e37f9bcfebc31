package config

import (
	"bytes"
	"io"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	DefaultExportFormat   = "fbx"
	DefaultLogInterval    = 2150 * time.Millisecond
	DefaultMaxDepth       = 16
	ConfigFileName        = "config.txt"
	PostProcessFileName   = "assimpflags.txt"
	ConversionLogFileName = "converter.log"
)

// Config is built once per run and never changed afterwards.
type Config struct {
	OutputToConsole     bool
	OutputToLog         bool
	OutputTexturesFound bool
	OutputModelsFound   bool
	OutputModelsCopied  bool
	ReplaceExisting     bool

	SearchMDL4     bool
	SearchSMD4     bool
	SearchFLVER0   bool
	SearchFLVER2   bool
	SearchTextures bool

	SearchBND3      bool
	SearchBND4      bool
	SearchBXF3      bool
	SearchBXF4      bool
	SearchZero3     bool
	SearchISO       bool
	BinderRecursive bool

	ExportFormat string
	FixRootNode  bool
	CopyImport   bool
	MaxFileSize  int64
	Scale        float32

	RootFolder         string
	RootFolderOverride string

	LogWarnings       bool
	LogErrors         bool
	LogSkips          bool
	LogUpdateInterval time.Duration

	MaxDepth    int
	PostProcess PostProcess
}

func Default() Config {
	return Config{
		OutputToConsole:     true,
		OutputToLog:         true,
		OutputTexturesFound: true,
		OutputModelsFound:   true,
		OutputModelsCopied:  true,
		ReplaceExisting:     false,
		SearchMDL4:          true,
		SearchSMD4:          true,
		SearchFLVER0:        true,
		SearchFLVER2:        true,
		SearchTextures:      true,
		SearchBND3:          true,
		SearchBND4:          true,
		SearchBXF3:          true,
		SearchBXF4:          true,
		SearchZero3:         false,
		BinderRecursive:     true,
		ExportFormat:        DefaultExportFormat,
		FixRootNode:         true,
		Scale:               1,
		LogWarnings:         true,
		LogErrors:           true,
		LogSkips:            true,
		LogUpdateInterval:   DefaultLogInterval,
		MaxDepth:            DefaultMaxDepth,
	}
}

// Parse reads "key = value" lines over Default(). Unknown keys are ignored,
// malformed values keep their defaults.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return cfg, errors.Wrapf(err, "Failed to read config")
	}
	lines, err := ParseLines(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if err != nil {
		return cfg, err
	}

	values := make(map[string]string, len(lines))
	for _, l := range lines {
		values[strings.ToLower(strings.TrimSpace(l.Key))] = strings.TrimSpace(l.Value)
	}

	boolKey := func(key string, dst *bool) {
		if v, ok := values[key]; ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			} else {
				log.Printf("[config] Bad bool value %q for %q", v, key)
			}
		}
	}

	boolKey("outputtoconsole", &cfg.OutputToConsole)
	boolKey("outputtolog", &cfg.OutputToLog)
	boolKey("outputtexturesfound", &cfg.OutputTexturesFound)
	boolKey("outputmodelsfound", &cfg.OutputModelsFound)
	boolKey("outputmodelscopied", &cfg.OutputModelsCopied)
	boolKey("replaceexistingfiles", &cfg.ReplaceExisting)
	boolKey("searchformdl4", &cfg.SearchMDL4)
	boolKey("searchforsmd4", &cfg.SearchSMD4)
	boolKey("searchforflver0", &cfg.SearchFLVER0)
	boolKey("searchforflver2", &cfg.SearchFLVER2)
	boolKey("searchfortextures", &cfg.SearchTextures)
	boolKey("searchbnd3", &cfg.SearchBND3)
	boolKey("searchbnd4", &cfg.SearchBND4)
	cfg.SearchBXF3 = cfg.SearchBND3
	cfg.SearchBXF4 = cfg.SearchBND4
	boolKey("searchbxf3", &cfg.SearchBXF3)
	boolKey("searchbxf4", &cfg.SearchBXF4)
	boolKey("searchzero3", &cfg.SearchZero3)
	boolKey("searchiso", &cfg.SearchISO)
	boolKey("binderrecursivesearch", &cfg.BinderRecursive)
	boolKey("fixrootnode", &cfg.FixRootNode)
	boolKey("copyimport", &cfg.CopyImport)
	boolKey("logwarnings", &cfg.LogWarnings)
	boolKey("logerrors", &cfg.LogErrors)
	boolKey("logskips", &cfg.LogSkips)

	if v, ok := values["exportformat"]; ok && v != "" {
		cfg.ExportFormat = strings.ToLower(v)
	}
	if v, ok := values["maxfilesize"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			cfg.MaxFileSize = n
		}
	}
	if v, ok := values["scale"]; ok {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f != 0 {
			cfg.Scale = float32(f)
		}
	}
	if v, ok := values["logupdateinterval"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LogUpdateInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v, ok := values["maxdepth"]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxDepth = n
		}
	}
	cfg.RootFolder = values["rootfolder"]
	cfg.RootFolderOverride = values["rootfolderoverride"]

	return cfg, nil
}

// Load parses the file at path. A missing file is created empty and
// defaults are returned.
func Load(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if f, err := os.Create(path); err == nil {
				f.Close()
			}
			return Default(), nil
		}
		return Default(), errors.Wrapf(err, "Failed to open config %q", path)
	}
	return Parse(bytes.NewReader(data))
}

// OutputFolder applies the root folder override to an output folder.
func (c *Config) OutputFolder(folder string) string {
	if c.RootFolder == "" || c.RootFolderOverride == "" {
		return folder
	}
	if strings.HasPrefix(strings.ToLower(folder), strings.ToLower(c.RootFolder)) {
		return c.RootFolderOverride + folder[len(c.RootFolder):]
	}
	return folder
}
