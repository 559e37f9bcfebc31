package convert

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/config"
	"github.com/mogaika/mass_convert/drivers/binder"
	"github.com/mogaika/mass_convert/drivers/bnd3"
	"github.com/mogaika/mass_convert/drivers/bxf"
	"github.com/mogaika/mass_convert/drivers/dcx"
	"github.com/mogaika/mass_convert/drivers/souls"
	"github.com/mogaika/mass_convert/drivers/tpf"
	"github.com/mogaika/mass_convert/export"
	"github.com/mogaika/mass_convert/formats"
	"github.com/mogaika/mass_convert/scene"
	"github.com/mogaika/mass_convert/status"
)

// testLibrary decodes every SMD4 blob into a single triangle, unless
// the blob mentions "bad".
type testLibrary struct {
	*souls.Library
}

func (l testLibrary) ReadModel(kind formats.ModelKind, b []byte) (formats.Model, error) {
	if kind != formats.MODEL_SMD4 {
		return l.Library.ReadModel(kind, b)
	}
	if bytes.Contains(b, []byte("bad")) {
		return nil, errors.New("broken record")
	}
	return &formats.SMD4{
		Meshes: []formats.SMD4Mesh{{
			Indices:  []int32{0, 1, 2},
			Vertices: make([]formats.SMD4Vertex, 3),
		}},
	}, nil
}

func smd4(tag string) []byte {
	return append([]byte("SMD4\x00\x00\x00\x00"), tag...)
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.ExportFormat = export.FORMAT_OBJ
	cfg.OutputToConsole = false
	cfg.OutputToLog = false
	return cfg
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "mass_convert")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

func writeTestFile(t *testing.T, path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0777); err != nil {
		t.Fatal(err)
	}
	if err := ioutil.WriteFile(path, data, 0666); err != nil {
		t.Fatal(err)
	}
}

// run converts paths and returns the flushed log lines.
func run(t *testing.T, cfg config.Config, opts Options, paths ...string) ([]string, *Report) {
	return runWith(t, cfg, opts, testLibrary{souls.NewLibrary()}, export.Native{}, paths...)
}

func runWith(t *testing.T, cfg config.Config, opts Options, lib formats.Library, e export.Exporter, paths ...string) ([]string, *Report) {
	var buf bytes.Buffer
	l := status.New(0)
	l.AddSink(&buf)
	c := New(&cfg, lib, e, l, opts)
	report := c.Run(paths)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	text := strings.TrimSpace(buf.String())
	if text == "" {
		return nil, report
	}
	return strings.Split(text, "\n"), report
}

func expectLines(t *testing.T, got []string, expected ...string) {
	if strings.Join(got, "\n") != strings.Join(expected, "\n") {
		t.Errorf("log %q; expected %q", got, expected)
	}
}

func expectFile(t *testing.T, path string) {
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected output %q: %v", path, err)
	}
}

func TestSearchFolder(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	writeTestFile(t, filepath.Join(dir, "c0000.bnd"), bnd3.Write("07D7R6", []binder.File{
		{Name: `N:\data\m1.smd`, ID: 1, Data: smd4("m1")},
		{Name: `N:\data\m2.smd`, ID: 2, Data: smd4("m2")},
	}))
	writeTestFile(t, filepath.Join(dir, "c1000.smd"), smd4("c1000"))
	writeTestFile(t, filepath.Join(dir, "readme.txt"), []byte("nothing to see"))

	lines, report := run(t, testConfig(), Options{}, dir)
	expectLines(t, lines,
		"Converted: m1.smd",
		"Converted: m2.smd",
		"Converted: c1000.smd")
	if report.Count(OUTCOME_CONVERTED) != 3 {
		t.Errorf("converted count %d; expected 3", report.Count(OUTCOME_CONVERTED))
	}
	expectFile(t, filepath.Join(dir, "c0000-bnd", "data", "m1.smd.obj"))
	expectFile(t, filepath.Join(dir, "c0000-bnd", "data", "m2.smd.obj"))
	expectFile(t, filepath.Join(dir, "c1000.smd.obj"))
}

func TestReplaceExisting(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeTestFile(t, filepath.Join(dir, "c1000.smd"), smd4("c1000"))

	cfg := testConfig()
	lines, _ := run(t, cfg, Options{}, dir)
	expectLines(t, lines, "Converted: c1000.smd")

	lines, report := run(t, cfg, Options{}, dir)
	expectLines(t, lines, "Skipped: c1000.smd")
	if report.Count(OUTCOME_SKIPPED) != 1 {
		t.Errorf("skipped count %d; expected 1", report.Count(OUTCOME_SKIPPED))
	}

	cfg.ReplaceExisting = true
	lines, _ = run(t, cfg, Options{}, dir)
	expectLines(t, lines, "Converted: c1000.smd")
}

func TestCompressedContainer(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	packed, err := dcx.Compress(bnd3.Write("07D7R6", []binder.File{
		{Name: "m1.smd", Data: smd4("m1")},
	}))
	if err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(dir, "c0000.chrbnd.dcx"), packed)

	lines, _ := run(t, testConfig(), Options{}, dir)
	expectLines(t, lines, "Converted: m1.smd")
	expectFile(t, filepath.Join(dir, "c0000-chrbnd-dcx", "m1.smd.obj"))
}

func TestSplitContainer(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	header, data := bxf.Write3("07D7R6", []binder.File{
		{Name: "m1.smd", Data: smd4("m1")},
	})
	writeTestFile(t, filepath.Join(dir, "c0000.chrbhd"), header)
	writeTestFile(t, filepath.Join(dir, "c0000.chrbdt"), data)
	// header without its data part
	writeTestFile(t, filepath.Join(dir, "lonely.chrbhd"), header)

	lines, report := run(t, testConfig(), Options{}, dir)
	expectLines(t, lines, "Converted: m1.smd")
	if report.Count(OUTCOME_WARNING) != 0 || report.Count(OUTCOME_ERROR) != 0 {
		t.Errorf("unexpected problems: %+v", report.Entries)
	}
}

func TestNestingDepth(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	inner := bnd3.Write("07D7R6", []binder.File{{Name: "m1.smd", Data: smd4("m1")}})
	writeTestFile(t, filepath.Join(dir, "outer.bnd"), bnd3.Write("07D7R6", []binder.File{
		{Name: "inner.bnd", Data: inner},
	}))

	cfg := testConfig()
	cfg.MaxDepth = 1
	lines, _ := run(t, cfg, Options{}, dir)
	expectLines(t, lines, "Container nested too deep or inside itself, treating as file: inner.bnd")

	cfg.MaxDepth = 2
	lines, _ = run(t, cfg, Options{}, dir)
	expectLines(t, lines, "Converted: m1.smd")
	expectFile(t, filepath.Join(dir, "outer-bnd", "inner-bnd", "m1.smd.obj"))
}

// selfLibrary reads every archive as holding one entry identical to
// the archive itself.
type selfLibrary struct {
	testLibrary
}

func (selfLibrary) ReadContainer(kind formats.ContainerKind, b []byte) (*formats.Container, error) {
	return &formats.Container{Kind: kind, Entries: []formats.Entry{{Name: "self.bnd", Data: b}}}, nil
}

func TestContainerInsideItself(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeTestFile(t, filepath.Join(dir, "outer.bnd"), bnd3.Write("07D7R6", []binder.File{
		{Name: "m1.smd", Data: smd4("m1")},
	}))

	cfg := testConfig()
	if cfg.MaxDepth < 2 {
		t.Fatalf("default depth %d leaves no room for the digest check", cfg.MaxDepth)
	}
	lines, report := runWith(t, cfg, Options{}, selfLibrary{testLibrary{souls.NewLibrary()}}, export.Native{}, dir)
	expectLines(t, lines, "Container nested too deep or inside itself, treating as file: self.bnd")
	if report.Count(OUTCOME_WARNING) != 1 {
		t.Errorf("warning count %d; expected 1", report.Count(OUTCOME_WARNING))
	}
}

// tailModelLibrary also takes any blob ending in the SMD4 magic for a
// model.
type tailModelLibrary struct {
	testLibrary
}

func (l tailModelLibrary) IsModel(kind formats.ModelKind, b []byte) bool {
	if kind == formats.MODEL_SMD4 && bytes.HasSuffix(b, []byte("SMD4")) {
		return true
	}
	return l.testLibrary.IsModel(kind, b)
}

func TestUnreadableContainer(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	broken := make([]byte, bnd3.RAW_HEADER_SIZE)
	copy(broken, bnd3.MAGIC)
	binary.LittleEndian.PutUint32(broken[0x10:], 1000)
	writeTestFile(t, filepath.Join(dir, "broken.bnd"), append(broken, "SMD4"...))

	lines, report := runWith(t, testConfig(), Options{}, tailModelLibrary{testLibrary{souls.NewLibrary()}}, export.Native{}, dir)
	expectLines(t, lines,
		"Detected potential BND3 but could not read it: broken.bnd",
		"Converted: broken.bnd")
	if report.Count(OUTCOME_WARNING) != 1 || report.Count(OUTCOME_CONVERTED) != 1 {
		t.Errorf("report %+v; expected one warning and one conversion", report.Entries)
	}
}

// refusingExporter declines every scene without an error.
type refusingExporter struct{}

func (refusingExporter) SupportedFormats() []string { return []string{export.FORMAT_OBJ} }

func (refusingExporter) Export(s *scene.Scene, path string, format string, opts export.Options) (bool, error) {
	return false, nil
}

func TestExporterFailed(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeTestFile(t, filepath.Join(dir, "c1000.smd"), smd4("c1000"))

	lines, report := runWith(t, testConfig(), Options{}, testLibrary{souls.NewLibrary()}, refusingExporter{}, dir)
	expectLines(t, lines, "Failed: c1000.smd")
	if report.Count(OUTCOME_FAILED) != 1 {
		t.Errorf("failed count %d; expected 1", report.Count(OUTCOME_FAILED))
	}
}

func TestNotRecursive(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)

	inner := bnd3.Write("07D7R6", []binder.File{{Name: "m1.smd", Data: smd4("m1")}})
	writeTestFile(t, filepath.Join(dir, "outer.bnd"), bnd3.Write("07D7R6", []binder.File{
		{Name: "inner.bnd", Data: inner},
		{Name: "m0.smd", Data: smd4("m0")},
	}))

	cfg := testConfig()
	cfg.BinderRecursive = false
	lines, _ := run(t, cfg, Options{}, dir)
	expectLines(t, lines, "Converted: m0.smd")
}

func TestSizeLimit(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	model := smd4("c1000")
	writeTestFile(t, filepath.Join(dir, "c1000.smd"), model)

	cfg := testConfig()
	cfg.MaxFileSize = 4
	lines, _ := run(t, cfg, Options{}, dir)
	expectLines(t, lines, "Skipped c1000.smd: 13 bytes is over the size limit")
}

func TestConvertError(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeTestFile(t, filepath.Join(dir, "broken.smd"), smd4("bad"))

	lines, report := run(t, testConfig(), Options{}, dir)
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "Error while converting broken.smd: ") {
		t.Errorf("log %q; expected conversion error", lines)
	}
	if report.Count(OUTCOME_ERROR) != 1 {
		t.Errorf("error count %d; expected 1", report.Count(OUTCOME_ERROR))
	}
}

func TestMissingReader(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	for _, name := range []string{"a.mdl", "b.mdl", "c.mdl"} {
		writeTestFile(t, filepath.Join(dir, name), []byte("MDL4\x00\x00\x00\x00"+name))
	}

	lines, report := run(t, testConfig(), Options{}, dir)
	expectLines(t, lines, "No MDL4 reader, MDL4 models are not converted (first: a.mdl)")
	if report.Count(OUTCOME_ERROR) != 3 {
		t.Errorf("error count %d; expected 3", report.Count(OUTCOME_ERROR))
	}
}

func TestExtractTextures(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeTestFile(t, filepath.Join(dir, "m10.tpf"), tpf.Write([]tpf.Texture{
		{Name: "wall", Data: []byte("DDS wall")},
		{Name: "floor", Data: []byte("DDS floor")},
	}))

	lines, _ := run(t, testConfig(), Options{}, dir)
	expectLines(t, lines, "Extracted: wall.dds", "Extracted: floor.dds")

	b, err := ioutil.ReadFile(filepath.Join(dir, "m10-tpf", "wall.dds"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "DDS wall" {
		t.Errorf("wall.dds=%q", b)
	}
}

func TestTexturePackFolder(t *testing.T) {
	for _, c := range []struct {
		name, folder, outName string
	}{
		{"m10.tpf", "m10-tpf", "m10.tpf"},
		{"m10.tpf.dcx", "m10-tpf-dcx", "m10.tpf.dcx"},
		{"icons", "icons-tpf", "icons.tpf"},
	} {
		folder, outName := TexturePackFolder("out", c.name)
		if folder != filepath.Join("out", c.folder) || outName != c.outName {
			t.Errorf("TexturePackFolder(%q)=%q, %q; expected %q, %q", c.name, folder, outName, c.folder, c.outName)
		}
	}
}

func TestCopyImport(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeTestFile(t, filepath.Join(dir, "c0000.bnd"), bnd3.Write("07D7R6", []binder.File{
		{Name: "m1.smd", Data: smd4("m1")},
	}))

	cfg := testConfig()
	cfg.CopyImport = true
	lines, _ := run(t, cfg, Options{}, dir)
	expectLines(t, lines, "Converted: m1.smd", "Copied: m1.smd")
	expectFile(t, filepath.Join(dir, "c0000-bnd", "m1.smd"))
}

func TestRootFolderOverride(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	writeTestFile(t, filepath.Join(dir, "in", "c1000.smd"), smd4("c1000"))

	cfg := testConfig()
	cfg.RootFolder = filepath.Join(dir, "in")
	cfg.RootFolderOverride = filepath.Join(dir, "out")
	run(t, cfg, Options{}, filepath.Join(dir, "in"))
	expectFile(t, filepath.Join(dir, "out", "c1000.smd.obj"))
}

func TestWorkers(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	files := make([]binder.File, 16)
	for i := range files {
		name := string(rune('a'+i)) + ".smd"
		files[i] = binder.File{Name: name, ID: int32(i), Data: smd4(name)}
	}
	writeTestFile(t, filepath.Join(dir, "many.bnd"), bnd3.Write("07D7R6", files))

	_, report := run(t, testConfig(), Options{Workers: 4}, dir)
	if report.Count(OUTCOME_CONVERTED) != len(files) {
		t.Errorf("converted %d; expected %d", report.Count(OUTCOME_CONVERTED), len(files))
	}
}

func TestReportEncode(t *testing.T) {
	r := NewReport("obj")
	r.Add(ReportEntry{Name: "c1000.smd", Kind: "SMD4", Outcome: OUTCOME_CONVERTED})
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"format: obj", "converted: 1", "name: c1000.smd", "kind: SMD4"} {
		if !strings.Contains(buf.String(), s) {
			t.Errorf("report %q lacks %q", buf.String(), s)
		}
	}
}
