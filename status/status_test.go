package status

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mogaika/mass_convert/config"
)

func TestLogFlushOnClose(t *testing.T) {
	var buf bytes.Buffer
	l := New(0)
	l.AddSink(&buf)
	l.Enable(SKIP, false)

	l.Writef(MODEL_EXPORTED, "Converted: %s", "c1000")
	l.Writef(SKIP, "Skipped: %s", "c1000")
	l.Writef(ERROR, "Failed: %s", "c2000")
	if buf.Len() != 0 {
		t.Errorf("written before flush: %q", buf.String())
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	expected := "Converted: c1000\nFailed: c2000\n"
	if buf.String() != expected {
		t.Errorf("log %q; expected %q", buf.String(), expected)
	}
	if l.Count(SKIP) != 1 {
		t.Errorf("Count(SKIP)=%d; expected 1", l.Count(SKIP))
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close()=%v", err)
	}
}

func TestFromConfigToggles(t *testing.T) {
	for _, c := range []struct {
		found, copied bool
		expected      string
	}{
		{true, true, "Converted: c1000\nCopied: c1000\n"},
		{false, true, "Copied: c1000\n"},
		{true, false, "Converted: c1000\n"},
		{false, false, ""},
	} {
		cfg := config.Default()
		cfg.OutputToConsole = false
		cfg.OutputToLog = false
		cfg.LogUpdateInterval = 0
		cfg.OutputModelsFound = c.found
		cfg.OutputModelsCopied = c.copied
		l, err := FromConfig(&cfg, "")
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		l.AddSink(&buf)
		l.Writef(MODEL_EXPORTED, "Converted: %s", "c1000")
		l.Writef(MODEL_COPIED, "Copied: %s", "c1000")
		if err := l.Close(); err != nil {
			t.Fatal(err)
		}
		if buf.String() != c.expected {
			t.Errorf("FromConfig(found=%v, copied=%v) log %q; expected %q", c.found, c.copied, buf.String(), c.expected)
		}
		if l.Count(MODEL_EXPORTED) != 1 {
			t.Errorf("Count(MODEL_EXPORTED)=%d; expected 1", l.Count(MODEL_EXPORTED))
		}
	}
}

func TestLogTicker(t *testing.T) {
	var buf safeBuffer
	l := New(5 * time.Millisecond)
	defer l.Close()
	l.AddSink(&buf)
	l.Writef(INFO, "hello")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if buf.String() == "hello\n" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("ticker did not flush, got %q", buf.String())
}

func TestLogFileBanners(t *testing.T) {
	dir, err := ioutil.TempDir("", "status")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "converter.log")
	l := New(0)
	if err := l.OpenFile(path); err != nil {
		t.Fatal(err)
	}
	l.Writef(MODEL_EXPORTED, "Converted: c1000")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines; expected 3: %q", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "[File Log Started: ") || !strings.HasPrefix(lines[2], "[File Log Ended: ") {
		t.Errorf("banners missing: %q", data)
	}
	if lines[1] != "Converted: c1000" {
		t.Errorf("line %q; expected Converted: c1000", lines[1])
	}
}
