package convert

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Outcome string

const (
	OUTCOME_CONVERTED Outcome = "converted"
	OUTCOME_FAILED    Outcome = "failed"
	OUTCOME_ERROR     Outcome = "error"
	OUTCOME_SKIPPED   Outcome = "skipped"
	OUTCOME_EXTRACTED Outcome = "extracted"
	OUTCOME_COPIED    Outcome = "copied"
	OUTCOME_WARNING   Outcome = "warning"
)

type ReportEntry struct {
	Name    string  `yaml:"name"`
	Kind    string  `yaml:"kind,omitempty"`
	Outcome Outcome `yaml:"outcome"`
	Output  string  `yaml:"output,omitempty"`
	Error   string  `yaml:"error,omitempty"`
}

// Report collects per entry outcomes of a run.
type Report struct {
	mu       sync.Mutex
	Started  time.Time       `yaml:"started"`
	Finished time.Time       `yaml:"finished"`
	Format   string          `yaml:"format"`
	Counts   map[Outcome]int `yaml:"counts"`
	Entries  []ReportEntry   `yaml:"entries"`
}

func NewReport(format string) *Report {
	return &Report{
		Started: time.Now(),
		Format:  format,
		Counts:  make(map[Outcome]int),
	}
}

func (r *Report) Add(e ReportEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, e)
	r.Counts[e.Outcome]++
}

func (r *Report) Count(o Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Counts[o]
}

func (r *Report) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = time.Now()
}

func (r *Report) Encode(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return errors.Wrapf(err, "Can't encode report")
	}
	return enc.Close()
}

func (r *Report) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Can't create report %q", path)
	}
	defer f.Close()
	return r.Encode(f)
}
