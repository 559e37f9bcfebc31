// Package status is the conversion event log. Lines are buffered and
// flushed to every sink by a background ticker.
package status

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/mass_convert/config"
)

type Category int

const (
	INFO Category = iota
	MODEL_EXPORTED
	TEXTURE_EXPORTED
	MODEL_COPIED
	TEXTURE_COPIED
	WARNING
	ERROR
	SKIP
	categoriesCount
)

func (c Category) String() string {
	switch c {
	case INFO:
		return "info"
	case MODEL_EXPORTED:
		return "model exported"
	case TEXTURE_EXPORTED:
		return "texture exported"
	case MODEL_COPIED:
		return "model copied"
	case TEXTURE_COPIED:
		return "texture copied"
	case WARNING:
		return "warning"
	case ERROR:
		return "error"
	case SKIP:
		return "skip"
	}
	return "unknown"
}

const BANNER_TIME_FORMAT = "01-02-2006-03:04:05"

type Log struct {
	mu      sync.Mutex
	lines   []string
	sinks   []io.Writer
	files   []*os.File
	enabled [categoriesCount]bool
	counts  [categoriesCount]int

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// New starts the flushing goroutine. A non positive interval disables
// the ticker; lines then go out on Flush and Close only.
func New(interval time.Duration) *Log {
	l := &Log{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for i := range l.enabled {
		l.enabled[i] = true
	}
	go l.run(interval)
	return l
}

// FromConfig opens the sinks and category toggles the config asks for.
// logPath is used when file output is on.
func FromConfig(c *config.Config, logPath string) (*Log, error) {
	l := New(c.LogUpdateInterval)
	l.Enable(TEXTURE_EXPORTED, c.OutputTexturesFound)
	l.Enable(TEXTURE_COPIED, c.OutputTexturesFound)
	l.Enable(MODEL_EXPORTED, c.OutputModelsFound)
	l.Enable(MODEL_COPIED, c.OutputModelsCopied)
	l.Enable(WARNING, c.LogWarnings)
	l.Enable(ERROR, c.LogErrors)
	l.Enable(SKIP, c.LogSkips)
	if c.OutputToConsole {
		l.AddSink(os.Stdout)
	}
	if c.OutputToLog {
		if err := l.OpenFile(logPath); err != nil {
			l.Close()
			return nil, err
		}
	}
	return l, nil
}

func (l *Log) run(interval time.Duration) {
	defer close(l.done)
	if interval <= 0 {
		<-l.stop
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Flush()
		case <-l.stop:
			return
		}
	}
}

func (l *Log) AddSink(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, w)
}

// OpenFile appends to path and writes the start banner.
func (l *Log) OpenFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if err != nil {
		return errors.Wrapf(err, "Can't open log %q", path)
	}
	fmt.Fprintf(f, "[File Log Started: %s]\n", time.Now().Format(BANNER_TIME_FORMAT))

	l.mu.Lock()
	defer l.mu.Unlock()
	l.files = append(l.files, f)
	l.sinks = append(l.sinks, f)
	return nil
}

func (l *Log) Enable(c Category, on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled[c] = on
}

// Writef queues a line. Disabled categories are still counted.
func (l *Log) Writef(c Category, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[c]++
	if l.enabled[c] {
		l.lines = append(l.lines, fmt.Sprintf(format, args...))
	}
}

func (l *Log) Count(c Category) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[c]
}

func (l *Log) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flush()
}

func (l *Log) flush() {
	if len(l.lines) == 0 {
		return
	}
	for _, w := range l.sinks {
		for _, line := range l.lines {
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				log.Printf("[status] sink write error: %v", err)
				break
			}
		}
	}
	l.lines = l.lines[:0]
}

// Close stops the ticker, flushes what is left and closes files with the
// end banner.
func (l *Log) Close() error {
	var result error
	l.once.Do(func() {
		close(l.stop)
		<-l.done

		l.mu.Lock()
		defer l.mu.Unlock()
		l.flush()
		for _, f := range l.files {
			fmt.Fprintf(f, "[File Log Ended: %s]\n", time.Now().Format(BANNER_TIME_FORMAT))
			if err := f.Close(); err != nil && result == nil {
				result = errors.Wrapf(err, "Can't close log %q", f.Name())
			}
		}
		l.files = nil
	})
	return result
}
