package ingest

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/nxadm/tail"
)

// LogLine represents a raw line from a log source
type LogLine struct {
	Source    string
	Timestamp int64 // wall clock arrival
	Content   string
}

// Ingester defines the interface for log sources
type Ingester interface {
	Start() (<-chan LogLine, error)
	Stop() error
}

// FileTailer follows a single append-only log file. It starts at the
// current end of the file, survives the file being absent at startup,
// and resumes from offset zero when rotation or truncation is
// detected. Partial lines are held back until their terminator is
// written.
type FileTailer struct {
	path string
	t    *tail.Tail
}

// NewFileTailer creates a new tailer for a path
func NewFileTailer(path string) *FileTailer {
	return &FileTailer{
		path: path,
	}
}

// Start begins tailing the file and returns a channel of lines
func (f *FileTailer) Start() (<-chan LogLine, error) {
	// Skip everything already present; only new entries matter. When
	// the file does not exist yet there is nothing to skip, and the
	// seek must not apply to a file that appears later or its first
	// lines would be lost.
	var location *tail.SeekInfo
	if _, err := os.Stat(f.path); err == nil {
		location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	config := tail.Config{
		Location:  location,
		Follow:    true,
		ReOpen:    true, // rotation: reopen and read the new file from the start
		MustExist: false,
		Poll:      true, // polling works on every filesystem, inotify does not
		Logger:    tail.DiscardingLogger,
	}

	log.Printf("[TAILER] Starting tailer for %s (waiting if not present)", f.path)

	t, err := tail.TailFile(f.path, config)
	if err != nil {
		return nil, fmt.Errorf("failed to tail file %s: %w", f.path, err)
	}
	f.t = t

	out := make(chan LogLine)

	go func() {
		defer close(out)
		for line := range t.Lines {
			if line.Err != nil {
				// Transient read errors are expected around rotation
				continue
			}
			out <- LogLine{
				Source:    f.path,
				Timestamp: line.Time.Unix(),
				Content:   line.Text,
			}
		}
	}()

	return out, nil
}

// Stop stops the tailing
func (f *FileTailer) Stop() error {
	if f.t != nil {
		return f.t.Stop()
	}
	return nil
}
