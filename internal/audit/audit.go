package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/xBLACKSTONE/xKippo-lite/internal/parser"
)

// Logger appends parsed events to a JSONL audit trail. The trail is
// write-only diagnostics; nothing in the process ever reads it back.
type Logger struct {
	mu       sync.Mutex
	filePath string
}

// NewLogger creates an audit logger writing to filePath
func NewLogger(filePath string) *Logger {
	return &Logger{
		filePath: filePath,
	}
}

// LogEvent appends one event in a thread-safe manner
func (l *Logger) LogEvent(evt *parser.ParsedEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(evt); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}
