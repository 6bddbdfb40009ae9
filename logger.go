package tara

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// AttemptLogger records every completion attempt made by the fallback loop.
type AttemptLogger interface {
	LogAttempt(attempt AttemptLog) error
}

// NewAttemptLogFilePath returns a file path named after the time and the
// first model so logs from different model orders are easy to tell apart.
func NewAttemptLogFilePath(dir, model string) string {
	return fmt.Sprintf(
		"%s/%d.%s.json",
		strings.TrimRight(dir, "/"),
		time.Now().Unix(),
		strings.NewReplacer(":", "_", "/", "_", ".", "-").Replace(strings.ToLower(model)),
	)
}

// AttemptLog is one model attempt inside a completion request.
type AttemptLog struct {
	Attempt     int       `json:"attempt"`
	Model       string    `json:"model"`
	Providers   []string  `json:"providers,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	LatencyMs   int64     `json:"latency_ms"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	ResponseLen int       `json:"response_len,omitempty"`
}

// FileAttemptLogger buffers attempts and writes them as one JSON document on Flush.
type FileAttemptLogger struct {
	mu       sync.Mutex
	attempts []AttemptLog
	writer   io.Writer
}

func NewFileAttemptLogger(writer io.Writer) *FileAttemptLogger {
	return &FileAttemptLogger{
		attempts: make([]AttemptLog, 0),
		writer:   writer,
	}
}

func (l *FileAttemptLogger) LogAttempt(attempt AttemptLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts = append(l.attempts, attempt)
	return nil
}

// Flush writes all buffered attempts and clears the buffer.
func (l *FileAttemptLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"completion_session": map[string]any{
			"timestamp": time.Now(),
			"attempts":  l.attempts,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal attempt log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write attempt log: %w", err)
	}

	l.attempts = l.attempts[:0]
	return nil
}

type NoOpAttemptLogger struct{}

func NewNoOpAttemptLogger() *NoOpAttemptLogger {
	return &NoOpAttemptLogger{}
}

func (nop *NoOpAttemptLogger) LogAttempt(attempt AttemptLog) error {
	return nil
}

// StdoutAttemptLogger writes each attempt as a JSON line (Lambda/CloudWatch).
type StdoutAttemptLogger struct {
	out io.Writer
}

func NewStdoutAttemptLogger() *StdoutAttemptLogger {
	return &StdoutAttemptLogger{out: os.Stdout}
}

func (l *StdoutAttemptLogger) LogAttempt(attempt AttemptLog) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
