package event

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/logger"
)

// DeadLetterSchemaVersion versions the DeadLetterEntry line format
const DeadLetterSchemaVersion = "1.0"

// DeadLetterEntry is one JSONL line: an event that exhausted its retries
type DeadLetterEntry struct {
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	Event         Event     `json:"event"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
}

// DeadLetterWriter appends undeliverable events to a JSONL file
type DeadLetterWriter struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewDeadLetterWriter opens path for appending, creating parent directories
func NewDeadLetterWriter(path string) (*DeadLetterWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create dead-letter directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, DeadLetterFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to open dead-letter file: %w", err)
	}
	return &DeadLetterWriter{file: f, now: time.Now}, nil
}

// Write appends one entry and logs the event's user_id metadata, if any
func (dlw *DeadLetterWriter) Write(event Event, attempts int, lastError error) error {
	entry := DeadLetterEntry{
		SchemaVersion: DeadLetterSchemaVersion,
		Timestamp:     dlw.now().UTC(),
		Event:         event,
		Attempts:      attempts,
	}
	if lastError != nil {
		entry.LastError = lastError.Error()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode dead-letter entry for %s: %w", event.Type, err)
	}

	logger.FromContext(context.Background()).Warn(LogMsgEventDeadLettered,
		"event_type", event.Type,
		"user_id", event.GetMetadataValue("user_id"),
		"attempts", attempts,
		"error", lastError)

	dlw.mu.Lock()
	defer dlw.mu.Unlock()
	_, err = dlw.file.Write(append(data, '\n'))
	return err
}

// Close closes the dead-letter file
func (dlw *DeadLetterWriter) Close() error {
	dlw.mu.Lock()
	defer dlw.mu.Unlock()
	return dlw.file.Close()
}

// ReadDeadLetters parses a dead-letter file. A missing file is empty.
// Malformed lines are skipped and counted.
func ReadDeadLetters(path string) ([]DeadLetterEntry, int, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open dead-letter file: %w", err)
	}
	defer f.Close()

	var entries []DeadLetterEntry
	skipped := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry DeadLetterEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, skipped, fmt.Errorf("failed to read dead-letter file: %w", err)
	}
	return entries, skipped, nil
}
