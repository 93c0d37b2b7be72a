package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/luizbraga/baseapi/pkg/logger"
	"go.uber.org/zap"
)

// Event kinds recorded by the auth flow.
const (
	EventLoginSucceeded  = "login_succeeded"
	EventLoginFailed     = "login_failed"
	EventUserCreated     = "user_created"
	EventUserDeactivated = "user_deactivated"
)

// Event is one auth audit record.
type Event struct {
	Kind       string    `json:"kind"`
	UserID     string    `json:"user_id,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
	IP         string    `json:"ip,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Log is an append-only JSON-lines audit log. Appends are fsynced;
// callers treat failures as best-effort and must not fail the request
// over them.
type Log struct {
	filePath string
	file     *os.File
	mu       sync.Mutex
}

// NewLog opens (or creates) the audit log at filePath.
func NewLog(filePath string) (*Log, error) {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}

	return &Log{
		filePath: filePath,
		file:     file,
	}, nil
}

// Append writes one event and syncs it to disk.
func (l *Log) Append(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Error("audit: failed to marshal event",
			zap.String("kind", event.Kind),
			zap.Error(err),
		)
		return err
	}

	if _, err := l.file.WriteString(string(data) + "\n"); err != nil {
		logger.Log.Error("audit: failed to write event",
			zap.String("kind", event.Kind),
			zap.Error(err),
		)
		return err
	}

	if err := l.file.Sync(); err != nil {
		logger.Log.Error("audit: failed to sync to disk",
			zap.String("kind", event.Kind),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// ReadAll returns every event in the log, oldest first. Reads use a
// separate handle so they never move the append offset.
func (l *Log) ReadAll() ([]Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			// Skip torn lines from a crash mid-write.
			logger.Log.Warn("audit: skipping unreadable entry",
				zap.Error(err),
			)
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return events, nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
