package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/seed4me/radclient/internal/logger"
)

const defaultEventPath = "radclient-events.log"

// fileExporter appends one JSON line per event. It doubles as the
// fallback sink when a broker is unreachable.
type fileExporter struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

func newFileExporter(path string) (*fileExporter, error) {
	if path == "" {
		path = defaultEventPath
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("exporter: opening event file: %w", err)
	}
	logger.GetLogger().WithField("path", path).Debug("auth events go to file")
	return &fileExporter{f: f, enc: json.NewEncoder(f)}, nil
}

func (e *fileExporter) SendAuthEvent(event *AuthEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(event); err != nil {
		return fmt.Errorf("exporter: writing event: %w", err)
	}
	return nil
}

func (e *fileExporter) Close() error {
	return e.f.Close()
}
