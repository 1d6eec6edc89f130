// Package store reads and writes the schedule document. The document is
// always read fully, transformed in memory, and written back whole,
// including members other tools added that the model does not know.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	appLog "blogsched/internal/log"
	"blogsched/internal/model"
)

// ErrMalformed marks a schedule document that parsed badly or holds invalid
// entries. Callers must not fall back to an empty schedule.
var ErrMalformed = errors.New("malformed schedule")

// Load reads and validates the schedule at path.
func Load(path string) (*model.Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	appLog.Debug("schedule loaded", "path", path, "entries", len(s.Schedule))
	return s, nil
}

// Decode parses and validates a schedule document.
func Decode(data []byte) (*model.Schedule, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var s model.Schedule
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if s.Schedule == nil {
		return nil, fmt.Errorf("%w: missing \"schedule\" array", ErrMalformed)
	}
	for i := range s.Schedule {
		e := &s.Schedule[i]
		if _, err := model.ParseDate(e.Date); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformed, i, err)
		}
		if !e.Status.Valid() {
			return nil, fmt.Errorf("%w: entry %d (%s): unknown status %q", ErrMalformed, i, e.Date, e.Status)
		}
	}
	return &s, nil
}

// Encode renders the document the way it is stored on disk: two-space
// indentation and a trailing newline.
func Encode(s *model.Schedule) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the whole schedule atomically.
func Save(path string, s *model.Schedule) error {
	if s == nil {
		return errors.New("schedule is nil")
	}
	data, err := Encode(s)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	if err := WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write schedule: %w", err)
	}
	appLog.Debug("schedule saved", "path", path, "entries", len(s.Schedule))
	return nil
}

// Touch stamps lastUpdated. Management commands call it before Save;
// reconciliation does not.
func Touch(s *model.Schedule, now time.Time) {
	t := now.UTC()
	s.LastUpdated = &t
}
