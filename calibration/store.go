// Package calibration holds the per-deployment calibration data: the
// per-class real-world widths, the focal length, and the one-shot focal
// length procedure that produces it.
package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"rangefinder/logger"
)

// DefaultConfigPath is where the run program looks for object widths.
const DefaultConfigPath = "object_config.json"

// ObjectConfig is the calibration entry for one class label
type ObjectConfig struct {
	RealWidth float64 `json:"real_width"`
}

// File represents the structure of object_config.json
type File struct {
	FocalLength float64                 `json:"focal_length,omitempty"`
	Objects     map[string]ObjectConfig `json:"objects"`
}

// LoadFile reads and parses a calibration file. Entries with a non-positive
// real width are dropped with a warning.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read calibration file: %w", err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse calibration JSON: %w", err)
	}

	for name, obj := range f.Objects {
		if obj.RealWidth <= 0 {
			logger.Warn("CALIBRATION", "Ignoring '%s' in %s: real_width must be positive, got %v", name, path, obj.RealWidth)
			delete(f.Objects, name)
		}
	}
	return &f, nil
}

// Store is the immutable class -> real width lookup used during a run
type Store struct {
	source      string
	widths      map[string]float64
	focalLength float64
}

// NewStore builds a store from an in-memory table
func NewStore(widths map[string]float64) *Store {
	s := &Store{source: "memory", widths: make(map[string]float64, len(widths))}
	for k, v := range widths {
		s.widths[k] = v
	}
	return s
}

// Load reads the calibration file at path. A missing or malformed file is
// logged and yields an empty store so the run continues uncalibrated.
func Load(path string) *Store {
	s := &Store{source: filepath.Base(path), widths: map[string]float64{}}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Error("CALIBRATION", "Configuration file %s not found!", path)
		return s
	}

	f, err := LoadFile(path)
	if err != nil {
		logger.Error("CALIBRATION", "Could not load %s: %v", path, err)
		return s
	}

	for name, obj := range f.Objects {
		s.widths[name] = obj.RealWidth
	}
	s.focalLength = f.FocalLength
	return s
}

// Lookup returns the real width configured for a class
func (s *Store) Lookup(className string) (float64, bool) {
	w, ok := s.widths[className]
	return w, ok
}

// Classes returns the calibrated class labels in sorted order
func (s *Store) Classes() []string {
	names := make([]string, 0, len(s.widths))
	for name := range s.widths {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of calibrated classes
func (s *Store) Len() int {
	return len(s.widths)
}

// FocalLength returns the focal length stored alongside the objects, or 0.
func (s *Store) FocalLength() float64 {
	return s.focalLength
}

// Source names the file the store was loaded from, for operator messages.
func (s *Store) Source() string {
	return s.source
}
