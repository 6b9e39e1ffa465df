// Package session manages one run's output directory, the sequential frame
// files written into it, and the throughput summary reported at shutdown.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"rangefinder/logger"
)

// SummaryFile is written into the run directory by Finalize.
const SummaryFile = "summary.json"

// Image is anything that can encode itself to a file path.
type Image interface {
	WriteImage(path string) error
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Option configures a Session at allocation time.
type Option func(*Session)

// WithExtension sets the image extension used for saved frames (default "jpg").
func WithExtension(ext string) Option {
	return func(s *Session) {
		s.ext = strings.TrimPrefix(ext, ".")
	}
}

// WithClock replaces the wall clock used for elapsed time.
func WithClock(c Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// Session is one run's output directory and counters. It is owned by the
// processing loop and is not safe for concurrent use.
type Session struct {
	id        string
	dir       string
	ext       string
	clock     Clock
	start     time.Time
	nextIndex int
	processed int
	saved     int
}

// Allocate creates the lowest-numbered run<N> directory (N starting at 1)
// that does not yet exist under baseDir.
//
// The scan is not coordinated across processes. os.Mkdir refuses an existing
// name, so a lost race moves on to the next number instead of reusing one.
func Allocate(baseDir string, opts ...Option) (*Session, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", baseDir, err)
	}

	var dir string
	for i := 1; ; i++ {
		candidate := filepath.Join(baseDir, fmt.Sprintf("run%d", i))
		if _, err := os.Stat(candidate); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to inspect %s: %w", candidate, err)
		}

		err := os.Mkdir(candidate, 0755)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create run directory %s: %w", candidate, err)
		}
		dir = candidate
		break
	}

	s := &Session{
		id:    uuid.NewString(),
		dir:   dir,
		ext:   "jpg",
		clock: realClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.start = s.clock.Now()
	return s, nil
}

// ID returns the unique identifier of this session
func (s *Session) ID() string { return s.id }

// Dir returns the run directory
func (s *Session) Dir() string { return s.dir }

// FramesSaved returns how many frames were written to disk
func (s *Session) FramesSaved() int { return s.saved }

// MarkProcessed counts one acquired frame
func (s *Session) MarkProcessed() {
	s.processed++
}

// NextFramePath returns the path the next Persist call will write
func (s *Session) NextFramePath() string {
	return filepath.Join(s.dir, fmt.Sprintf("frame_%06d.%s", s.nextIndex, s.ext))
}

// Persist writes img as the next sequential frame. Counters only advance
// when the write succeeds.
func (s *Session) Persist(img Image) error {
	path := s.NextFramePath()
	if err := img.WriteImage(path); err != nil {
		return fmt.Errorf("failed to save frame %s: %w", filepath.Base(path), err)
	}
	s.nextIndex++
	s.saved++
	return nil
}

// Stats summarizes a finished run
type Stats struct {
	SessionID       string        `json:"session_id,omitempty"`
	Directory       string        `json:"directory,omitempty"`
	Elapsed         time.Duration `json:"elapsed_ns"`
	FramesProcessed int           `json:"frames_processed"`
	FramesSaved     int           `json:"frames_saved"`
	AverageFPS      float64       `json:"average_fps"`
}

// Summarize computes the throughput statistics. AverageFPS is 0 when no
// time has elapsed.
func Summarize(processed, saved int, elapsed time.Duration) Stats {
	fps := 0.0
	if elapsed > 0 {
		fps = float64(processed) / elapsed.Seconds()
	}
	return Stats{
		Elapsed:         elapsed,
		FramesProcessed: processed,
		FramesSaved:     saved,
		AverageFPS:      fps,
	}
}

// Finalize computes the run statistics and records them in summary.json.
func (s *Session) Finalize() Stats {
	stats := Summarize(s.processed, s.saved, s.clock.Now().Sub(s.start))
	stats.SessionID = s.id
	stats.Directory = s.dir

	data, err := json.MarshalIndent(stats, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(s.dir, SummaryFile), data, 0644)
	}
	if err != nil {
		logger.Error("SESSION", "Could not write %s: %v", SummaryFile, err)
	}
	return stats
}

// Report prints the runtime summary block for the operator
func (st Stats) Report(w io.Writer) {
	line := strings.Repeat("-", 30)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "Test finished.")
	fmt.Fprintf(w, "Total time: %.2fs\n", st.Elapsed.Seconds())
	fmt.Fprintf(w, "Total frames processed: %d\n", st.FramesProcessed)
	fmt.Fprintf(w, "Frames saved: %d\n", st.FramesSaved)
	fmt.Fprintf(w, "AVERAGE FPS: %.2f\n", st.AverageFPS)
	fmt.Fprintln(w, line)
}
