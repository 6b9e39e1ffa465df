package calibration

import "rangefinder/logger"

// WarnedClasses remembers which uncalibrated classes were already reported
// during one run. It is not safe for concurrent use.
type WarnedClasses struct {
	source string
	log    *logger.Logger
	seen   map[string]struct{}
}

// NewWarnedClasses creates an empty set. source names the calibration file in
// the warning text; a nil log uses the default logger.
func NewWarnedClasses(source string, log *logger.Logger) *WarnedClasses {
	if log == nil {
		log = logger.Default()
	}
	return &WarnedClasses{source: source, log: log, seen: make(map[string]struct{})}
}

// WarnOnce logs the missing-calibration warning the first time className is
// seen and reports whether it did.
func (w *WarnedClasses) WarnOnce(className string) bool {
	if _, ok := w.seen[className]; ok {
		return false
	}
	w.seen[className] = struct{}{}
	w.log.Warn("CALIBRATION", "Detected '%s' but it is NOT in %s. Distance will not be calculated.", className, w.source)
	return true
}

// Len returns how many classes have been warned about
func (w *WarnedClasses) Len() int {
	return len(w.seen)
}
