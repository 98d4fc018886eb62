package errors

import (
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// Speed bounds accepted for autoplay and GIF frame delays.
const (
	MinSpeed = 50 * time.Millisecond
	MaxSpeed = 5 * time.Second
)

// ValidateSpeed checks that an autoplay interval is within the range the
// player slider offers.
func ValidateSpeed(d time.Duration) error {
	if d < MinSpeed || d > MaxSpeed {
		return New(ErrCodeInvalidSpeed, "speed %s out of range [%s, %s]", d, MinSpeed, MaxSpeed)
	}
	return nil
}

// ValidateExportFormat checks that the export kind is one the pipeline
// can produce.
func ValidateExportFormat(format string) error {
	switch strings.ToLower(format) {
	case "png", "gif":
		return nil
	case "":
		return New(ErrCodeInvalidFormat, "export format cannot be empty")
	}
	return New(ErrCodeInvalidFormat, "invalid format: %s (must be 'png' or 'gif')", format)
}

// ValidateOutputPath validates an export destination.
// It rejects empty names, control characters and directory targets.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid control characters")
		}
	}
	base := filepath.Base(path)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		return New(ErrCodeInvalidPath, "output path must name a file: %q", path)
	}
	return nil
}
