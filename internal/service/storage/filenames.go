package storage

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	facePrefix    = "face_"
	faceExt       = ".jpg"
	stampLayout   = "20060102_150405"
	sessionPrefix = "event_overlay_session"
)

// FaceFilename builds the crop filename: face_00042_20250101_120000_123.jpg
func FaceFilename(index int, at time.Time) string {
	return fmt.Sprintf("%s%05d_%s_%03d%s", facePrefix, index, at.Format(stampLayout), at.Nanosecond()/int(time.Millisecond), faceExt)
}

// ParseFaceFilename extracts index and timestamp from a crop filename.
// The timestamp is interpreted in local time, as it was written.
func ParseFaceFilename(filename string) (index int, timestamp time.Time, err error) {
	name := strings.TrimSuffix(filename, faceExt)
	if name == filename || !strings.HasPrefix(name, facePrefix) {
		return 0, time.Time{}, fmt.Errorf("invalid filename format: %s", filename)
	}

	// index, date, time, millis
	parts := strings.Split(strings.TrimPrefix(name, facePrefix), "_")
	if len(parts) != 4 {
		return 0, time.Time{}, fmt.Errorf("invalid filename format: %s", filename)
	}

	index, err = strconv.Atoi(parts[0])
	if err != nil || index <= 0 {
		return 0, time.Time{}, fmt.Errorf("invalid face index in %s", filename)
	}

	timestamp, err = time.ParseInLocation(stampLayout, parts[1]+"_"+parts[2], time.Local)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	millis, err := strconv.Atoi(parts[3])
	if err != nil || len(parts[3]) != 3 {
		return 0, time.Time{}, fmt.Errorf("invalid milliseconds in %s", filename)
	}

	return index, timestamp.Add(time.Duration(millis) * time.Millisecond), nil
}

// SessionFilename builds the session video filename for sequence seq.
func SessionFilename(seq int, startedAt time.Time, ext string) string {
	return fmt.Sprintf("%s%d_%s%s", sessionPrefix, seq, startedAt.Format(stampLayout), ext)
}

// EnsureDirs creates every non-empty directory in dirs.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
