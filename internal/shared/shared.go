// package shared defines shared helpers
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a [log.Logger] that appends to the file at path,
// creating parent directories as needed. The TUI uses this to keep log lines
// out of the rendered view.
func NewFileLogger(path string) (*log.Logger, *os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open log file: %w", err)
	}
	return NewLogger(f), f, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// GenerateState returns a random hex string for OAuth state validation.
func GenerateState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// rand.Read never fails on supported platforms; fall back anyway
		return GenerateID()
	}
	return hex.EncodeToString(b)
}

// MarshalJSON renders v as JSON, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// VerifyAndReadFile checks that path exists and is a regular file, then
// returns its contents.
func VerifyAndReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingArgument, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidArgument, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", path, err)
	}
	return data, nil
}

// ValidateJSON reports whether data parses as JSON.
func ValidateJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: not valid JSON", ErrInvalidInput)
	}
	return nil
}

// FormatDuration renders a millisecond duration as m:ss.
func FormatDuration(ms int) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// VisibilityString maps a playlist's public flag onto the privacy values the
// destination API accepts.
func VisibilityString(public bool) string {
	if public {
		return "PUBLIC"
	}
	return "PRIVATE"
}

// NormalizeTrackKey builds a case-insensitive comparison key from a track
// title and artist line, used when diffing playlists across services.
// Whitespace runs are collapsed so formatting differences don't break the
// match.
func NormalizeTrackKey(title, artist string) string {
	t := strings.ToLower(strings.Join(strings.Fields(title), " "))
	a := strings.ToLower(strings.Join(strings.Fields(artist), " "))
	return t + "|" + a
}
