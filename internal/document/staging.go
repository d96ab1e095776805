// Package document handles staged input artifacts: writing the uploaded
// bytes under a job-specific name, validating their format, and reading
// them back for analysis.
package document

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnacceptedFormat is returned when the staged bytes are not one of the
// configured media types.
var ErrUnacceptedFormat = errors.New("unaccepted document format")

// ErrEmptyDocument is returned when the upload contains no bytes.
var ErrEmptyDocument = errors.New("document is empty")

// ErrTooLarge is returned when the upload exceeds the configured size cap.
var ErrTooLarge = errors.New("document exceeds size limit")

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Staging owns the upload directory. An artifact belongs to exactly one job
// and lives from submission until the worker removes it.
type Staging struct {
	dir      string
	maxBytes int64
	accepted []string
}

func NewStaging(dir string, maxBytes int64, acceptedMIMEs []string) (*Staging, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Staging{dir: dir, maxBytes: maxBytes, accepted: acceptedMIMEs}, nil
}

// Stage writes r to <dir>/<jobID>_<sanitized-name> and validates size and
// media type. The job-id prefix makes concurrent submissions collision-free.
// On any validation failure the partial file is removed before returning.
func (s *Staging) Stage(jobID uuid.UUID, filename string, r io.Reader) (string, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s", jobID, SanitizeFilename(filename)))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}

	// Read one byte past the cap so an at-limit file is distinguishable from
	// an oversized one.
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if n == 0 {
		_ = s.Remove(path)
		return "", ErrEmptyDocument
	}
	if n > s.maxBytes {
		_ = s.Remove(path)
		return "", ErrTooLarge
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		_ = s.Remove(path)
		return "", fmt.Errorf("detect media type: %w", err)
	}
	if !s.acceptedType(mtype) {
		_ = s.Remove(path)
		return "", fmt.Errorf("%w: got %s", ErrUnacceptedFormat, mtype.String())
	}

	return path, nil
}

func (s *Staging) acceptedType(mtype *mimetype.MIME) bool {
	for _, want := range s.accepted {
		if mtype.Is(want) {
			return true
		}
	}
	return false
}

// Exists reports whether the staged artifact is still on disk.
func (s *Staging) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Remove deletes the staged artifact. Removing an already-deleted artifact
// is a no-op, never an error.
func (s *Staging) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}

// SanitizeFilename strips characters unsafe for the filesystem and caps the
// length, falling back to a generic name for degenerate inputs.
func SanitizeFilename(filename string) string {
	safe := unsafeFilenameChars.ReplaceAllString(filepath.Base(filename), "_")
	if len(safe) > 120 {
		safe = safe[:120]
	}
	if safe == "" || safe == "." || safe == ".." {
		return "uploaded.pdf"
	}
	return safe
}
