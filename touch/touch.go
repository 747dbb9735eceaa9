package touch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrFileNotFound     = errors.New("file not found")
)

// Apply sets both the access and the modification time of path to t.
func Apply(path string, t time.Time) error {
	if err := os.Chtimes(path, t, t); err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		case errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("%w: %w", ErrFileNotFound, err)
		}
		return fmt.Errorf("set file times: %w", err)
	}
	return nil
}

// Matches reports whether the modification time of path already equals t at
// second precision.
func Matches(path string, t time.Time) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.ModTime().Truncate(time.Second).Equal(t.Truncate(time.Second)), nil
}
