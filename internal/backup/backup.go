// Package backup keeps a copy of the clippings export so that it can still
// be processed after the device is disconnected.
package backup

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

var ErrNoClippings = errors.New("no clippings file available")

func compressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".xz")
}

// Resolve picks the clippings file to read. When primary exists it is
// returned, and copied to backupPath first if enabled. Otherwise the backup
// is returned if it exists.
func Resolve(primary, backupPath string, enabled bool) (string, error) {
	if exists(primary) {
		if enabled && backupPath != "" {
			if err := Save(primary, backupPath); err != nil {
				log.Printf("[BACKUP] Failed to back up %s: %v", primary, err)
			} else {
				log.Printf("[BACKUP] Saved %s to %s", primary, backupPath)
			}
		}
		return primary, nil
	}

	if backupPath != "" && exists(backupPath) {
		log.Printf("[BACKUP] %s not found, reading backup %s", primary, backupPath)
		return backupPath, nil
	}

	return "", fmt.Errorf("%w: neither %s nor backup %q exist", ErrNoClippings, primary, backupPath)
}

// Save copies src to dst, compressing with xz when dst ends in ".xz". The
// copy is written to a temporary file and renamed into place.
func Save(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".clippings-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if compressed(dst) {
		w, err := xz.NewWriter(tmp)
		if err != nil {
			return fmt.Errorf("failed to start compression: %w", err)
		}
		if _, err := io.Copy(w, in); err != nil {
			return fmt.Errorf("failed to compress %s: %w", src, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to finish compression: %w", err)
		}
	} else if _, err := io.Copy(tmp, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

type xzFile struct {
	io.Reader
	f *os.File
}

func (x *xzFile) Close() error {
	return x.f.Close()
}

// Open opens a clippings file for reading, decompressing ".xz" files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !compressed(path) {
		return f, nil
	}

	r, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read compressed %s: %w", path, err)
	}
	return &xzFile{Reader: r, f: f}, nil
}

// ReadAll reads the whole clippings file at path.
func ReadAll(path string) ([]byte, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
