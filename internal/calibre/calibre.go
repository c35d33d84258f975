// Package calibre wraps calibre's command line tools: ebook-meta for book
// metadata and ebook-convert for plain-text renditions.
package calibre

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/mrlokans/bookclips/internal/bibid"
)

const (
	DefaultMetaBin    = "ebook-meta"
	DefaultConvertBin = "ebook-convert"
)

// MetadataExtractor reads the identity of a book file.
type MetadataExtractor interface {
	Extract(ctx context.Context, path string) (bibid.Identity, error)
}

// TextConverter writes a plain-text rendition of src to dst.
type TextConverter interface {
	Convert(ctx context.Context, src, dst string) error
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Calibre implements MetadataExtractor and TextConverter by shelling out.
type Calibre struct {
	MetaBin    string
	ConvertBin string

	run runFunc
}

// New returns a Calibre using the given binaries, falling back to the
// defaults found on PATH.
func New(metaBin, convertBin string) *Calibre {
	if metaBin == "" {
		metaBin = DefaultMetaBin
	}
	if convertBin == "" {
		convertBin = DefaultConvertBin
	}
	return &Calibre{MetaBin: metaBin, ConvertBin: convertBin, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Extract runs ebook-meta on path and parses its report.
func (c *Calibre) Extract(ctx context.Context, path string) (bibid.Identity, error) {
	out, err := c.run(ctx, c.MetaBin, path)
	if err != nil {
		return bibid.Identity{}, fmt.Errorf("failed to read metadata of %s: %w", path, err)
	}
	return ParseMeta(string(out)), nil
}

// Convert runs ebook-convert src dst. DRM-protected books fail here.
func (c *Calibre) Convert(ctx context.Context, src, dst string) error {
	if _, err := c.run(ctx, c.ConvertBin, src, dst); err != nil {
		return fmt.Errorf("failed to convert %s (DRM-protected book?): %w", src, err)
	}
	return nil
}
