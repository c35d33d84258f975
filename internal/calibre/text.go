package calibre

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrSourceUnavailable means there is no plain text to resolve anchors
// against. It is never fatal: annotations are still written, without links.
var ErrSourceUnavailable = errors.New("book text unavailable")

// LoadText returns the plain text of a book, converting src into dst first
// when dst does not exist yet. Any failure is reported as
// ErrSourceUnavailable.
func LoadText(ctx context.Context, conv TextConverter, src, dst string) (string, error) {
	if dst == "" {
		return "", fmt.Errorf("%w: no text path", ErrSourceUnavailable)
	}

	if _, err := os.Stat(dst); os.IsNotExist(err) {
		if src == "" || conv == nil {
			return "", fmt.Errorf("%w: %s does not exist", ErrSourceUnavailable, dst)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		if err := conv.Convert(ctx, src, dst); err != nil {
			return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrSourceUnavailable, dst)
	}
	return string(data), nil
}
