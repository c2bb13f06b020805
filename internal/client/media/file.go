package media

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const DefaultMaxMB = 10

var (
	ErrUnsupportedFormat = errors.New("Formato no soportado")
	ErrTooLarge          = errors.New("imagen demasiado grande")
)

// File is an upload payload held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// LoadFile reads path and guesses its content type from the extension,
// falling back to sniffing the data.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	return NewFile(filepath.Base(path), data), nil
}

func NewFile(name string, data []byte) File {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return File{Name: name, ContentType: ct, Data: data}
}

// AssertImage rejects non-image content and files above maxMB megabytes
// (DefaultMaxMB when maxMB is not positive).
func AssertImage(f File, maxMB int) error {
	if maxMB <= 0 {
		maxMB = DefaultMaxMB
	}
	if !strings.HasPrefix(f.ContentType, "image/") {
		return ErrUnsupportedFormat
	}
	if mb := float64(len(f.Data)) / (1024 * 1024); mb > float64(maxMB) {
		return fmt.Errorf("%w: La imagen supera %dMB", ErrTooLarge, maxMB)
	}
	return nil
}
