package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// MaxUploadSize is the largest statement file the backend accepts.
const MaxUploadSize int64 = 16 << 20

var (
	acceptedMIMETypes = map[string]bool{
		"text/csv":                 true,
		"application/vnd.ms-excel": true,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	}
	acceptedExtensions = map[string]bool{
		".csv":  true,
		".xlsx": true,
		".xls":  true,
	}
)

var (
	ErrEmptyFileName     = errors.New("file name is required")
	ErrUnsupportedFormat = errors.New("please select a CSV or Excel file")
)

// File is a statement file picked for upload.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// Extension returns the lower-cased extension including the dot.
func (f File) Extension() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// ValidateFile accepts a file whose MIME type or extension is a CSV or Excel
// format and whose size is within MaxUploadSize.
func ValidateFile(f File) error {
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{Field: "file", Err: ErrEmptyFileName}
	}
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(f.ContentType, ";", 2)[0]))
	if !acceptedMIMETypes[mime] && !acceptedExtensions[f.Extension()] {
		return &ValidationError{Field: "file", Err: ErrUnsupportedFormat}
	}
	if f.Size > MaxUploadSize {
		return &ValidationError{
			Field: "file",
			Err:   fmt.Errorf("file is %s, the limit is %s", humanize.IBytes(uint64(f.Size)), humanize.IBytes(uint64(MaxUploadSize))),
		}
	}
	return nil
}
