// Package media turns uploaded application photos into files every browser
// can render and gives them collision-free storage names.
package media

import (
	"path"
	"strings"
)

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypeHEIC = "image/heic"
	ContentTypeHEIF = "image/heif"

	// DefaultJPEGQuality matches the 0.8 quality used for converted uploads.
	DefaultJPEGQuality = 80
	// DefaultMaxDimension bounds the longest edge of a converted image.
	DefaultMaxDimension = 4096
)

// File is an uploaded image held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the byte length of the file.
func (f File) Size() int64 { return int64(len(f.Data)) }

// Ext returns the lower-cased extension including the dot, or "" when absent.
func (f File) Ext() string {
	return strings.ToLower(path.Ext(f.Name))
}

// Result is the outcome of normalizing one file. File is always usable:
// when conversion fails it is the original upload under a fresh name.
type Result struct {
	File      File
	Converted bool
	// Err holds the conversion failure, if any. It is informational only.
	Err error
}

// Config provides the knobs the normalizer reads at construction.
type Config interface {
	GetMediaJPEGQuality() int
	GetMediaMaxDimension() int
}
