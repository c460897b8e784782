package imf

import (
	"sync"

	"github.com/marph91/jimmy/internal/checksum"
	"github.com/marph91/jimmy/internal/sniff"
)

// Resource is a file attachment. Filename points at the source file, Path
// at the target assigned by the layout pass. An empty OriginalText means
// the rendered link is appended to the note body.
type Resource struct {
	Filename     string
	OriginalText string
	Title        string
	Path         string

	hashOnce sync.Once
	md5      string
	md5Err   error

	imageOnce sync.Once
	isImage   bool
}

// IsImage reports whether the source file sniffs as an image.
func (r *Resource) IsImage() bool {
	r.imageOnce.Do(func() {
		r.isImage = sniff.IsImage(r.Filename)
	})
	return r.isImage
}

// MD5 returns the content hash of the source file.
func (r *Resource) MD5() (string, error) {
	r.hashOnce.Do(func() {
		r.md5, r.md5Err = checksum.File(r.Filename)
	})
	return r.md5, r.md5Err
}

// Equal reports whether both resources have the same content.
func (r *Resource) Equal(other *Resource) bool {
	if other == nil {
		return false
	}
	a, err := r.MD5()
	if err != nil {
		return false
	}
	b, err := other.MD5()
	return err == nil && a == b
}

// SameContentAsFile compares the resource with an arbitrary file on disk.
func (r *Resource) SameContentAsFile(path string) bool {
	a, err := r.MD5()
	if err != nil {
		return false
	}
	b, err := checksum.File(path)
	return err == nil && a == b
}

// SameContentAsBytes compares the resource with in-memory content.
func (r *Resource) SameContentAsBytes(data []byte) bool {
	a, err := r.MD5()
	return err == nil && a == checksum.Sum(data)
}
