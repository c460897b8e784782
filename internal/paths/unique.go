package paths

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxSuffix bounds the numbered candidates tried before falling back to a UUID.
const maxSuffix = 9999

// Unique returns a path for new content. The target is kept if it is free
// or already holds identical content; otherwise the lowest free or identical
// "<stem>_NNNN<ext>" sibling is used.
func Unique(target string, exists, identical func(path string) bool) string {
	if !exists(target) || identical(target) {
		return target
	}

	ext := filepath.Ext(target)
	stem := strings.TrimSuffix(target, ext)
	for i := 1; i <= maxSuffix; i++ {
		candidate := fmt.Sprintf("%s_%04d%s", stem, i, ext)
		if !exists(candidate) || identical(candidate) {
			return candidate
		}
	}
	return stem + "_" + uuid.NewString() + ext
}
