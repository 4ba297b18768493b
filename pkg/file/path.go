package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of path for ext. The leading dot on ext
// is optional; an empty ext strips the extension. Dotfiles keep their
// leading dot.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	base := filepath.Base(path)
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return filepath.Join(filepath.Dir(path), base+ext)
}
