package processor

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

// ListFiles returns the regular files directly inside dir matching the glob
// dir + "/*" + extension. The extension keeps glob semantics; dir is matched
// literally. Hidden files are skipped. Order is not part of the contract.
func ListFiles(fsys afero.Fs, dir, extension string) ([]string, error) {
	pattern := escapeGlob(dir) + "/*" + extension
	matches, err := afero.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("match %q: %w", pattern, err)
	}

	// Glob cleans its results ("./a.MP4" becomes "a.MP4"); rebuild each
	// path from dir so it always carries a separator.
	prefix := strings.TrimRight(dir, "/") + "/"
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		name := filepath.Base(match)
		if strings.HasPrefix(name, ".") {
			continue
		}
		info, err := fsys.Stat(match)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		files = append(files, prefix+name)
	}
	return files, nil
}

func escapeGlob(s string) string {
	// '\' is the path separator on Windows and cannot act as an escape there.
	// A dir without meta characters is matched literally by Glob, so a '\'
	// in it must stay as is.
	if runtime.GOOS == "windows" || !strings.ContainsAny(s, "*?[") {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
