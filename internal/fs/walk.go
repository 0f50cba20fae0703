package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"filelist-go/internal/catalog"
)

// Walker enumerates files under a scan root on the real filesystem.
// Directories are recursed; every non-directory entry is collected so that
// named pipes and symlinks reach the classifier. Sockets and device nodes
// are excluded with a warning.
type Walker struct {
	ignore *IgnoreMatcher
	logger catalog.Logger
}

// NewWalker creates a Walker applying the given ignore patterns.
func NewWalker(ignorePatterns []string, logger catalog.Logger) *Walker {
	return &Walker{
		ignore: NewIgnoreMatcher(ignorePatterns),
		logger: logger,
	}
}

// EnumerateFiles walks root recursively and returns the full paths of all
// catalogable entries, unsorted. An unreadable subtree is logged as a
// warning and skipped; only a failure on the root itself is fatal.
func (w *Walker) EnumerateFiles(root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			w.logger.Warn("walk error, entry skipped", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if t := d.Type(); t&(os.ModeSocket|os.ModeDevice|os.ModeCharDevice) != 0 {
			w.logger.Warn("not a file, entry skipped", "path", p, "mode", t.String())
			return nil
		}
		if rel, relErr := filepath.Rel(root, p); relErr == nil && w.ignore.Match(rel) {
			w.logger.Debug("entry ignored", "path", p)
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	return files, nil
}

// Compile-time check that Walker implements catalog.FileSource
var _ catalog.FileSource = (*Walker)(nil)
