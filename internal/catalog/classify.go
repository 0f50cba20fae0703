package catalog

import (
	"os"
	"path/filepath"
	"strings"
)

// Error reasons recorded for files that cannot be hashed. These are data,
// not failures: a record carrying one of them is a normal catalog row.
const (
	ReasonNamedPipe = "(named pipe)"
	ReasonSymlink   = "(link)"
	ReasonEmptyFile = "(empty file)"
)

// mtimeFormat is the local-time layout stored in last_modified.
const mtimeFormat = "2006-01-02 15:04:05"

// FileRecord holds everything the store needs for one cataloged file.
// Exactly one of {SHA1 non-empty, Error non-empty} holds, except for
// zero-length files where both hashes are empty and Error is the
// empty-file marker.
type FileRecord struct {
	Name     string // base name, no directory
	Dir      string // directory path, possibly trimmed of a parent prefix
	Level    int    // path-separator count of Dir
	SHA1     string
	MD5      string
	Size     int64
	Modified string // empty until a successful stat
	Error    string
}

// Classify inspects the entry at path via lstat metadata and produces its
// FileRecord. Named pipes and symlinks are marked and never opened: opening
// a pipe would block, and hashing a link target would misrepresent the link.
// Zero-length regular files are marked and skip hashing. All other regular
// files are hashed; a hashing failure becomes the record's error reason.
//
// dirnameStart is the number of leading bytes to strip from the directory
// path (trim-parent mode). The returned error covers only the lstat itself;
// everything downstream is captured in the record.
func Classify(path string, dirnameStart int) (FileRecord, error) {
	dir, base := filepath.Split(path)
	dir = strings.TrimSuffix(dir, string(os.PathSeparator))
	if dirnameStart > 0 && dirnameStart <= len(dir) {
		dir = dir[dirnameStart:]
	}

	rec := FileRecord{
		Name:  base,
		Dir:   dir,
		Level: strings.Count(dir, string(os.PathSeparator)),
	}

	info, err := os.Lstat(path)
	if err != nil {
		return rec, err
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeNamedPipe != 0:
		rec.Error = ReasonNamedPipe
		return rec, nil
	case mode&os.ModeSymlink != 0:
		rec.Error = ReasonSymlink
		return rec, nil
	}

	rec.Size = info.Size()
	rec.Modified = info.ModTime().Local().Format(mtimeFormat)

	if rec.Size == 0 {
		// Skip the hasher entirely: both digests have a well-known fixed
		// value for empty input, which would only invite misreading.
		rec.Error = ReasonEmptyFile
		return rec, nil
	}

	rec.SHA1, rec.MD5, rec.Error = HashFile(path)
	return rec, nil
}
