package catalog

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
)

// hashBufferSize is the chunk size for streaming files through the digests.
const hashBufferSize = 64 * 1024

// HashFile streams the file at path through SHA-1 and MD5 simultaneously
// and returns both digests as hex strings. The file is read in fixed-size
// chunks and never loaded into memory whole.
//
// On any I/O failure the digests are empty and errMsg carries the failure
// text. Hashing failures are per-file data, never fatal to a build, so no
// error value is returned.
func HashFile(path string) (sha1Hex, md5Hex, errMsg string) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", err.Error()
	}
	defer f.Close()

	sha := sha1.New()
	md := md5.New()

	buf := make([]byte, hashBufferSize)
	if _, err := io.CopyBuffer(io.MultiWriter(sha, md), f, buf); err != nil {
		return "", "", err.Error()
	}

	return hex.EncodeToString(sha.Sum(nil)), hex.EncodeToString(md.Sum(nil)), ""
}
