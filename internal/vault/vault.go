package vault

import "io"

// Vault provides an interface for catalog archive backends. All operations
// use io.Reader/io.Writer for streaming so large catalog databases never
// have to fit in memory.
type Vault interface {
	// Put stores an artifact under the given name, replacing any previous
	// artifact with the same name. size is the number of bytes that will
	// be read from r.
	Put(name string, r io.Reader, size int64) error

	// Get retrieves an artifact by name and writes it to w.
	Get(name string, w io.Writer) error

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
