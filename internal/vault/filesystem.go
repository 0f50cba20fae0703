package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystemVault is a filesystem-based implementation of the Vault
// interface. Artifacts are stored under a single directory:
//
//	<root>/
//	  catalogs/
//	    <name>     (archived catalog databases)
type FileSystemVault struct {
	name        string
	root        string
	catalogsDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	catalogsDir := filepath.Join(root, "catalogs")

	if err := os.MkdirAll(catalogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalogs directory: %w", err)
	}

	return &FileSystemVault{
		name:        name,
		root:        root,
		catalogsDir: catalogsDir,
	}, nil
}

// Put stores an artifact under the given name.
func (v *FileSystemVault) Put(name string, r io.Reader, size int64) error {
	return v.writeFile(filepath.Join(v.catalogsDir, name), r, size)
}

// Get retrieves an artifact by name and writes it to w.
func (v *FileSystemVault) Get(name string, w io.Writer) error {
	srcPath := filepath.Join(v.catalogsDir, name)

	f, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("artifact not found: %s", name)
		}
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read artifact: %w", err)
	}

	return nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.catalogsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}
	return nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Clean up temp file on failure
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemVault implements Vault interface
var _ Vault = (*FileSystemVault)(nil)
