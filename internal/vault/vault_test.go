package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"filelist-go/internal/config"
)

// roundTrip exercises the Put/Get contract shared by all vault backends.
func roundTrip(t *testing.T, v Vault) {
	t.Helper()
	content := []byte("catalog database bytes")

	if err := v.Put("FileList-photos.sqlite", bytes.NewReader(content), int64(len(content))); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var got bytes.Buffer
	if err := v.Get("FileList-photos.sqlite", &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got.Bytes(), content) {
		t.Errorf("Get() = %q, want %q", got.Bytes(), content)
	}

	if err := v.Get("missing", &bytes.Buffer{}); err == nil {
		t.Error("Get() of missing artifact should fail")
	}
}

func TestMemoryVault(t *testing.T) {
	v := NewMemoryVault("mem")
	roundTrip(t, v)

	t.Run("size mismatch rejected", func(t *testing.T) {
		err := v.Put("x", strings.NewReader("abc"), 99)
		if err == nil {
			t.Fatal("expected size mismatch error")
		}
	})
}

func TestFileSystemVault(t *testing.T) {
	root := t.TempDir()
	v, err := NewFileSystemVault("local", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	roundTrip(t, v)

	t.Run("artifacts land under catalogs", func(t *testing.T) {
		if _, err := os.Stat(filepath.Join(root, "catalogs", "FileList-photos.sqlite")); err != nil {
			t.Errorf("artifact missing on disk: %v", err)
		}
	})

	t.Run("failed put leaves no temp files", func(t *testing.T) {
		err := v.Put("bad", strings.NewReader("abc"), 99)
		if err == nil {
			t.Fatal("expected size mismatch error")
		}
		entries, err := os.ReadDir(filepath.Join(root, "catalogs"))
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".tmp-") {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})

	t.Run("validate setup", func(t *testing.T) {
		if err := v.ValidateSetup(); err != nil {
			t.Errorf("ValidateSetup() error = %v", err)
		}
	})
}

func TestNewVaultFromConfig(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		v, err := NewVaultFromConfig(config.VaultConfig{Type: "memory", Name: "m"})
		if err != nil {
			t.Fatalf("NewVaultFromConfig() error = %v", err)
		}
		if _, ok := v.(*MemoryVault); !ok {
			t.Errorf("got %T, want *MemoryVault", v)
		}
	})

	t.Run("filesystem", func(t *testing.T) {
		v, err := NewVaultFromConfig(config.VaultConfig{
			Type: "filesystem", Name: "fs", FSVaultRoot: t.TempDir(),
		})
		if err != nil {
			t.Fatalf("NewVaultFromConfig() error = %v", err)
		}
		if _, ok := v.(*FileSystemVault); !ok {
			t.Errorf("got %T, want *FileSystemVault", v)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := NewVaultFromConfig(config.VaultConfig{Type: "tape"}); err == nil {
			t.Fatal("expected error for unknown vault type")
		}
	})
}
