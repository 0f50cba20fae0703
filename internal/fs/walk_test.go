package fs

import (
	"path/filepath"
	"sort"
	"testing"

	"filelist-go/internal/catalog"
	"filelist-go/internal/testutil"
)

func TestWalker_EnumerateFiles(t *testing.T) {
	t.Run("collects files recursively", func(t *testing.T) {
		root := testutil.WriteTree(t, map[string]string{
			"a.txt":       "1",
			"sub/b.txt":   "2",
			"sub/c/d.txt": "3",
		})

		w := NewWalker(nil, catalog.NewNopLogger())
		files, err := w.EnumerateFiles(root)
		if err != nil {
			t.Fatalf("EnumerateFiles() error = %v", err)
		}

		sort.Strings(files)
		want := []string{
			filepath.Join(root, "a.txt"),
			filepath.Join(root, "sub", "b.txt"),
			filepath.Join(root, "sub", "c", "d.txt"),
		}
		if len(files) != len(want) {
			t.Fatalf("got %d files, want %d: %v", len(files), len(want), files)
		}
		for i := range want {
			if files[i] != want[i] {
				t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
			}
		}
	})

	t.Run("applies ignore patterns", func(t *testing.T) {
		root := testutil.WriteTree(t, map[string]string{
			"keep.txt":      "1",
			"skip.log":      "2",
			"sub/skip.log":  "3",
			"sub/other.txt": "4",
		})

		w := NewWalker([]string{"*.log"}, catalog.NewNopLogger())
		files, err := w.EnumerateFiles(root)
		if err != nil {
			t.Fatalf("EnumerateFiles() error = %v", err)
		}

		if len(files) != 2 {
			t.Fatalf("got %d files, want 2: %v", len(files), files)
		}
		for _, f := range files {
			if filepath.Ext(f) == ".log" {
				t.Errorf("ignored file included: %s", f)
			}
		}
	})

	t.Run("path patterns match relative paths", func(t *testing.T) {
		root := testutil.WriteTree(t, map[string]string{
			"cache/a": "1",
			"data/a":  "2",
		})

		w := NewWalker([]string{"cache/*"}, catalog.NewNopLogger())
		files, err := w.EnumerateFiles(root)
		if err != nil {
			t.Fatalf("EnumerateFiles() error = %v", err)
		}

		if len(files) != 1 || filepath.Base(filepath.Dir(files[0])) != "data" {
			t.Errorf("files = %v, want only data/a", files)
		}
	})

	t.Run("symlinks are collected not followed", func(t *testing.T) {
		root := testutil.WriteTree(t, map[string]string{"real.txt": "1"})
		testutil.Symlink(t, filepath.Join(root, "real.txt"), filepath.Join(root, "link"))

		w := NewWalker(nil, catalog.NewNopLogger())
		files, err := w.EnumerateFiles(root)
		if err != nil {
			t.Fatalf("EnumerateFiles() error = %v", err)
		}
		if len(files) != 2 {
			t.Errorf("got %d files, want 2 (file + symlink): %v", len(files), files)
		}
	})

	t.Run("directory symlinks are collected not traversed", func(t *testing.T) {
		root := testutil.WriteTree(t, map[string]string{"real/inner.txt": "1"})
		testutil.Symlink(t, filepath.Join(root, "real"), filepath.Join(root, "dirlink"))

		w := NewWalker(nil, catalog.NewNopLogger())
		files, err := w.EnumerateFiles(root)
		if err != nil {
			t.Fatalf("EnumerateFiles() error = %v", err)
		}

		// The link is one cataloged entry; its target's contents appear only
		// once, under the real path, never again through the link.
		if len(files) != 2 {
			t.Fatalf("got %d files, want 2 (inner.txt + dirlink): %v", len(files), files)
		}
		var sawLink bool
		for _, f := range files {
			if filepath.Base(f) == "dirlink" {
				sawLink = true
			}
			if filepath.Base(filepath.Dir(f)) == "dirlink" {
				t.Errorf("walk traversed through the symlink: %s", f)
			}
		}
		if !sawLink {
			t.Error("directory symlink was not collected")
		}
	})

	t.Run("missing root is fatal", func(t *testing.T) {
		w := NewWalker(nil, catalog.NewNopLogger())
		if _, err := w.EnumerateFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Fatal("expected error for missing root")
		}
	})
}

func TestIgnoreMatcher(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		path     string
		want     bool
	}{
		{"basename glob", []string{"*.log"}, "sub/dir/x.log", true},
		{"basename no match", []string{"*.log"}, "sub/x.txt", false},
		{"path pattern", []string{"cache/*"}, "cache/x", true},
		{"path pattern deeper no match", []string{"cache/*"}, "other/cache", false},
		{"comment skipped", []string{"# *.log"}, "x.log", false},
		{"blank skipped", []string{"  "}, "x.log", false},
		{"no patterns", nil, "anything", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewIgnoreMatcher(tt.patterns)
			if got := m.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
