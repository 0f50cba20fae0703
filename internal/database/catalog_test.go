package database

import (
	"path/filepath"
	"testing"

	"filelist-go/internal/catalog"
)

func testMetadata() catalog.Metadata {
	return catalog.Metadata{
		Created:     "2024-01-15 10:30:00",
		Host:        "testhost",
		ScanDir:     "/data/photos",
		Title:       "photos",
		HostPathSep: "/",
		DBVersion:   1,
		AppName:     catalog.AppName,
		AppVersion:  catalog.AppVersion,
	}
}

func TestCatalogDB(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.sqlite")

		store, err := CreateCatalog(path)
		if err != nil {
			t.Fatalf("CreateCatalog() error = %v", err)
		}

		md := testMetadata()
		if err := store.InsertMetadata(md); err != nil {
			t.Fatalf("InsertMetadata() error = %v", err)
		}
		if err := store.InsertDirectory(1, "/data/photos"); err != nil {
			t.Fatalf("InsertDirectory() error = %v", err)
		}
		if err := store.InsertDirectory(2, "/data/photos/sub"); err != nil {
			t.Fatalf("InsertDirectory() error = %v", err)
		}

		rows := []catalog.FileRecord{
			{Name: "b.jpg", Dir: "/data/photos", Level: 2, SHA1: "s1", MD5: "m1", Size: 10, Modified: "2024-01-15 09:00:00"},
			{Name: "a.jpg", Dir: "/data/photos/sub", Level: 3, SHA1: "s2", MD5: "m2", Size: 20, Modified: "2024-01-15 09:01:00"},
			{Name: "pipe", Dir: "/data/photos", Level: 2, Error: catalog.ReasonNamedPipe},
		}
		dirIDs := []int64{1, 2, 1}
		for i, rec := range rows {
			if err := store.InsertFile(int64(i)+1, dirIDs[i], rec); err != nil {
				t.Fatalf("InsertFile(%d) error = %v", i, err)
			}
		}

		if err := store.Checkpoint(); err != nil {
			t.Fatalf("Checkpoint() error = %v", err)
		}
		if err := store.FinishMetadata(md.Created, "2024-01-15 10:35:00"); err != nil {
			t.Fatalf("FinishMetadata() error = %v", err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		// Reopen read-only and verify everything survived.
		db, err := OpenConnection(path)
		if err != nil {
			t.Fatalf("OpenConnection() error = %v", err)
		}
		defer db.Close()

		got, err := ReadMetadata(db)
		if err != nil {
			t.Fatalf("ReadMetadata() error = %v", err)
		}
		if got.Title != "photos" || got.Host != "testhost" {
			t.Errorf("metadata = %+v", got)
		}
		if got.Finished != "2024-01-15 10:35:00" {
			t.Errorf("Finished = %q, want %q", got.Finished, "2024-01-15 10:35:00")
		}

		var viewRows []ViewRow
		err = ForEachViewRow(db, func(r ViewRow) error {
			viewRows = append(viewRows, r)
			return nil
		})
		if err != nil {
			t.Fatalf("ForEachViewRow() error = %v", err)
		}
		if len(viewRows) != 3 {
			t.Fatalf("got %d view rows, want 3", len(viewRows))
		}

		// Ordered by dir_name then file_name.
		if viewRows[0].FileName != "b.jpg" || viewRows[1].FileName != "pipe" || viewRows[2].FileName != "a.jpg" {
			t.Errorf("unexpected order: %s, %s, %s",
				viewRows[0].FileName, viewRows[1].FileName, viewRows[2].FileName)
		}
		if viewRows[2].DirName != "/data/photos/sub" {
			t.Errorf("DirName = %q, want %q", viewRows[2].DirName, "/data/photos/sub")
		}
		if viewRows[1].Error != catalog.ReasonNamedPipe {
			t.Errorf("Error = %q, want %q", viewRows[1].Error, catalog.ReasonNamedPipe)
		}
	})

	t.Run("checkpoint makes rows durable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.sqlite")

		store, err := CreateCatalog(path)
		if err != nil {
			t.Fatalf("CreateCatalog() error = %v", err)
		}
		defer store.Close()

		if err := store.InsertMetadata(testMetadata()); err != nil {
			t.Fatalf("InsertMetadata() error = %v", err)
		}
		if err := store.Checkpoint(); err != nil {
			t.Fatalf("Checkpoint() error = %v", err)
		}

		// A second connection sees committed rows while the store is open.
		db, err := OpenConnection(path)
		if err != nil {
			t.Fatalf("OpenConnection() error = %v", err)
		}
		defer db.Close()

		var count int64
		if err := db.QueryRow(`SELECT COUNT(*) FROM db_info`).Scan(&count); err != nil {
			t.Fatalf("counting db_info: %v", err)
		}
		if count != 1 {
			t.Errorf("db_info count = %d, want 1", count)
		}
	})

	t.Run("finish with unknown created fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.sqlite")

		store, err := CreateCatalog(path)
		if err != nil {
			t.Fatalf("CreateCatalog() error = %v", err)
		}
		defer store.Close()

		if err := store.FinishMetadata("1999-01-01 00:00:00", "1999-01-01 00:00:01"); err == nil {
			t.Fatal("expected error for unknown created key")
		}
	})

	t.Run("metadata missing on fresh database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.sqlite")

		store, err := CreateCatalog(path)
		if err != nil {
			t.Fatalf("CreateCatalog() error = %v", err)
		}
		store.Close()

		db, err := OpenConnection(path)
		if err != nil {
			t.Fatalf("OpenConnection() error = %v", err)
		}
		defer db.Close()

		if _, err := ReadMetadata(db); err == nil {
			t.Fatal("expected error for empty db_info")
		}
	})
}
