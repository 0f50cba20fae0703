package database

import (
	"database/sql"
	"fmt"

	"filelist-go/internal/catalog"
	"filelist-go/internal/database/migrations"
)

// CatalogDB is the SQLite implementation of catalog.Store. All writes go
// through an open transaction that is committed at each checkpoint; there
// is no rollback path — a failed commit is fatal to the run and the
// partial catalog up to the previous checkpoint stands.
type CatalogDB struct {
	db   *sql.DB
	tx   *sql.Tx
	path string
}

// CreateCatalog creates a new catalog database at path, applies the schema
// migrations, and opens the first write transaction. The caller must call
// Close when done.
func CreateCatalog(path string) (*CatalogDB, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.CatalogUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("starting transaction: %w", err)
	}

	return &CatalogDB{db: db, tx: tx, path: path}, nil
}

// Path returns the catalog database file path.
func (c *CatalogDB) Path() string {
	return c.path
}

// InsertMetadata writes the db_info row. Finished is stored empty; a
// crashed run leaves it that way, marking the catalog as partial.
func (c *CatalogDB) InsertMetadata(md catalog.Metadata) error {
	_, err := c.tx.Exec(
		`INSERT INTO db_info (created, host, scandir, title, finished, host_path_sep, db_version, app_name, app_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		md.Created, md.Host, md.ScanDir, md.Title, md.Finished,
		md.HostPathSep, md.DBVersion, md.AppName, md.AppVersion,
	)
	if err != nil {
		return fmt.Errorf("inserting db_info: %w", err)
	}
	return nil
}

// FinishMetadata sets the finished timestamp on the row keyed by created.
func (c *CatalogDB) FinishMetadata(created, finished string) error {
	res, err := c.tx.Exec(
		"UPDATE db_info SET finished = ? WHERE created = ?",
		finished, created,
	)
	if err != nil {
		return fmt.Errorf("updating db_info: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating db_info: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("updating db_info: no row with created = %q", created)
	}
	return nil
}

// InsertDirectory persists one interned directory row.
func (c *CatalogDB) InsertDirectory(id int64, dir string) error {
	_, err := c.tx.Exec(
		"INSERT INTO directories (id, dir_name) VALUES (?, ?)",
		id, dir,
	)
	if err != nil {
		return fmt.Errorf("inserting directory %q: %w", dir, err)
	}
	return nil
}

// InsertFile persists one file row keyed by its sequence index.
func (c *CatalogDB) InsertFile(seq int64, dirID int64, rec catalog.FileRecord) error {
	_, err := c.tx.Exec(
		`INSERT INTO files (id, sha1, md5, file_name, file_size, last_modified, dir_level, dir_id, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, rec.SHA1, rec.MD5, rec.Name, rec.Size, rec.Modified, rec.Level, dirID, rec.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting file %q: %w", rec.Name, err)
	}
	return nil
}

// Checkpoint commits the open transaction and starts a new one.
func (c *CatalogDB) Checkpoint() error {
	if err := c.tx.Commit(); err != nil {
		return fmt.Errorf("committing checkpoint: %w", err)
	}
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction after checkpoint: %w", err)
	}
	c.tx = tx
	return nil
}

// Close commits any remaining rows and closes the database.
func (c *CatalogDB) Close() error {
	var firstErr error
	if c.tx != nil {
		if err := c.tx.Commit(); err != nil && err != sql.ErrTxDone {
			firstErr = fmt.Errorf("committing final rows: %w", err)
		}
		c.tx = nil
	}
	if err := c.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	return firstErr
}

// Compile-time check that CatalogDB implements catalog.Store
var _ catalog.Store = (*CatalogDB)(nil)
