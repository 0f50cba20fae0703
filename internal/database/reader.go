package database

import (
	"database/sql"
	"fmt"

	"filelist-go/internal/catalog"
)

// ViewRow is one row of view_filelist: a file joined with its directory.
type ViewRow struct {
	ID           int64
	SHA1         string
	MD5          string
	FileName     string
	FileSize     int64
	LastModified string
	DirLevel     int64
	DirID        int64
	DirName      string
	Error        string
}

// ReadMetadata returns the db_info row of a catalog database.
func ReadMetadata(db *sql.DB) (*catalog.Metadata, error) {
	row := db.QueryRow(
		`SELECT created, host, scandir, title, finished, host_path_sep, db_version, app_name, app_version
		 FROM db_info`,
	)

	var md catalog.Metadata
	err := row.Scan(
		&md.Created, &md.Host, &md.ScanDir, &md.Title, &md.Finished,
		&md.HostPathSep, &md.DBVersion, &md.AppName, &md.AppVersion,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("not a catalog database: db_info is empty")
		}
		return nil, fmt.Errorf("reading db_info: %w", err)
	}
	return &md, nil
}

// ForEachViewRow streams view_filelist ordered by directory then file name
// and calls fn for each row. Iteration stops on the first error from fn.
func ForEachViewRow(db *sql.DB, fn func(ViewRow) error) error {
	rows, err := db.Query(
		`SELECT id, sha1, md5, file_name, file_size, last_modified, dir_level, dir_id, dir_name, error
		 FROM view_filelist
		 ORDER BY dir_name, file_name`,
	)
	if err != nil {
		return fmt.Errorf("querying view_filelist: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r ViewRow
		err := rows.Scan(
			&r.ID, &r.SHA1, &r.MD5, &r.FileName, &r.FileSize,
			&r.LastModified, &r.DirLevel, &r.DirID, &r.DirName, &r.Error,
		)
		if err != nil {
			return fmt.Errorf("scanning view_filelist row: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating view_filelist: %w", err)
	}
	return nil
}
