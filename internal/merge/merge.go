// Package merge combines multiple catalog databases into one, tagging each
// source so the combined data can be queried per-catalog or across all of
// them.
package merge

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"filelist-go/internal/catalog"
	"filelist-go/internal/database"
	"filelist-go/internal/database/migrations"
)

// Source is one catalog to merge. Tag may be empty, in which case the
// catalog's title is used.
type Source struct {
	Path string
	Tag  string
}

// Result reports which source tags were merged and which were skipped
// because the destination already contained them.
type Result struct {
	Merged  []string
	Skipped []string
}

// Run merges the given source catalogs into the database at dstPath,
// creating the merge schema if the database is new. Sources whose tag
// already exists in the destination are skipped, which makes appending the
// same catalog twice a no-op rather than an error.
func Run(dstPath string, sources []Source, logger catalog.Logger) (*Result, error) {
	dst, err := database.OpenConnection(dstPath)
	if err != nil {
		return nil, fmt.Errorf("opening destination: %w", err)
	}
	defer dst.Close()

	if err := migrations.MergeUp(dst); err != nil {
		return nil, fmt.Errorf("preparing destination schema: %w", err)
	}

	result := &Result{}
	for _, src := range sources {
		tag, merged, err := mergeOne(dst, src, logger)
		if err != nil {
			return nil, fmt.Errorf("merging %s: %w", src.Path, err)
		}
		if merged {
			result.Merged = append(result.Merged, tag)
		} else {
			logger.Warn("tag already present, skipping", "tag", tag, "source", src.Path)
			result.Skipped = append(result.Skipped, tag)
		}
	}
	return result, nil
}

// mergeOne copies one source catalog into the destination. Returns the tag
// used and whether the source was merged (false means a duplicate tag).
func mergeOne(dst *sql.DB, src Source, logger catalog.Logger) (string, bool, error) {
	srcDB, err := database.OpenConnection(src.Path)
	if err != nil {
		return "", false, fmt.Errorf("opening source: %w", err)
	}
	defer srcDB.Close()

	md, err := database.ReadMetadata(srcDB)
	if err != nil {
		return "", false, err
	}

	tag := src.Tag
	if tag == "" {
		tag = md.Title
	}

	var count int64
	if err := dst.QueryRow(`SELECT COUNT(*) FROM filelists WHERE tag = ?`, tag).Scan(&count); err != nil {
		return "", false, fmt.Errorf("checking tag: %w", err)
	}
	if count > 0 {
		return tag, false, nil
	}

	logger.Info("merging catalog", "tag", tag, "source", src.Path)

	tx, err := dst.Begin()
	if err != nil {
		return "", false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO filelists
		   (tag, file_name, created, host, scandir, title, finished, host_path_sep, db_version, app_name, app_version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tag, filepath.Base(src.Path), md.Created, md.Host, md.ScanDir, md.Title,
		md.Finished, md.HostPathSep, md.DBVersion, md.AppName, md.AppVersion,
	)
	if err != nil {
		return "", false, fmt.Errorf("inserting filelist row: %w", err)
	}
	filelistID, err := res.LastInsertId()
	if err != nil {
		return "", false, fmt.Errorf("reading filelist id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO files
		   (filelist_id, file_id, sha1, md5, file_name, file_size, last_modified, dir_name, dir_level, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", false, fmt.Errorf("preparing file insert: %w", err)
	}
	defer stmt.Close()

	err = database.ForEachViewRow(srcDB, func(r database.ViewRow) error {
		_, err := stmt.Exec(
			filelistID, r.ID, r.SHA1, r.MD5, r.FileName, r.FileSize,
			r.LastModified, r.DirName, r.DirLevel, r.Error,
		)
		return err
	})
	if err != nil {
		return "", false, fmt.Errorf("copying files: %w", err)
	}

	// View names embed the row id, which is an int64 from LastInsertId, so
	// building the statement with Sprintf is safe here.
	view := fmt.Sprintf(
		`CREATE VIEW filelist%d AS
		 SELECT b.tag, a.id, a.sha1, a.md5, a.file_name, a.file_size,
		        a.last_modified, a.dir_name, a.dir_level, a.error
		 FROM files a
		 JOIN filelists b ON a.filelist_id = b.id
		 WHERE b.id = %d
		 ORDER BY a.dir_name, a.file_name`,
		filelistID, filelistID,
	)
	if _, err := tx.Exec(view); err != nil {
		return "", false, fmt.Errorf("creating per-source view: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("committing merge: %w", err)
	}
	return tag, true, nil
}
