// Package export writes catalog databases out as delimited flat files.
// The four variants (main, FullName, Alt, DirFileName) share one ordering:
// directory path, then file name.
package export

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"filelist-go/internal/catalog"
	"filelist-go/internal/database"
	"filelist-go/internal/encryption"
)

// Options selects which export variants to produce. The main CSV is always
// written. With a non-nil Encryptor every output is age-encrypted and gets
// an .age suffix.
type Options struct {
	OutDir    string
	FullName  bool
	Alt       bool
	DFN       bool
	Encryptor *encryption.AgeEncryptor
}

// Run exports the catalog and returns the paths of the files written.
func Run(db *sql.DB, md *catalog.Metadata, opts Options, logger catalog.Logger) ([]string, error) {
	e := &exporter{db: db, md: md, opts: opts, logger: logger}

	if err := e.write("", e.writeMain); err != nil {
		return nil, err
	}
	if opts.FullName {
		if err := e.write("-FullName", e.writeFullName); err != nil {
			return nil, err
		}
	}
	if opts.Alt {
		if err := e.write("-Alt", e.writeAlt); err != nil {
			return nil, err
		}
	}
	if opts.DFN {
		if err := e.write("-DirFileName", e.writeDFN); err != nil {
			return nil, err
		}
	}

	return e.written, nil
}

type exporter struct {
	db      *sql.DB
	md      *catalog.Metadata
	opts    Options
	logger  catalog.Logger
	written []string
}

// fileName derives the export file name from the catalog's title and
// created timestamp, e.g. FileList-photos-20240115_093000.csv.
func (e *exporter) fileName(suffix string) string {
	stamp := strings.NewReplacer(" ", "_", "-", "", ":", "").Replace(e.md.Created)
	name := fmt.Sprintf("FileList-%s-%s%s.csv", e.md.Title, stamp, suffix)
	if e.opts.Encryptor != nil {
		name += ".age"
	}
	return filepath.Join(e.opts.OutDir, name)
}

// write produces one export variant, wrapping the output in age encryption
// when configured.
func (e *exporter) write(suffix string, fn func(io.Writer) error) error {
	path := e.fileName(suffix)
	e.logger.Info("writing export", "path", path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	var enc io.WriteCloser
	if e.opts.Encryptor != nil {
		enc, err = e.opts.Encryptor.EncryptWriter(f)
		if err != nil {
			return fmt.Errorf("encrypting export: %w", err)
		}
		w = enc
	}

	if err := fn(w); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	if enc != nil {
		if err := enc.Close(); err != nil {
			return fmt.Errorf("finalizing encrypted export: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing export file: %w", err)
	}

	e.written = append(e.written, path)
	return nil
}

// q quotes a CSV field, doubling any embedded quote characters.
func q(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (e *exporter) writeMain(w io.Writer) error {
	if _, err := io.WriteString(w, `"SHA1","MD5","FileName","Size","LastModified","Level","DirName","Error"`+"\n"); err != nil {
		return err
	}
	return database.ForEachViewRow(e.db, func(r database.ViewRow) error {
		_, err := fmt.Fprintf(w, "%s,%s,%s,%d,%s,%d,%s,%s\n",
			q(r.SHA1), q(r.MD5), q(r.FileName), r.FileSize,
			q(r.LastModified), r.DirLevel, q(r.DirName), q(r.Error))
		return err
	})
}

func (e *exporter) writeFullName(w io.Writer) error {
	if _, err := io.WriteString(w, `"FullName"`+"\n"); err != nil {
		return err
	}
	sep := e.md.HostPathSep
	return database.ForEachViewRow(e.db, func(r database.ViewRow) error {
		_, err := fmt.Fprintf(w, "%s\n", q(r.DirName+sep+r.FileName))
		return err
	})
}

func (e *exporter) writeAlt(w io.Writer) error {
	if _, err := io.WriteString(w, `"KEY","SHA1","FileName","DirName","LastModified","Size","FileExt","ExtType","Level","FullName","Error"`+"\n"); err != nil {
		return err
	}
	sep := e.md.HostPathSep
	return database.ForEachViewRow(e.db, func(r database.ViewRow) error {
		key := r.SHA1 + ":" + r.FileName
		fullName := r.DirName + sep + r.FileName
		ext := filepath.Ext(r.FileName)
		_, err := fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s\n",
			q(key), q(r.SHA1), q(r.FileName), q(r.DirName), q(r.LastModified),
			q(fmt.Sprintf("%d", r.FileSize)), q(ext), q(ExtensionType(ext)),
			q(fmt.Sprintf("%d", r.DirLevel)), q(fullName), q(r.Error))
		return err
	})
}

func (e *exporter) writeDFN(w io.Writer) error {
	if _, err := io.WriteString(w, `"DirName","FileName","LastModified","Size","SHA1","Level","Error"`+"\n"); err != nil {
		return err
	}
	return database.ForEachViewRow(e.db, func(r database.ViewRow) error {
		_, err := fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s\n",
			q(r.DirName), q(r.FileName), q(r.LastModified),
			q(fmt.Sprintf("%d", r.FileSize)), q(r.SHA1),
			q(fmt.Sprintf("%d", r.DirLevel)), q(r.Error))
		return err
	})
}
