package catalog

import (
	"fmt"
	"os"
	"sort"
	"time"
)

// checkpointInterval is the number of file rows between durability commits.
// Balances throughput against bounded data loss on abrupt termination.
const checkpointInterval = 1024

// Progress describes the state of the per-file loop for display purposes.
type Progress struct {
	Index   int64  // 1-based position in the sorted file list
	Count   int64  // total number of files
	Percent string // clamped display percentage
	Finish  string // projected finish timestamp, or "(?)"
	Path    string
}

// ProgressFunc receives a Progress update before each file is processed.
type ProgressFunc func(p Progress)

// BuildOptions configures one catalog build run.
type BuildOptions struct {
	ScanDir      string
	Title        string
	Host         string
	DirnameStart int // leading bytes stripped from directory paths (trim-parent)
	SchemaVer    int64

	// Started is the run timestamp recorded as the catalog's created key.
	// Callers that stamp the timestamp elsewhere (the output file name)
	// pass the same value here so the two never drift. Zero means the
	// clock's current time.
	Started time.Time
}

// Result summarizes a completed (or empty) build.
type Result struct {
	Created string // metadata primary key; empty when no store was produced
	Files   int64
	Bytes   int64
	Empty   bool // no files found, no store artifact created
}

// Builder orchestrates the catalog pipeline: enumerate, size, sort, then a
// strictly sequential per-file loop of classify → intern → persist with
// periodic checkpoints. Single-threaded: file hashing is I/O-bound and the
// deterministic sequence-index assignment is the point.
type Builder struct {
	source   FileSource
	open     StoreOpener
	logger   Logger
	clock    Clock
	progress ProgressFunc
}

// NewBuilder creates a Builder with the provided dependencies.
// progress may be nil.
func NewBuilder(source FileSource, open StoreOpener, logger Logger, clock Clock, progress ProgressFunc) *Builder {
	return &Builder{
		source:   source,
		open:     open,
		logger:   logger,
		clock:    clock,
		progress: progress,
	}
}

// Run executes the build. Per-file failures (special files, empty files,
// hashing errors, even a failed lstat) are recorded as row data and never
// abort the run. Fatal errors are store failures only.
func (b *Builder) Run(opts BuildOptions) (*Result, error) {
	files, err := b.source.EnumerateFiles(opts.ScanDir)
	if err != nil {
		return nil, fmt.Errorf("enumerating %s: %w", opts.ScanDir, err)
	}

	totalSize := b.sumSizes(files)
	b.logger.Info("scan enumerated", "files", len(files), "bytes", totalSize)

	// Deterministic ordering: the sequence index doubles as the row key, so
	// re-running against an unchanged tree must reproduce the assignment.
	sort.Strings(files)

	if len(files) == 0 {
		b.logger.Info("no files found", "scandir", opts.ScanDir)
		return &Result{Empty: true}, nil
	}

	store, err := b.open()
	if err != nil {
		return nil, fmt.Errorf("opening catalog store: %w", err)
	}
	defer store.Close()

	started := opts.Started
	if started.IsZero() {
		started = b.clock.Now()
	}
	created := started.Format(mtimeFormat)
	md := Metadata{
		Created:     created,
		Host:        opts.Host,
		ScanDir:     opts.ScanDir,
		Title:       opts.Title,
		HostPathSep: string(os.PathSeparator),
		DBVersion:   opts.SchemaVer,
		AppName:     AppName,
		AppVersion:  AppVersion,
	}
	if err := store.InsertMetadata(md); err != nil {
		return nil, fmt.Errorf("writing catalog metadata: %w", err)
	}

	// Anchor the ETA after the enumerate/size pass so its one-time cost
	// does not distort the per-file rate.
	est := NewEstimator(b.clock)
	interner := NewDirectoryInterner()

	var completed int64
	count := int64(len(files))

	for i, path := range files {
		seq := int64(i) + 1

		if b.progress != nil {
			frac, disp := PercentComplete(completed, totalSize)
			b.progress(Progress{
				Index:   seq,
				Count:   count,
				Percent: disp,
				Finish:  est.EstimateFinish(frac),
				Path:    path,
			})
		}

		rec, err := Classify(path, opts.DirnameStart)
		if err != nil {
			// The entry vanished or became unreadable between the walk and
			// now. Record the failure and keep going.
			b.logger.Warn("stat failed", "path", path, "error", err)
			rec.Error = err.Error()
		}

		dirID, isNew := interner.Resolve(rec.Dir)
		if isNew {
			if err := store.InsertDirectory(dirID, rec.Dir); err != nil {
				return nil, fmt.Errorf("persisting directory %q: %w", rec.Dir, err)
			}
		}

		if err := store.InsertFile(seq, dirID, rec); err != nil {
			return nil, fmt.Errorf("persisting file %q: %w", path, err)
		}

		completed += rec.Size

		if seq%checkpointInterval == 0 {
			if err := store.Checkpoint(); err != nil {
				return nil, fmt.Errorf("checkpoint at %d files: %w", seq, err)
			}
			b.logger.Debug("checkpoint", "files", seq)
		}
	}

	finished := b.clock.Now().Format(mtimeFormat)
	if err := store.FinishMetadata(created, finished); err != nil {
		return nil, fmt.Errorf("finishing catalog metadata: %w", err)
	}

	b.logger.Info("catalog complete", "files", count, "bytes", completed, "directories", interner.Len())

	return &Result{
		Created: created,
		Files:   count,
		Bytes:   completed,
	}, nil
}

// sumSizes totals the sizes of the enumerated files for the ETA
// denominator. Entries that cannot be stat'd contribute zero; the per-file
// loop will record their failure.
func (b *Builder) sumSizes(files []string) int64 {
	var total int64
	for _, f := range files {
		info, err := os.Lstat(f)
		if err != nil {
			b.logger.Warn("size unavailable", "path", f, "error", err)
			continue
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
	}
	return total
}
