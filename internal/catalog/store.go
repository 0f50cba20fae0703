package catalog

// Tool identity recorded in every catalog's metadata row.
const (
	AppName    = "fl"
	AppVersion = "0.1.0"
)

// Metadata is the single db_info row describing one scan run. Created is
// the primary key; Finished stays empty until the run completes, so a
// crashed run still leaves a traceable partial catalog.
type Metadata struct {
	Created     string
	Host        string
	ScanDir     string
	Title       string
	Finished    string
	HostPathSep string
	DBVersion   int64
	AppName     string
	AppVersion  string
}

// Store is the persistence contract consumed by the Builder. The Builder
// exclusively owns the store for the duration of one run; writes accumulate
// in an open transaction until Checkpoint or Close commits them.
type Store interface {
	// InsertMetadata writes the db_info row before any file processing.
	InsertMetadata(md Metadata) error

	// FinishMetadata sets the finished timestamp on the row keyed by created.
	FinishMetadata(created, finished string) error

	// InsertDirectory persists one interned directory row.
	InsertDirectory(id int64, dir string) error

	// InsertFile persists one file row keyed by its sequence index.
	InsertFile(seq int64, dirID int64, rec FileRecord) error

	// Checkpoint commits accumulated rows and opens a new transaction.
	// A checkpoint failure is fatal to the run: a partial catalog is
	// acceptable, an inconsistent one is not.
	Checkpoint() error

	// Close commits any remaining rows and releases the store.
	Close() error
}

// FileSource enumerates the regular files under a scan root.
type FileSource interface {
	EnumerateFiles(root string) ([]string, error)
}

// StoreOpener creates the catalog store. The Builder calls it only after
// enumeration finds at least one file, so an empty scan produces no store
// artifact at all.
type StoreOpener func() (Store, error)
