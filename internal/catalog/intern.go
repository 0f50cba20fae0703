package catalog

// DirectoryInterner assigns dense integer ids to unique directory paths in
// first-seen order, so file rows store a compact reference instead of a
// repeated string. The mapping is append-only for the run: there is no
// removal or renumbering.
type DirectoryInterner struct {
	ids    map[string]int64
	nextID int64
}

// NewDirectoryInterner creates an interner whose first id will be 1.
func NewDirectoryInterner() *DirectoryInterner {
	return &DirectoryInterner{
		ids:    make(map[string]int64),
		nextID: 1,
	}
}

// Resolve returns the id for dir, assigning the next dense id if the path
// has not been seen. isNew reports whether this call created the id, which
// is when the caller must persist the directory row.
func (in *DirectoryInterner) Resolve(dir string) (id int64, isNew bool) {
	if id, ok := in.ids[dir]; ok {
		return id, false
	}
	id = in.nextID
	in.nextID++
	in.ids[dir] = id
	return id, true
}

// Len returns the number of interned directories.
func (in *DirectoryInterner) Len() int {
	return len(in.ids)
}
