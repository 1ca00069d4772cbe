package ingest

// Entry is the in-memory view of one persisted record: its id and the
// canonical string value of every non-empty field.
type Entry struct {
	ID     int64
	Values map[Field]string
}

// Index maps a normalized natural key to the persisted record. It is built
// once per run so reconciliation costs one lookup per row instead of a query.
type Index struct {
	entries map[string]*Entry
}

func NewIndex() *Index {
	return &Index{entries: make(map[string]*Entry)}
}

func (ix *Index) Get(key string) (*Entry, bool) {
	e, ok := ix.entries[key]
	return e, ok
}

// Put records e under key, replacing any previous entry.
func (ix *Index) Put(key string, e *Entry) {
	ix.entries[key] = e
}

func (ix *Index) Len() int { return len(ix.entries) }

// diff returns the fields of incoming that are non-empty and differ from
// current. An empty cell never clears a stored value.
func diff(current, incoming map[Field]string) map[Field]string {
	patch := make(map[Field]string)
	for f, v := range incoming {
		if v == "" {
			continue
		}
		if current[f] != v {
			patch[f] = v
		}
	}
	return patch
}

// setIfPresent stores v under f only when it is non-empty.
func setIfPresent(values map[Field]string, f Field, v string) {
	if v != "" {
		values[f] = v
	}
}
