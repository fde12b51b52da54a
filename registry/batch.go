package registry

// Batch is a set of records of one type loaded in a single query.
type Batch struct {
	typeName string
	records  map[int64]Record
}

func NewBatch(typeName string, records []Record) *Batch {
	b := &Batch{
		typeName: typeName,
		records:  make(map[int64]Record, len(records)),
	}
	for _, r := range records {
		b.records[r.RecordID()] = r
	}
	return b
}

// Find returns the record with the given id, if it was loaded.
func (b *Batch) Find(id int64) (Record, bool) {
	r, ok := b.records[id]
	return r, ok
}

func (b *Batch) TypeName() string {
	return b.typeName
}

func (b *Batch) Len() int {
	return len(b.records)
}
