package registry_test

import (
	"testing"

	"unionfeed/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   int64
	Text string
}

func (n *note) RecordID() int64 { return n.ID }

func scanNote(scan func(dest ...interface{}) error) (registry.Record, error) {
	var n note
	if err := scan(&n.ID, &n.Text); err != nil {
		return nil, err
	}
	return &n, nil
}

func noteType() registry.Type {
	return registry.Type{
		Name:    registry.TypeName[note](),
		Alias:   "note",
		Table:   "notes",
		Columns: []string{"id", "text"},
		Scan:    scanNote,
	}
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "unionfeed/registry_test.note", registry.TypeName[note]())
	assert.Equal(t, "unionfeed/registry_test.note", registry.TypeName[*note]())
	assert.Equal(t, "int", registry.TypeName[int]())
}

func TestRegisterAndLookup(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(noteType()))

	byName, err := reg.Lookup(registry.TypeName[note]())
	require.NoError(t, err)
	assert.Equal(t, "notes", byName.Table)

	byAlias, err := reg.Lookup("note")
	require.NoError(t, err)
	assert.Same(t, byName, byAlias)

	assert.Equal(t, []string{"unionfeed/registry_test.note"}, reg.Names())
}

func TestLookupUnknown(t *testing.T) {
	_, err := registry.New().Lookup("missing")
	assert.ErrorIs(t, err, registry.ErrUnknownType)
}

func TestRegisterRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*registry.Type)
	}{
		{
			name:   "missing table",
			mutate: func(t *registry.Type) { t.Table = "" },
		},
		{
			name:   "missing columns",
			mutate: func(t *registry.Type) { t.Columns = nil },
		},
		{
			name:   "missing scan",
			mutate: func(t *registry.Type) { t.Scan = nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := noteType()
			tt.mutate(&typ)
			assert.Error(t, registry.New().Register(typ))
		})
	}
}

func TestRegisterDuplicates(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(noteType()))

	assert.Error(t, reg.Register(noteType()))

	other := noteType()
	other.Name = "other"
	assert.Error(t, reg.Register(other), "alias clash")

	other.Alias = registry.TypeName[note]()
	assert.Error(t, reg.Register(other), "alias equal to a registered name")

	assert.Panics(t, func() { reg.MustRegister(noteType()) })
}

func TestBatchFind(t *testing.T) {
	batch := registry.NewBatch("notes", []registry.Record{
		&note{ID: 1, Text: "a"},
		&note{ID: 7, Text: "b"},
	})

	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, "notes", batch.TypeName())

	r, ok := batch.Find(7)
	require.True(t, ok)
	assert.Equal(t, "b", r.(*note).Text)

	_, ok = batch.Find(3)
	assert.False(t, ok)
}
