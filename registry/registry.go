// Package registry maps type identifiers to the tables and scanners needed to
// bulk load records of that type.
//
// A type identifier is the fully qualified Go type name of a record, e.g.
// "unionfeed/models.Post". It is written into every union row so the rows can
// be grouped and re-loaded from the right table afterwards.
//
// Types are registered at startup:
//
//	reg := registry.New()
//	reg.MustRegister(registry.Type{
//	    Name:    registry.TypeName[models.Post](),
//	    Alias:   "post",
//	    Table:   "posts",
//	    Columns: []string{"id", "title"},
//	    Scan:    scanPost,
//	})
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ErrUnknownType is returned when a type identifier has no registration.
var ErrUnknownType = errors.New("unknown record type")

// Record is a loaded row of a registered type.
type Record interface {
	RecordID() int64
}

// ScanFunc turns one result row into a Record. The scan argument has the
// signature of (*sql.Rows).Scan and receives columns in Type.Columns order.
type ScanFunc func(scan func(dest ...interface{}) error) (Record, error)

// Type describes how records of one type are stored.
type Type struct {
	// Name is the type identifier written to the synthetic type column
	Name string
	// Alias is an optional short name, used by config files
	Alias string
	// Table holding the records, with an integer "id" primary key
	Table   string
	Columns []string
	Scan    ScanFunc
}

type Registry struct {
	mu      sync.RWMutex
	types   map[string]*Type
	aliases map[string]*Type
}

func New() *Registry {
	return &Registry{
		types:   make(map[string]*Type),
		aliases: make(map[string]*Type),
	}
}

// Register adds t to the registry. Names and aliases share one namespace and
// must be unique.
func (r *Registry) Register(t Type) error {
	if t.Name == "" || t.Table == "" {
		return fmt.Errorf("type registry: name and table are required")
	}
	if len(t.Columns) == 0 || t.Scan == nil {
		return fmt.Errorf("type registry: %q needs columns and a scan function", t.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(t.Name) {
		return fmt.Errorf("type registry: type %q already registered", t.Name)
	}
	if t.Alias != "" && r.taken(t.Alias) {
		return fmt.Errorf("type registry: alias %q already registered", t.Alias)
	}

	registered := t
	r.types[t.Name] = &registered
	if t.Alias != "" {
		r.aliases[t.Alias] = &registered
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

func (r *Registry) taken(name string) bool {
	_, isType := r.types[name]
	_, isAlias := r.aliases[name]
	return isType || isAlias
}

// Lookup resolves a type identifier or alias.
func (r *Registry) Lookup(name string) (*Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.types[name]; ok {
		return t, nil
	}
	if t, ok := r.aliases[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Names returns the registered type identifiers in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeName returns the fully qualified name of T, dereferencing pointers.
func TypeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
