package feeds

import (
	"context"
	"fmt"

	"unionfeed/db"
	"unionfeed/registry"

	"github.com/huandu/go-sqlbuilder"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTagColumn  = "tag_name"
	DefaultTypeColumn = "model_name"
)

type entry struct {
	tag    string
	source *Query
}

// settings the combined query was built with
type settings struct {
	tagColumn        string
	typeColumn       string
	removeDuplicates bool
	flavor           sqlbuilder.Flavor
}

// Aggregator combines queries over different record types into one feed. The
// sources are merged with a single UNION ALL (or UNION) query selecting the
// id, tag and type name of every row; Get then loads the full records with
// one query per type and returns them in the order of the combined query.
//
// An Aggregator is meant to be built and consumed within one request and is
// not safe for concurrent use.
type Aggregator struct {
	// TagColumn and TypeColumn name the synthetic columns holding the source
	// tag and the record type. They must not clash with real columns.
	TagColumn  string
	TypeColumn string

	// RemoveDuplicates combines sources with UNION instead of UNION ALL, so
	// identical (id, tag, type) rows from different sources collapse.
	RemoveDuplicates bool

	Flavor sqlbuilder.Flavor

	exec     db.Executor
	registry *registry.Registry
	entries  []entry
	err      error

	combined      sqlbuilder.Builder
	combinedSetup settings
}

func New(exec db.Executor, reg *registry.Registry) *Aggregator {
	return &Aggregator{
		TagColumn:  DefaultTagColumn,
		TypeColumn: DefaultTypeColumn,
		Flavor:     sqlbuilder.SQLite,
		exec:       exec,
		registry:   reg,
	}
}

// Add appends a tagged source. A nil source is ignored, which allows optional
// sources to be added unconditionally. An empty tag is reported by the next
// Count, Get, Rows or ToSQL call.
func (a *Aggregator) Add(tag string, source *Query) *Aggregator {
	if source == nil {
		return a
	}
	if tag == "" {
		if a.err == nil {
			a.err = ErrEmptyTag
		}
		return a
	}

	a.entries = append(a.entries, entry{tag: tag, source: source})
	a.combined = nil
	return a
}

// AddFunc adds the source returned by fn, if any.
func (a *Aggregator) AddFunc(tag string, fn func() *Query) *Aggregator {
	if fn == nil {
		return a
	}
	return a.Add(tag, fn())
}

// Len returns the number of sources added.
func (a *Aggregator) Len() int {
	return len(a.entries)
}

// ToSQL renders the combined query without running it.
func (a *Aggregator) ToSQL() (string, []interface{}, error) {
	combined, s, err := a.build()
	if err != nil {
		return "", nil, err
	}

	sql, args := combined.BuildWithFlavor(s.flavor)
	return sql, args, nil
}

// Count returns the number of rows of the combined query.
func (a *Aggregator) Count(ctx context.Context) (total int64, err error) {
	done := track("count")
	defer func() { done(err) }()

	combined, s, err := a.build()
	if err != nil {
		return 0, err
	}

	sb := s.flavor.NewSelectBuilder()
	sb.Select("COUNT(*) AS total").From(sb.BuilderAs(combined, "records"))
	sql, args := sb.Build()

	rows, err := a.exec.QueryContext(ctx, sql, args...)
	if err != nil {
		return 0, &QueryError{Op: "count", Err: err}
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, &QueryError{Op: "count", Err: fmt.Errorf("scan error: %w", err)}
		}
	}
	if err := rows.Err(); err != nil {
		return 0, &QueryError{Op: "count", Err: err}
	}

	return total, nil
}

// Rows runs the combined query and returns its rows without loading records.
func (a *Aggregator) Rows(ctx context.Context) (rows []Row, err error) {
	done := track("rows")
	defer func() { done(err) }()

	combined, s, err := a.build()
	if err != nil {
		return nil, err
	}
	return a.rows(ctx, combined, s)
}

// Get runs the combined query and returns the full records, tagged, in the
// order the combined query returned them.
func (a *Aggregator) Get(ctx context.Context) (items []Item, err error) {
	done := track("get")
	defer func() { done(err) }()

	combined, s, err := a.build()
	if err != nil {
		return nil, err
	}

	rows, err := a.rows(ctx, combined, s)
	if err != nil {
		return nil, err
	}

	// Load each type once, in order of first appearance
	typeNames := lo.Uniq(lo.Map(rows, func(r Row, _ int) string { return r.TypeName }))
	byType := lo.GroupBy(rows, func(r Row) string { return r.TypeName })

	batches := make(map[string]*registry.Batch, len(typeNames))
	for _, typeName := range typeNames {
		t, err := a.registry.Lookup(typeName)
		if err != nil {
			return nil, err
		}

		ids := lo.Uniq(lo.Map(byType[typeName], func(r Row, _ int) int64 { return r.ID }))
		batch, err := a.load(ctx, s, t, ids)
		if err != nil {
			return nil, err
		}
		batches[typeName] = batch
	}

	items = make([]Item, 0, len(rows))
	for _, r := range rows {
		record, ok := batches[r.TypeName].Find(r.ID)
		if !ok {
			feedIntegrityErrors.Inc()
			return nil, &IntegrityError{TypeName: r.TypeName, ID: r.ID}
		}

		items = append(items, Item{
			Record:    record,
			Tag:       r.Tag,
			TypeName:  r.TypeName,
			tagField:  s.tagColumn,
			typeField: s.typeColumn,
		})
	}

	log.WithFields(log.Fields{
		"sources": len(a.entries),
		"types":   typeNames,
		"items":   len(items),
	}).Info("Loaded feed")

	return items, nil
}

func (a *Aggregator) rows(ctx context.Context, combined sqlbuilder.Builder, s settings) ([]Row, error) {
	sql, args := combined.BuildWithFlavor(s.flavor)

	log.WithFields(log.Fields{
		"sql":  sql,
		"args": args,
	}).Debug("Generated SQL query")

	result, err := a.exec.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{Op: "rows", Err: err}
	}
	defer result.Close()

	rows := []Row{}
	for result.Next() {
		var r Row
		if err := result.Scan(&r.ID, &r.Tag, &r.TypeName); err != nil {
			return nil, &QueryError{Op: "rows", Err: fmt.Errorf("scan error: %w", err)}
		}
		rows = append(rows, r)
	}
	if err := result.Err(); err != nil {
		return nil, &QueryError{Op: "rows", Err: err}
	}

	return rows, nil
}

// load fetches the records of type t with the given ids in one query
func (a *Aggregator) load(ctx context.Context, s settings, t *registry.Type, ids []int64) (*registry.Batch, error) {
	sb := s.flavor.NewSelectBuilder()
	sb.Select(t.Columns...).From(t.Table).Where(sb.In("id", lo.ToAnySlice(ids)...))
	sql, args := sb.Build()

	result, err := a.exec.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{Op: "load " + t.Name, Err: err}
	}
	defer result.Close()

	records := make([]registry.Record, 0, len(ids))
	for result.Next() {
		record, err := t.Scan(result.Scan)
		if err != nil {
			return nil, &QueryError{Op: "load " + t.Name, Err: fmt.Errorf("scan error: %w", err)}
		}
		records = append(records, record)
	}
	if err := result.Err(); err != nil {
		return nil, &QueryError{Op: "load " + t.Name, Err: err}
	}

	return registry.NewBatch(t.Name, records), nil
}

func (a *Aggregator) currentSettings() settings {
	s := settings{
		tagColumn:        a.TagColumn,
		typeColumn:       a.TypeColumn,
		removeDuplicates: a.RemoveDuplicates,
		flavor:           a.Flavor,
	}
	if s.tagColumn == "" {
		s.tagColumn = DefaultTagColumn
	}
	if s.typeColumn == "" {
		s.typeColumn = DefaultTypeColumn
	}
	if s.flavor == sqlbuilder.Flavor(0) {
		s.flavor = sqlbuilder.SQLite
	}
	return s
}

// build returns the combined query, reusing the cached one unless a source
// was added or the settings changed since it was built.
func (a *Aggregator) build() (sqlbuilder.Builder, settings, error) {
	s := a.currentSettings()

	if a.err != nil {
		return nil, s, a.err
	}
	if len(a.entries) == 0 {
		return nil, s, ErrEmptyFeed
	}
	if a.combined != nil && a.combinedSetup == s {
		return a.combined, s, nil
	}

	selects := make([]sqlbuilder.Builder, 0, len(a.entries))
	for _, e := range a.entries {
		t, err := a.registry.Lookup(e.source.TypeName())
		if err != nil {
			return nil, s, err
		}
		selects = append(selects, e.source.project(s, t, e.tag))
	}

	var combined sqlbuilder.Builder
	switch {
	case len(selects) == 1:
		combined = selects[0]
	case s.removeDuplicates:
		combined = sqlbuilder.Union(selects...)
	default:
		combined = sqlbuilder.UnionAll(selects...)
	}

	a.combined, a.combinedSetup = combined, s
	return combined, s, nil
}
