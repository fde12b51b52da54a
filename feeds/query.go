package feeds

import (
	"unionfeed/query"
	"unionfeed/registry"

	"github.com/huandu/go-sqlbuilder"
)

// Query describes the rows one feed source contributes: a registered record
// type plus filters, and optionally its own ordering and limit.
//
// Queries are copy on write. Where, OrderBy and Limit return a new Query, so
// a base query can be shared between feeds and sources.
type Query struct {
	typeName string
	filters  []query.FilterStrategy
	orderBy  []string
	limit    int
}

// NewQuery starts a query over the type registered as typeName (name or alias).
func NewQuery(typeName string) *Query {
	return &Query{typeName: typeName, limit: -1}
}

// From starts a query over records of type T.
func From[T any]() *Query {
	return NewQuery(registry.TypeName[T]())
}

func (q *Query) TypeName() string {
	return q.typeName
}

func (q *Query) Where(filters ...query.FilterStrategy) *Query {
	c := q.clone()
	c.filters = append(c.filters, filters...)
	return c
}

// OrderBy orders the source before its limit applies, e.g. "created_at DESC".
func (q *Query) OrderBy(cols ...string) *Query {
	c := q.clone()
	c.orderBy = append(c.orderBy, cols...)
	return c
}

func (q *Query) Limit(limit int) *Query {
	c := q.clone()
	c.limit = limit
	return c
}

func (q *Query) clone() *Query {
	return &Query{
		typeName: q.typeName,
		filters:  append([]query.FilterStrategy(nil), q.filters...),
		orderBy:  append([]string(nil), q.orderBy...),
		limit:    q.limit,
	}
}

// project builds a fresh select of the id column plus the tag and type name
// as bound constant columns. Sources with ordering or a limit are wrapped in a
// derived table since SQLite rejects ORDER BY and LIMIT on union members.
func (q *Query) project(s settings, t *registry.Type, tag string) *sqlbuilder.SelectBuilder {
	sb := s.flavor.NewSelectBuilder()
	sb.Select(
		"id",
		sb.As(constant(s.flavor, sb.Var(tag)), s.tagColumn),
		sb.As(constant(s.flavor, sb.Var(t.Name)), s.typeColumn),
	)

	if len(q.orderBy) == 0 && q.limit < 0 {
		sb.From(t.Table)
		q.applyFilters(sb)
		return sb
	}

	inner := s.flavor.NewSelectBuilder()
	inner.Select("id").From(t.Table)
	q.applyFilters(inner)
	if len(q.orderBy) > 0 {
		inner.OrderBy(q.orderBy...)
	}
	if q.limit >= 0 {
		inner.Limit(q.limit)
	}

	sb.From(sb.BuilderAs(inner, "source"))
	return sb
}

func (q *Query) applyFilters(sb *sqlbuilder.SelectBuilder) {
	for _, filter := range q.filters {
		filter.ApplyFilter(sb)
	}
}

// constant casts a bound parameter so every union member yields a text column
func constant(flavor sqlbuilder.Flavor, placeholder string) string {
	if flavor == sqlbuilder.MySQL {
		return "CAST(" + placeholder + " AS CHAR)"
	}
	return "CAST(" + placeholder + " AS TEXT)"
}
