package feeds

import (
	"strings"

	"unionfeed/query"

	"github.com/huandu/go-sqlbuilder"
)

// EqualFilter keeps rows where Column equals Value
type EqualFilter struct {
	Column string
	Value  interface{}
}

func (f *EqualFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	sb.Where(sb.Equal(f.Column, f.Value))
}

// InFilter keeps rows where Column is one of Values. An empty list matches nothing.
type InFilter struct {
	Column string
	Values []interface{}
}

func (f *InFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	if len(f.Values) == 0 {
		sb.Where("1 = 0")
		return
	}
	sb.Where(sb.In(f.Column, f.Values...))
}

// LessThanFilter is typically used as a cursor on ids or timestamps
type LessThanFilter struct {
	Column string
	Value  interface{}
}

func (f *LessThanFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	sb.Where(sb.LessThan(f.Column, f.Value))
}

type GreaterThanFilter struct {
	Column string
	Value  interface{}
}

func (f *GreaterThanFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	sb.Where(sb.GreaterThan(f.Column, f.Value))
}

// IsNullFilter filters out rows with a value in Column, e.g. replies
type IsNullFilter struct {
	Column string
}

func (f *IsNullFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	sb.Where(sb.IsNull(f.Column))
}

type NotNullFilter struct {
	Column string
}

func (f *NotNullFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	sb.Where(sb.IsNotNull(f.Column))
}

// LanguageFilter filters rows by language code
type LanguageFilter struct {
	Column    string
	Languages []string
}

func (f *LanguageFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	if len(f.Languages) == 0 {
		return
	}
	column := f.Column
	if column == "" {
		column = "language"
	}
	values := make([]interface{}, len(f.Languages))
	for i, lang := range f.Languages {
		values[i] = lang
	}
	sb.Where(sb.In(column, values...))
}

// KeywordFilter matches a text column case insensitively. A row must contain
// at least one included keyword and none of the excluded ones.
type KeywordFilter struct {
	Column  string
	Include []query.KeywordConfig
	Exclude []query.KeywordConfig
}

func (f *KeywordFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder) {
	column := "LOWER(" + f.Column + ")"

	var include []string
	for _, keyword := range flattenKeywords(f.Include) {
		include = append(include, sb.Like(column, "%"+keyword+"%"))
	}
	if len(include) > 0 {
		sb.Where(sb.Or(include...))
	}

	for _, keyword := range flattenKeywords(f.Exclude) {
		sb.Where(sb.NotLike(column, "%"+keyword+"%"))
	}
}

func flattenKeywords(configs []query.KeywordConfig) []string {
	var keywords []string
	for _, cfg := range configs {
		for _, keyword := range cfg.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword == "" {
				continue
			}
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

var _ query.FilterStrategy = (*EqualFilter)(nil)
var _ query.FilterStrategy = (*InFilter)(nil)
var _ query.FilterStrategy = (*LessThanFilter)(nil)
var _ query.FilterStrategy = (*GreaterThanFilter)(nil)
var _ query.FilterStrategy = (*IsNullFilter)(nil)
var _ query.FilterStrategy = (*NotNullFilter)(nil)
var _ query.FilterStrategy = (*LanguageFilter)(nil)
var _ query.FilterStrategy = (*KeywordFilter)(nil)
