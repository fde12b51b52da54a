// Package feeds combines records of different types into tagged feeds
package feeds

import (
	"fmt"
	"sort"

	"unionfeed/config"
	"unionfeed/db"
	"unionfeed/query"
	"unionfeed/registry"

	"github.com/huandu/go-sqlbuilder"
)

// FeedMap maps feed IDs to their definitions
type FeedMap map[string]*Definition

// Source is a tagged query of a feed definition
type Source struct {
	Tag   string
	Query *Query
}

// Definition is a configured feed. It is immutable once initialized and
// hands out a fresh Aggregator per use.
type Definition struct {
	Id               string
	DisplayName      string
	Description      string
	RemoveDuplicates bool
	TagColumn        string
	TypeColumn       string
	Sources          []Source
}

// Aggregator returns a new aggregator holding all sources of the feed.
func (d *Definition) Aggregator(exec db.Executor, reg *registry.Registry, flavor sqlbuilder.Flavor) *Aggregator {
	agg := New(exec, reg)
	agg.Flavor = flavor
	agg.RemoveDuplicates = d.RemoveDuplicates
	if d.TagColumn != "" {
		agg.TagColumn = d.TagColumn
	}
	if d.TypeColumn != "" {
		agg.TypeColumn = d.TypeColumn
	}

	for _, source := range d.Sources {
		agg.Add(source.Tag, source.Query)
	}
	return agg
}

// Sorted returns the definitions ordered by id
func (m FeedMap) Sorted() []*Definition {
	defs := make([]*Definition, 0, len(m))
	for _, def := range m {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Id < defs[j].Id })
	return defs
}

// InitializeFeeds turns the TOML configuration into feed definitions,
// resolving record types against reg and keyword lists against the config.
func InitializeFeeds(cfg *config.TomlConfig, reg *registry.Registry) (FeedMap, error) {
	keywords := make(map[string]query.KeywordConfig, len(cfg.Keywords))
	for name, list := range cfg.Keywords {
		keywords[name] = query.KeywordConfig{Name: name, Keywords: list}
	}

	feeds := make(FeedMap, len(cfg.Feeds))
	for _, feedCfg := range cfg.Feeds {
		def := &Definition{
			Id:               feedCfg.Id,
			DisplayName:      feedCfg.DisplayName,
			Description:      feedCfg.Description,
			RemoveDuplicates: feedCfg.RemoveDuplicates,
			TagColumn:        cfg.Columns.Tag,
			TypeColumn:       cfg.Columns.Type,
		}

		for i, sourceCfg := range feedCfg.Sources {
			source, err := createSource(sourceCfg, reg, keywords)
			if err != nil {
				return nil, fmt.Errorf("feed %q source %d: %w", feedCfg.Id, i, err)
			}
			def.Sources = append(def.Sources, source)
		}

		feeds[def.Id] = def
	}

	return feeds, nil
}

func createSource(cfg config.TomlSource, reg *registry.Registry, keywords map[string]query.KeywordConfig) (Source, error) {
	if cfg.Tag == "" {
		return Source{}, ErrEmptyTag
	}

	t, err := reg.Lookup(cfg.Type)
	if err != nil {
		return Source{}, err
	}

	q := NewQuery(t.Name)
	for _, filterCfg := range cfg.Filters {
		filter, err := createFilter(filterCfg, keywords)
		if err != nil {
			return Source{}, err
		}
		q = q.Where(filter)
	}
	if len(cfg.OrderBy) > 0 {
		q = q.OrderBy(cfg.OrderBy...)
	}
	if cfg.Limit != nil {
		q = q.Limit(*cfg.Limit)
	}

	return Source{Tag: cfg.Tag, Query: q}, nil
}

func createFilter(cfg config.TomlFilter, keywords map[string]query.KeywordConfig) (query.FilterStrategy, error) {
	needsColumn := cfg.Type != "language"
	if needsColumn && cfg.Column == "" {
		return nil, fmt.Errorf("%s filter needs a column", cfg.Type)
	}

	switch cfg.Type {
	case "equal":
		return &EqualFilter{Column: cfg.Column, Value: cfg.Value}, nil
	case "in":
		return &InFilter{Column: cfg.Column, Values: cfg.Values}, nil
	case "less_than":
		return &LessThanFilter{Column: cfg.Column, Value: cfg.Value}, nil
	case "greater_than":
		return &GreaterThanFilter{Column: cfg.Column, Value: cfg.Value}, nil
	case "is_null":
		return &IsNullFilter{Column: cfg.Column}, nil
	case "not_null":
		return &NotNullFilter{Column: cfg.Column}, nil
	case "language":
		return &LanguageFilter{Column: cfg.Column, Languages: cfg.Languages}, nil
	case "keywords":
		include, err := resolveKeywords(cfg.Include, keywords)
		if err != nil {
			return nil, err
		}
		exclude, err := resolveKeywords(cfg.Exclude, keywords)
		if err != nil {
			return nil, err
		}
		return &KeywordFilter{Column: cfg.Column, Include: include, Exclude: exclude}, nil
	default:
		return nil, fmt.Errorf("unknown filter type %q", cfg.Type)
	}
}

func resolveKeywords(names []string, keywords map[string]query.KeywordConfig) ([]query.KeywordConfig, error) {
	resolved := make([]query.KeywordConfig, 0, len(names))
	for _, name := range names {
		list, ok := keywords[name]
		if !ok {
			return nil, fmt.Errorf("unknown keyword list %q", name)
		}
		resolved = append(resolved, list)
	}
	return resolved, nil
}
