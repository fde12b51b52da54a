package feeds_test

import (
	"context"
	"testing"

	"unionfeed/feeds"
	"unionfeed/models"
	"unionfeed/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilters(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		filter   query.FilterStrategy
		expected []int64
	}{
		{
			name:     "equal",
			filter:   &feeds.EqualFilter{Column: "language", Value: "en"},
			expected: []int64{2},
		},
		{
			name:     "in",
			filter:   &feeds.InFilter{Column: "id", Values: []interface{}{int64(1), int64(2)}},
			expected: []int64{1, 2},
		},
		{
			name:     "empty in matches nothing",
			filter:   &feeds.InFilter{Column: "id"},
			expected: []int64{},
		},
		{
			name:     "less than",
			filter:   &feeds.LessThanFilter{Column: "id", Value: 2},
			expected: []int64{1},
		},
		{
			name:     "greater than",
			filter:   &feeds.GreaterThanFilter{Column: "id", Value: 1},
			expected: []int64{2},
		},
		{
			name:     "is null excludes replies",
			filter:   &feeds.IsNullFilter{Column: "parent_id"},
			expected: []int64{1},
		},
		{
			name:     "not null keeps replies",
			filter:   &feeds.NotNullFilter{Column: "parent_id"},
			expected: []int64{2},
		},
		{
			name:     "language",
			filter:   &feeds.LanguageFilter{Languages: []string{"nb", "nn", "se"}},
			expected: []int64{1},
		},
		{
			name:     "no languages keeps everything",
			filter:   &feeds.LanguageFilter{},
			expected: []int64{1, 2},
		},
		{
			name: "keywords are case insensitive",
			filter: &feeds.KeywordFilter{
				Column:  "body",
				Include: []query.KeywordConfig{{Name: "go", Keywords: []string{"GOLANG", " "}}},
			},
			expected: []int64{1},
		},
		{
			name: "excluded keywords",
			filter: &feeds.KeywordFilter{
				Column:  "body",
				Exclude: []query.KeywordConfig{{Name: "go", Keywords: []string{"golang"}}},
			},
			expected: []int64{2},
		},
		{
			name: "include and exclude",
			filter: &feeds.KeywordFilter{
				Column:  "title",
				Include: []query.KeywordConfig{{Name: "any", Keywords: []string{"hello", "reply"}}},
				Exclude: []query.KeywordConfig{{Name: "no", Keywords: []string{"go"}}},
			},
			expected: []int64{2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := f.aggregator().
				Add("posts", feeds.From[models.Post]().Where(tt.filter)).
				Rows(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.expected, rowIDs(rows))
		})
	}
}

func TestQueryIsCopyOnWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := feeds.From[models.Post]()
	replies := base.Where(&feeds.NotNullFilter{Column: "parent_id"})
	limited := base.OrderBy("id DESC").Limit(1)

	assert.Equal(t, "unionfeed/models.Post", base.TypeName())
	assert.Equal(t, base.TypeName(), replies.TypeName())

	rows, err := f.aggregator().Add("all", base).Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, rowIDs(rows))

	rows, err = f.aggregator().Add("replies", replies).Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, rowIDs(rows))

	rows, err = f.aggregator().Add("latest", limited).Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, rowIDs(rows))
}

func TestOrderedAndLimitedSourcesInUnion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	agg := f.aggregator().
		Add("latest comments", feeds.From[models.Comment]().OrderBy("id DESC").Limit(2)).
		Add("videos", feeds.From[models.Video]()).
		Add("first post", feeds.From[models.Post]().Limit(1))

	total, err := agg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	items, err := agg.Get(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)

	comments := map[int64]bool{}
	for _, item := range items {
		if item.Tag == "latest comments" {
			comments[item.Record.RecordID()] = true
		}
	}
	assert.Equal(t, map[int64]bool{4: true, 5: true}, comments)
}
