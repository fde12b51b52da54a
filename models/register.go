package models

import (
	"database/sql"
	"time"

	"unionfeed/registry"
)

// Register adds the built in record types to reg.
func Register(reg *registry.Registry) error {
	types := []registry.Type{
		{
			Name:    registry.TypeName[Post](),
			Alias:   "post",
			Table:   "posts",
			Columns: []string{"id", "title", "body", "language", "parent_id", "created_at"},
			Scan:    scanPost,
		},
		{
			Name:    registry.TypeName[Video](),
			Alias:   "video",
			Table:   "videos",
			Columns: []string{"id", "title", "url", "duration_seconds", "created_at"},
			Scan:    scanVideo,
		},
		{
			Name:    registry.TypeName[Comment](),
			Alias:   "comment",
			Table:   "comments",
			Columns: []string{"id", "post_id", "author", "body", "created_at"},
			Scan:    scanComment,
		},
	}

	for _, t := range types {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// created_at is stored as unix seconds
func scanPost(scan func(dest ...interface{}) error) (registry.Record, error) {
	var (
		p         Post
		parentID  sql.NullInt64
		createdAt int64
	)
	if err := scan(&p.ID, &p.Title, &p.Body, &p.Language, &parentID, &createdAt); err != nil {
		return nil, err
	}
	if parentID.Valid {
		p.ParentID = &parentID.Int64
	}
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &p, nil
}

func scanVideo(scan func(dest ...interface{}) error) (registry.Record, error) {
	var (
		v         Video
		createdAt int64
	)
	if err := scan(&v.ID, &v.Title, &v.URL, &v.DurationSeconds, &createdAt); err != nil {
		return nil, err
	}
	v.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &v, nil
}

func scanComment(scan func(dest ...interface{}) error) (registry.Record, error) {
	var (
		c         Comment
		createdAt int64
	)
	if err := scan(&c.ID, &c.PostID, &c.Author, &c.Body, &createdAt); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}
