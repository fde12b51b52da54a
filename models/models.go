package models

import "time"

// Post is a text post, optionally a reply to another post
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Language  string    `json:"language"`
	ParentID  *int64    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Post) RecordID() int64 { return p.ID }

// Video is a link to hosted video content
type Video struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	DurationSeconds int64     `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (v *Video) RecordID() int64 { return v.ID }

// Comment on a post
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *Comment) RecordID() int64 { return c.ID }
