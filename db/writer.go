package db

import (
	"context"
	"fmt"
	"time"

	"unionfeed/models"

	"github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Writer inserts records of the built in types
type Writer struct {
	db *DB
}

func NewWriter(db *DB) *Writer {
	return &Writer{db: db}
}

func (writer *Writer) CreatePost(ctx context.Context, post *models.Post) error {
	var parentID interface{}
	if post.ParentID != nil {
		parentID = *post.ParentID
	}

	ib := writer.db.flavor.NewInsertBuilder()
	ib.InsertInto("posts").
		Cols("title", "body", "language", "parent_id", "created_at").
		Values(post.Title, post.Body, post.Language, parentID, unixSeconds(post.CreatedAt))

	id, err := writer.insert(ctx, ib)
	if err != nil {
		return fmt.Errorf("insert post error: %w", err)
	}
	post.ID = id
	return nil
}

func (writer *Writer) CreateVideo(ctx context.Context, video *models.Video) error {
	ib := writer.db.flavor.NewInsertBuilder()
	ib.InsertInto("videos").
		Cols("title", "url", "duration_seconds", "created_at").
		Values(video.Title, video.URL, video.DurationSeconds, unixSeconds(video.CreatedAt))

	id, err := writer.insert(ctx, ib)
	if err != nil {
		return fmt.Errorf("insert video error: %w", err)
	}
	video.ID = id
	return nil
}

func (writer *Writer) CreateComment(ctx context.Context, comment *models.Comment) error {
	ib := writer.db.flavor.NewInsertBuilder()
	ib.InsertInto("comments").
		Cols("post_id", "author", "body", "created_at").
		Values(comment.PostID, comment.Author, comment.Body, unixSeconds(comment.CreatedAt))

	id, err := writer.insert(ctx, ib)
	if err != nil {
		return fmt.Errorf("insert comment error: %w", err)
	}
	comment.ID = id
	return nil
}

// DeleteRecord removes a record by id from table
func (writer *Writer) DeleteRecord(ctx context.Context, table string, id int64) error {
	del := writer.db.flavor.NewDeleteBuilder()
	sql, args := del.DeleteFrom(table).Where(del.Equal("id", id)).Build()

	if _, err := writer.db.ExecContext(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}

// insert runs ib with a RETURNING clause, which both postgres and sqlite
// (3.35+) support, and returns the new id.
func (writer *Writer) insert(ctx context.Context, ib *sqlbuilder.InsertBuilder) (int64, error) {
	ib.SQL("RETURNING id")
	sql, args := ib.Build()

	var id int64
	if err := writer.db.QueryRowContext(ctx, sql, args...).Scan(&id); err != nil {
		log.WithFields(log.Fields{
			"sql":   sql,
			"error": err,
		}).Error("Error inserting record")
		return 0, err
	}
	return id, nil
}

func unixSeconds(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().Unix()
	}
	return t.Unix()
}
