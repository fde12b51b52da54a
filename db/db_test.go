package db_test

import (
	"context"
	"testing"
	"time"

	"unionfeed/db"
	"unionfeed/models"

	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemoryDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(context.Background(), db.Config{Driver: db.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

func countRows(t *testing.T, database *db.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, database.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := db.Open(context.Background(), db.Config{Driver: "oracle", DSN: "x"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestOpenFlavor(t *testing.T) {
	database := openInMemoryDB(t)
	assert.Equal(t, sqlbuilder.SQLite, database.Flavor())
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := openInMemoryDB(t)
	require.NoError(t, db.Migrate(database))

	for _, table := range []string{"posts", "videos", "comments"} {
		assert.Equal(t, 0, countRows(t, database, table))
	}
}

func TestRollback(t *testing.T) {
	database := openInMemoryDB(t)
	require.NoError(t, db.Rollback(database))

	_, err := database.ExecContext(context.Background(), "SELECT 1 FROM posts")
	assert.Error(t, err, "posts table should be gone")
}

func TestWriterAssignsIDs(t *testing.T) {
	ctx := context.Background()
	database := openInMemoryDB(t)
	writer := db.NewWriter(database)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	post := &models.Post{Title: "Hello", Body: "First post", Language: "nb", CreatedAt: created}
	require.NoError(t, writer.CreatePost(ctx, post))
	assert.Equal(t, int64(1), post.ID)

	reply := &models.Post{Title: "Re: Hello", ParentID: &post.ID, CreatedAt: created}
	require.NoError(t, writer.CreatePost(ctx, reply))
	assert.Equal(t, int64(2), reply.ID)

	video := &models.Video{Title: "Clip", URL: "https://example.com/clip", DurationSeconds: 42}
	require.NoError(t, writer.CreateVideo(ctx, video))
	assert.Equal(t, int64(1), video.ID)

	comment := &models.Comment{PostID: post.ID, Author: "kari", Body: "Nice"}
	require.NoError(t, writer.CreateComment(ctx, comment))
	assert.Equal(t, int64(1), comment.ID)

	var parentID int64
	require.NoError(t, database.QueryRowContext(ctx, "SELECT parent_id FROM posts WHERE id = ?", reply.ID).Scan(&parentID))
	assert.Equal(t, post.ID, parentID)

	require.NoError(t, writer.DeleteRecord(ctx, "videos", video.ID))
	assert.Equal(t, 0, countRows(t, database, "videos"))
}

func TestWriterRejectsDanglingComment(t *testing.T) {
	database := openInMemoryDB(t)
	writer := db.NewWriter(database)

	err := writer.CreateComment(context.Background(), &models.Comment{PostID: 99, Author: "ola"})
	assert.Error(t, err, "foreign keys are enforced")
}
