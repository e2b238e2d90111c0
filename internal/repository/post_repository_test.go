package repository_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-backend/internal/model"
	"blog-backend/internal/pkg/slug"
	"blog-backend/internal/repository"
)

func slugFor(title string) func(uint) string {
	return func(id uint) string { return slug.Generate(title, uint64(id)) }
}

func TestPostRepository_CreateWithSlug(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	author := createUser(t, repository.NewUserRepository(db), "a@x.com", "alice")
	posts := repository.NewPostRepository(db)

	post := &model.Post{Title: "Hello, World!  ", Content: "body", AuthorID: author.ID}
	require.NoError(t, posts.CreateWithSlug(ctx, post, slugFor(post.Title)))

	assert.Regexp(t, regexp.MustCompile(`^hello-world-[0-9a-zA-Z]+$`), post.Slug)
	assert.Equal(t, slug.Generate(post.Title, uint64(post.ID)), post.Slug)

	stored, err := posts.GetBySlug(ctx, post.Slug)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, post.ID, stored.ID)
	require.NotNil(t, stored.Author)
	assert.Equal(t, "alice", stored.Author.Username)
}

func TestPostRepository_SlugCollisionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	author := createUser(t, repository.NewUserRepository(db), "a@x.com", "alice")
	posts := repository.NewPostRepository(db)

	fixed := func(uint) string { return "same-slug" }
	require.NoError(t, posts.CreateWithSlug(ctx, &model.Post{Title: "a", Content: "c", AuthorID: author.ID}, fixed))

	err := posts.CreateWithSlug(ctx, &model.Post{Title: "b", Content: "c", AuthorID: author.ID}, fixed)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	assert.Equal(t, int64(1), countPosts(t, db))
}

func TestPostRepository_SoftDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	author := createUser(t, repository.NewUserRepository(db), "a@x.com", "alice")
	posts := repository.NewPostRepository(db)

	post := &model.Post{Title: "Gone soon", Content: "c", AuthorID: author.ID}
	require.NoError(t, posts.CreateWithSlug(ctx, post, slugFor(post.Title)))

	ok, err := posts.SoftDelete(ctx, post.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = posts.SoftDelete(ctx, post.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	hidden, err := posts.GetBySlug(ctx, post.Slug)
	require.NoError(t, err)
	assert.Nil(t, hidden)

	assert.Equal(t, int64(1), countPosts(t, db), "soft delete keeps the row and its slug")
}

func TestPostRepository_ListAndUpdate(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	author := createUser(t, repository.NewUserRepository(db), "a@x.com", "alice")
	posts := repository.NewPostRepository(db)

	var created []*model.Post
	for i := 0; i < 5; i++ {
		post := &model.Post{Title: fmt.Sprintf("Post %d", i), Content: "c", AuthorID: author.ID}
		require.NoError(t, posts.CreateWithSlug(ctx, post, slugFor(post.Title)))
		created = append(created, post)
	}
	_, err := posts.SoftDelete(ctx, created[0].ID)
	require.NoError(t, err)

	page, total, err := posts.List(ctx, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, page, 3)
	for _, p := range page {
		assert.NotEqual(t, created[0].ID, p.ID)
		require.NotNil(t, p.Author)
	}

	rest, _, err := posts.List(ctx, 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	empty, total, err := posts.List(ctx, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.Equal(t, int64(4), total)

	excerpt := "short"
	require.NoError(t, posts.UpdateContent(ctx, created[1].ID, "Renamed", &excerpt, "new body"))
	updated, err := posts.GetBySlug(ctx, created[1].Slug)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "new body", updated.Content)
	require.NotNil(t, updated.Excerpt)
	assert.Equal(t, "short", *updated.Excerpt)
	assert.Equal(t, created[1].Slug, updated.Slug)
}
