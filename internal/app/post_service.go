package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"blog-backend/internal/model"
	"blog-backend/internal/pkg/slug"
	"blog-backend/internal/repository"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// PostCache is an optional read-through cache of posts keyed by slug. A hit with a
// nil view means the post was deleted.
type PostCache interface {
	Get(ctx context.Context, slug string) (*model.PostView, bool, error)
	// Fill stores view only if the slug has no entry, so a read racing a write
	// never overwrites it.
	Fill(ctx context.Context, view *model.PostView) error
	// Put replaces the entry unless the post is deleted or the cached revision is
	// newer.
	Put(ctx context.Context, view *model.PostView) error
	MarkDeleted(ctx context.Context, slug string) error
}

type PostService struct {
	posts *repository.PostRepository
	cache PostCache
	log   *zap.Logger
}

type PostInput struct {
	Title   string
	Excerpt *string
	Content string
}

func NewPostService(posts *repository.PostRepository, cache PostCache, log *zap.Logger) *PostService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostService{posts: posts, cache: cache, log: log.Named("post")}
}

func (in PostInput) normalize() (PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || len(in.Title) > 255 || strings.TrimSpace(in.Content) == "" {
		return in, ErrInvalidInput
	}
	if in.Excerpt != nil && len(*in.Excerpt) > 500 {
		return in, ErrInvalidInput
	}
	return in, nil
}

// Create stores a post for author. The slug is derived from the title and the row
// id, so it is unique without retries.
func (s *PostService) Create(ctx context.Context, author *model.User, input PostInput) (*model.Post, error) {
	input, err := input.normalize()
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:    input.Title,
		Excerpt:  input.Excerpt,
		Content:  input.Content,
		AuthorID: author.ID,
	}
	err = s.posts.CreateWithSlug(ctx, post, func(id uint) string {
		return slug.Generate(input.Title, uint64(id))
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.Warn("slug collision", zap.String("title", input.Title), zap.Error(err))
			return nil, ErrSlugCollision
		}
		return nil, err
	}
	post.Author = author
	return post, nil
}

func (s *PostService) List(ctx context.Context, skip, limit int) ([]model.PostView, int64, error) {
	if skip < 0 || limit < 1 || limit > MaxPageLimit {
		return nil, 0, ErrInvalidInput
	}

	posts, total, err := s.posts.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	if len(posts) == 0 {
		return nil, total, ErrNoPosts
	}

	views := make([]model.PostView, 0, len(posts))
	for i := range posts {
		views = append(views, posts[i].View())
	}
	return views, total, nil
}

func (s *PostService) Get(ctx context.Context, postSlug string) (*model.PostView, error) {
	if s.cache != nil {
		view, ok, err := s.cache.Get(ctx, postSlug)
		if err != nil {
			s.log.Warn("read post cache failed", zap.String("slug", postSlug), zap.Error(err))
		} else if ok {
			if view == nil {
				return nil, ErrPostNotFound
			}
			return view, nil
		}
	}

	post, err := s.posts.GetBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	view := post.View()
	if s.cache != nil {
		if err := s.cache.Fill(ctx, &view); err != nil {
			s.log.Warn("write post cache failed", zap.String("slug", postSlug), zap.Error(err))
		}
	}
	return &view, nil
}

// Update rewrites a post owned by actor. The slug never changes.
func (s *PostService) Update(ctx context.Context, actor *model.User, postSlug string, input PostInput) error {
	input, err := input.normalize()
	if err != nil {
		return err
	}

	post, err := s.ownedPost(ctx, actor, postSlug)
	if err != nil {
		return err
	}
	if err := s.posts.UpdateContent(ctx, post.ID, input.Title, input.Excerpt, input.Content); err != nil {
		return err
	}

	updated, err := s.posts.GetBySlug(ctx, postSlug)
	if err != nil {
		return err
	}
	if updated == nil {
		return ErrPostNotFound
	}
	if s.cache != nil {
		view := updated.View()
		if err := s.cache.Put(ctx, &view); err != nil {
			s.log.Warn("refresh post cache failed", zap.String("slug", postSlug), zap.Error(err))
		}
	}
	return nil
}

func (s *PostService) Delete(ctx context.Context, actor *model.User, postSlug string) error {
	post, err := s.ownedPost(ctx, actor, postSlug)
	if err != nil {
		return err
	}

	deleted, err := s.posts.SoftDelete(ctx, post.ID)
	if err != nil {
		return err
	}
	s.markDeleted(ctx, postSlug)
	if !deleted {
		return ErrPostNotFound
	}
	return nil
}

func (s *PostService) ownedPost(ctx context.Context, actor *model.User, postSlug string) (*model.Post, error) {
	post, err := s.posts.GetBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if actor == nil || post.AuthorID != actor.ID {
		return nil, ErrForbidden
	}
	return post, nil
}

func (s *PostService) markDeleted(ctx context.Context, postSlug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.MarkDeleted(ctx, postSlug); err != nil {
		s.log.Warn("mark post deleted in cache failed", zap.String("slug", postSlug), zap.Error(err))
	}
}
