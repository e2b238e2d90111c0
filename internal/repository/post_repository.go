package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"blog-backend/internal/model"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// CreateWithSlug inserts post under a throwaway slug, derives the real slug from the
// assigned id and stores it before the transaction commits, so no reader ever sees
// the placeholder.
func (r *PostRepository) CreateWithSlug(ctx context.Context, post *model.Post, slugFor func(id uint) string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post.Slug = "pending-" + uuid.NewString()
		if err := tx.Omit("Author").Create(post).Error; err != nil {
			return fmt.Errorf("create post failed: %w", translate(err))
		}

		finalSlug := slugFor(post.ID)
		if err := tx.Model(&model.Post{}).Where("id = ?", post.ID).Update("slug", finalSlug).Error; err != nil {
			return fmt.Errorf("assign post slug failed: %w", translate(err))
		}
		post.Slug = finalSlug
		return nil
	})
	return err
}

// GetBySlug returns a visible post with its author loaded, or nil.
func (r *PostRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	var post model.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("slug = ? AND is_deleted = ?", slug, false).
		First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query post by slug failed: %w", err)
	}
	return &post, nil
}

func (r *PostRepository) List(ctx context.Context, skip, limit int) ([]model.Post, int64, error) {
	base := r.db.WithContext(ctx).Model(&model.Post{}).Where("is_deleted = ?", false).Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts failed: %w", err)
	}

	var posts []model.Post
	if err := base.Preload("Author").
		Order("created_at DESC").
		Order("id DESC").
		Offset(skip).
		Limit(limit).
		Find(&posts).Error; err != nil {
		return nil, 0, fmt.Errorf("list posts failed: %w", err)
	}
	return posts, total, nil
}

// UpdateContent rewrites title, excerpt and content of a visible post. The slug is
// left untouched.
func (r *PostRepository) UpdateContent(ctx context.Context, id uint, title string, excerpt *string, content string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"title":   title,
			"excerpt": excerpt,
			"content": content,
		}).Error
	if err != nil {
		return fmt.Errorf("update post failed: %w", err)
	}
	return nil
}

func (r *PostRepository) SoftDelete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Post{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if res.Error != nil {
		return false, fmt.Errorf("delete post failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
