package model

import "time"

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Excerpt   *string   `gorm:"size:500" json:"excerpt"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Slug      string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	IsDeleted bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostView is the public shape of a visible post.
type PostView struct {
	ID         uint      `json:"id"`
	Title      string    `json:"title"`
	Excerpt    *string   `json:"excerpt"`
	Content    string    `json:"content"`
	Slug       string    `json:"slug"`
	AuthorID   uint      `json:"author_id"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (p *Post) View() PostView {
	view := PostView{
		ID:        p.ID,
		Title:     p.Title,
		Excerpt:   p.Excerpt,
		Content:   p.Content,
		Slug:      p.Slug,
		AuthorID:  p.AuthorID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Author != nil {
		view.AuthorName = p.Author.Username
	}
	return view
}
