package models

import "time"

// Author is referenced by articles but managed elsewhere.
type Author struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"unique;not null" json:"email"`
}

// Category groups articles; an article has zero or one category.
type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"unique;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"unique;not null;index" json:"name"`
}

// ArticleTag is the Article<->Tag join row. Rows are managed explicitly by
// the repository: replaced wholesale when an update carries a tags field,
// deleted when the article is deleted.
type ArticleTag struct {
	ArticleID uint `gorm:"primaryKey" json:"article_id"`
	TagID     uint `gorm:"primaryKey" json:"tag_id"`
}

type Article struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Published   bool      `gorm:"default:false;index" json:"published"`
	ReadingTime int       `json:"reading_time"`
	Keywords    string    `json:"keywords,omitempty"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      Author    `json:"author"`
	CategoryID  *uint     `gorm:"index" json:"category_id,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Tags        []Tag     `gorm:"many2many:article_tags" json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
