package forum

import (
	"time"
)

// Post is a forum thread opener.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null;type:text" json:"title"`
	Content   string    `gorm:"not null;type:text" json:"content"`
	Category  string    `gorm:"not null;type:text" json:"category"`
	AuthorID  uint      `gorm:"index;not null" json:"authorId"`
	Tags      []Tag     `gorm:"many2many:post_tags" json:"tags"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Post entity.
func (Post) TableName() string {
	return "posts"
}

// Comment is a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"not null;type:text" json:"content"`
	PostID    uint      `gorm:"index;not null" json:"postId"`
	AuthorID  uint      `gorm:"index;not null" json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the table name for the Comment entity.
func (Comment) TableName() string {
	return "comments"
}

// Tag is a normalized label shared between posts.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null;size:64" json:"name"`
}

// TableName returns the table name for the Tag entity.
func (Tag) TableName() string {
	return "tags"
}
