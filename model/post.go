package model

import "time"

// Post is a piece of content published by a profile.
type Post struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID  int64     `gorm:"index:idx_post_author;not null" json:"author_id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Slug      string    `gorm:"index:idx_post_slug;size:100" json:"slug"`
	Content   string    `gorm:"type:text" json:"content"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Comment is a reply on a post.
type Comment struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"index:idx_comment_post;not null" json:"post_id"`
	AuthorID  int64     `gorm:"not null" json:"author_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Pinned    bool      `gorm:"default:false" json:"pinned"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Vote is a 1-5 star rating on a post, one per (post, profile).
type Vote struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PostID    int64     `gorm:"uniqueIndex:idx_vote_pair;not null" json:"post_id"`
	ProfileID int64     `gorm:"uniqueIndex:idx_vote_pair;not null" json:"profile_id"`
	Value     int       `gorm:"not null" json:"value"` // 1..5 stars
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
