package models

import "time"

// BlogPostImage is an image attached to a post. Payloads are held by the storage backend.
type BlogPostImage struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	BlogPostID       uint      `gorm:"not null;index" json:"blog_post_id"`
	Key              string    `gorm:"size:512;not null" json:"key"`
	ThumbnailKey     string    `gorm:"size:512" json:"thumbnail_key,omitempty"`
	OriginalFilename string    `gorm:"size:255" json:"original_filename"`
	ContentType      string    `gorm:"size:127;not null" json:"content_type"`
	Width            int       `json:"width"`
	Height           int       `json:"height"`
	SizeBytes        int64     `json:"size_bytes"`
	CreatedAt        time.Time `json:"created_at"`
}
