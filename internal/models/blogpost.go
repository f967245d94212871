package models

import (
	"time"
)

// Category is the fixed set of blog post categories.
type Category int

// Blog post categories, stored as their integer code.
const (
	CategoryGeneral Category = iota + 1
	CategoryTechnology
	CategoryScience
	CategoryLifestyle
	CategoryTravel
)

// DefaultCategory is applied when a post is created without one.
const DefaultCategory = CategoryGeneral

var categoryNames = map[Category]string{
	CategoryGeneral:    "General",
	CategoryTechnology: "Technology",
	CategoryScience:    "Science",
	CategoryLifestyle:  "Lifestyle",
	CategoryTravel:     "Travel",
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Categories lists every category code in ascending order.
func Categories() []Category {
	return []Category{CategoryGeneral, CategoryTechnology, CategoryScience, CategoryLifestyle, CategoryTravel}
}

// Document describes the optional file attached to a post. The payload lives in storage under Key.
type Document struct {
	Key         string `gorm:"size:512" json:"key"`
	Filename    string `gorm:"size:255" json:"filename"`
	ContentType string `gorm:"size:127" json:"content_type"`
	Size        int64  `json:"size"`
}

// IsZero reports whether no document is attached.
func (d Document) IsZero() bool {
	return d.Key == ""
}

// BlogPost is the aggregate root of the blog domain.
// Posts are never removed; Deleted marks them hidden from every listing.
// (title, text) is unique among live posts through idx_blog_posts_title_text_live,
// which the schema layer creates per dialect.
type BlogPost struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Title     string          `gorm:"size:255;not null" json:"title"`
	Text      string          `gorm:"type:text;not null" json:"text"`
	OwnerID   uint            `gorm:"not null;index" json:"owner_id"`
	Owner     *User           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Authors   []Author        `gorm:"many2many:blog_post_authors" json:"authors"`
	Images    []BlogPostImage `gorm:"foreignKey:BlogPostID" json:"images,omitempty"`
	Category  Category        `gorm:"not null" json:"category"`
	Website   string          `gorm:"size:200" json:"website"`
	Order     int64           `gorm:"column:display_order;not null;index" json:"order"`
	Document  Document        `gorm:"embedded;embeddedPrefix:document_" json:"document"`
	Active    bool            `gorm:"not null" json:"active"`
	Published bool            `gorm:"not null;index" json:"published"`
	Archived  bool            `gorm:"not null" json:"archived"`
	Deleted   bool            `gorm:"not null;index" json:"deleted"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// String returns the post title.
func (p *BlogPost) String() string {
	return p.Title
}

// BlogPostAuthor is the explicit join row between posts and authors.
type BlogPostAuthor struct {
	BlogPostID uint      `gorm:"primaryKey;autoIncrement:false"`
	AuthorID   uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName returns the join table name shared with the many2many relation.
func (BlogPostAuthor) TableName() string {
	return "blog_post_authors"
}

// OrderSequence is a named counter row used to hand out post display order values.
type OrderSequence struct {
	Name  string `gorm:"primaryKey;size:64"`
	Value int64  `gorm:"not null;default:0"`
}

// TableName returns the sequence table name.
func (OrderSequence) TableName() string {
	return "order_sequences"
}

// BlogPostOrderSequence names the counter that feeds BlogPost.Order.
const BlogPostOrderSequence = "blog_post_order"
